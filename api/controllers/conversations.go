package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/taxchat-backend/api/middleware"
	"github.com/angelmondragon/taxchat-backend/api/responses"
	"github.com/angelmondragon/taxchat-backend/api/validators"
	"github.com/angelmondragon/taxchat-backend/internal/conversations"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
)

type startSessionRequest struct {
	Email string `json:"email" validate:"required,email"`
	Title string `json:"title" validate:"max=255"`
}

// StartSession closes the caller's open session and opens a new one.
func StartSession(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body startSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Email != middleware.EmailFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to start a session for this user"))
			return
		}

		session, err := svc.StartSession(r.Context(), body.Email, body.Title)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func CloseSession(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(chi.URLParam(r, "session_id"), "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, id)
		}
		session, err := svc.CloseSession(ctx, middleware.EmailFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func DeleteConversation(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(chi.URLParam(r, "session_id"), "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, id)
		}
		if err := svc.DeleteConversation(ctx, middleware.EmailFromContext(ctx), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "deleted", "session_id": id})
	}
}

func ListConversations(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := svc.ListConversations(r.Context(), pathEmail(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"conversations": sessions})
	}
}
