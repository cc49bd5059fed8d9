package controllers

import (
	"net/http"

	"github.com/angelmondragon/taxchat-backend/api/middleware"
	"github.com/angelmondragon/taxchat-backend/api/responses"
	"github.com/angelmondragon/taxchat-backend/api/validators"
	"github.com/angelmondragon/taxchat-backend/internal/users"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
)

type profileRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Phone    string  `json:"phone" validate:"required,phone"`
	Country  *string `json:"country"`
	State    *string `json:"state"`
}

// UserProfileUpsert creates or replaces a profile and returns a fresh token.
func UserProfileUpsert(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body profileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpsertProfile(r.Context(), users.ProfileInput{
			Email:    body.Email,
			Password: body.Password,
			Name:     body.Name,
			Phone:    body.Phone,
			Country:  body.Country,
			State:    body.State,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetProfile(r.Context(), middleware.EmailFromContext(r.Context()), pathEmail(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UserChatStats(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ChatStats(r.Context(), middleware.EmailFromContext(r.Context()), pathEmail(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
