package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/taxchat-backend/api/responses"
	"github.com/angelmondragon/taxchat-backend/api/validators"
	"github.com/angelmondragon/taxchat-backend/internal/chat"
	"github.com/angelmondragon/taxchat-backend/internal/qa"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
)

// chatRequest accepts the legacy user_query alias for message. Category is
// accepted for compatibility and ignored; the classifier decides.
type chatRequest struct {
	Message   string  `json:"message"`
	UserQuery string  `json:"user_query"`
	Email     string  `json:"email" validate:"required"`
	Name      string  `json:"name"`
	Phone     *string `json:"phone"`
	Country   *string `json:"country"`
	State     *string `json:"state"`
	Category  *string `json:"category"`
}

type feedbackRequest struct {
	Rating     *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Suggestion *string `json:"suggestion"`
}

type feedbackResponse struct {
	Status   string             `json:"status"`
	Message  string             `json:"message"`
	Feedback *qa.FeedbackResult `json:"feedback"`
}

// Chat answers every question in the posted message.
func Chat(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := body.Message
		if strings.TrimSpace(message) == "" {
			message = body.UserQuery
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithEmail(ctx, strings.TrimSpace(body.Email))
		}
		result, err := svc.Handle(ctx, chat.Request{
			Message: message,
			Email:   body.Email,
			Name:    body.Name,
			Phone:   body.Phone,
			Country: body.Country,
			State:   body.State,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ChatHistory(svc qa.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.History(r.Context(), pathEmail(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"history": history})
	}
}

// ChatFeedback records ?is_helpful and/or a {rating, suggestion} body.
func ChatFeedback(svc qa.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(chi.URLParam(r, "qa_id"), "qa_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		helpful, err := validators.ParseQueryBool(r, "is_helpful")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body feedbackRequest
		if _, err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitFeedback(r.Context(), id, qa.FeedbackInput{
			IsHelpful:  helpful,
			Rating:     body.Rating,
			Suggestion: body.Suggestion,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, feedbackResponse{
			Status:   chat.StatusSuccess,
			Message:  "Feedback recorded",
			Feedback: result,
		})
	}
}

func QAStats(svc qa.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func pathEmail(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
