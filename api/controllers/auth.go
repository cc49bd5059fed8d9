package controllers

import (
	"net/http"

	"github.com/angelmondragon/taxchat-backend/api/responses"
	"github.com/angelmondragon/taxchat-backend/api/validators"
	"github.com/angelmondragon/taxchat-backend/internal/auth"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
)

const tokenHeader = "X-Taxchat-Token"

type validateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserLogin wires the login endpoint into the HTTP layer.
func UserLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// ValidateToken reports whether the posted token is still valid.
func ValidateToken(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body validateTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.ValidateToken(r.Context(), body.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
