package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/taxchat-backend/api/responses"
	"github.com/angelmondragon/taxchat-backend/api/validators"
	pkgAuth "github.com/angelmondragon/taxchat-backend/pkg/auth"
	"github.com/angelmondragon/taxchat-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with its subject.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token"))
				return
			}
			if claims.Email() == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no subject"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxEmail, claims.Email())
			ctx = context.WithValue(ctx, ctxUserID, claims.UserID)
			if logg != nil {
				ctx = logg.WithEmail(ctx, claims.Email())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
