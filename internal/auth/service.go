package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/taxchat-backend/internal/users"
	pkgAuth "github.com/angelmondragon/taxchat-backend/pkg/auth"
	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/security"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid email or password"
	invalidTokenMessage       = "invalid or expired token"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*users.AuthenticatedUser, error)
	ValidateToken(ctx context.Context, token string) (*TokenStatus, error)
}

// Storage is the transactional surface of *db.Client.
type Storage interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	storage Storage
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Storage   Storage
	JWTConfig config.JWTConfig
	Now       func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{storage: params.Storage, jwtCfg: params.JWTConfig, now: now}, nil
}

// Login verifies the credentials, touches last_active, and mints a bearer
// token whose subject is the email.
func (s *service) Login(ctx context.Context, req LoginRequest) (*users.AuthenticatedUser, error) {
	var user *models.User
	now := s.now()
	err := s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		var err error
		user, err = s.authenticate(ctx, repo, req.Email, req.Password)
		if err != nil {
			return err
		}
		if err := repo.TouchLastActive(ctx, user.ID, now); err != nil {
			return db.Storage(err, "update last active")
		}
		user.LastActive = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Email:  user.Email,
		UserID: user.ID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &users.AuthenticatedUser{UserDTO: *users.FromModel(user), AccessToken: token}, nil
}

// ValidateToken reports the subject and expiry of a valid token.
func (s *service) ValidateToken(_ context.Context, token string) (*TokenStatus, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidTokenMessage)
	}
	status := &TokenStatus{Valid: true, Email: claims.Email()}
	if claims.ExpiresAt != nil {
		status.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return status, nil
}

func (s *service) authenticate(ctx context.Context, repo *users.Repository, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := repo.FindByEmail(ctx, input)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, db.Storage(err, "lookup user")
	}

	// users created by a chat message have no password until they submit a profile
	if user.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
