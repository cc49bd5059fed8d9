package users

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/angelmondragon/taxchat-backend/internal/conversations"
	pkgAuth "github.com/angelmondragon/taxchat-backend/pkg/auth"
	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/security"
	"gorm.io/gorm"
)

const (
	// MinPhoneDigits is the minimum number of digits a profile phone must carry.
	MinPhoneDigits = 10

	recentSessionsLimit = 5
)

// Storage is the scoped connection surface of *db.Client.
type Storage interface {
	Acquire(ctx context.Context, fn func(conn *gorm.DB) error) error
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages profiles on behalf of their owners.
type Service interface {
	UpsertProfile(ctx context.Context, input ProfileInput) (*AuthenticatedUser, error)
	GetProfile(ctx context.Context, subject, email string) (*AuthenticatedUser, error)
	ChatStats(ctx context.Context, subject, email string) (*ChatStats, error)
}

type ServiceParams struct {
	Storage        Storage
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

type service struct {
	storage Storage
	jwtCfg  config.JWTConfig
	passCfg config.PasswordConfig
	now     func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Storage == nil {
		return nil, fmt.Errorf("users storage is required")
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{storage: p.Storage, jwtCfg: p.JWTConfig, passCfg: p.PasswordConfig, now: now}, nil
}

// ValidPhone reports whether phone carries at least MinPhoneDigits digits
// once every other character is ignored.
func ValidPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= MinPhoneDigits
}

// UpsertProfile creates the user or replaces its profile and password.
func (s *service) UpsertProfile(ctx context.Context, input ProfileInput) (*AuthenticatedUser, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validateProfile(input); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	phone := input.Phone
	var saved *models.User
	err = s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		now := s.now()
		existing, err := repo.FindByEmail(ctx, input.Email)
		switch {
		case err == nil:
			existing.Name = input.Name
			existing.Phone = &phone
			existing.Country = input.Country
			existing.State = input.State
			existing.PasswordHash = hash
			existing.LastActive = now
			if err := repo.UpdateProfile(ctx, existing); err != nil {
				return db.Storage(err, "update profile")
			}
			saved = existing
			return nil
		case db.IsNotFound(err):
		default:
			return db.Storage(err, "lookup user")
		}

		created, err := repo.Create(ctx, &models.User{
			Email:        input.Email,
			Name:         input.Name,
			Phone:        &phone,
			Country:      input.Country,
			State:        input.State,
			PasswordHash: hash,
			CreatedAt:    now,
			LastActive:   now,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already exists")
			}
			return db.Storage(err, "create user")
		}
		saved = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.withToken(saved)
}

// GetProfile returns the profile of email. Only the token subject may read it.
func (s *service) GetProfile(ctx context.Context, subject, email string) (*AuthenticatedUser, error) {
	var user *models.User
	err := s.storage.Acquire(ctx, func(conn *gorm.DB) error {
		var err error
		user, err = s.owner(ctx, NewRepository(conn), subject, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withToken(user)
}

// ChatStats summarises the user's exchanges and five most recent sessions.
func (s *service) ChatStats(ctx context.Context, subject, email string) (*ChatStats, error) {
	out := &ChatStats{RecentSessions: []conversations.SessionDTO{}}
	err := s.storage.Acquire(ctx, func(conn *gorm.DB) error {
		repo := NewRepository(conn)
		user, err := s.owner(ctx, repo, subject, email)
		if err != nil {
			return err
		}
		if out.TotalChats, out.HelpfulResponses, err = repo.QACounts(ctx, user.ID); err != nil {
			return db.Storage(err, "count user qa pairs")
		}
		sessions, err := conversations.NewRepository(conn).ListSessions(ctx, user.ID, recentSessionsLimit)
		if err != nil {
			return db.Storage(err, "list recent sessions")
		}
		for _, sm := range sessions {
			out.RecentSessions = append(out.RecentSessions, conversations.SessionFromSummary(sm))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) owner(ctx context.Context, repo *Repository, subject, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if subject != email {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to access this profile")
	}
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, db.Storage(err, "lookup user")
	}
	return user, nil
}

func (s *service) withToken(user *models.User) (*AuthenticatedUser, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		Email:  user.Email,
		UserID: user.ID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthenticatedUser{UserDTO: *FromModel(user), AccessToken: token}, nil
}

func validateProfile(input ProfileInput) error {
	details := map[string]string{}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		details["email"] = "must be a valid email"
	}
	if input.Password == "" {
		details["password"] = "is required"
	}
	if input.Name == "" {
		details["name"] = "is required"
	}
	if !ValidPhone(input.Phone) {
		details["phone"] = fmt.Sprintf("must have at least %d digits", MinPhoneDigits)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
