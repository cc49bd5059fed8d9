package conversations

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"gorm.io/gorm"
)

// Storage is the scoped connection surface of *db.Client.
type Storage interface {
	Acquire(ctx context.Context, fn func(conn *gorm.DB) error) error
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages sessions on behalf of an authenticated owner.
type Service interface {
	StartSession(ctx context.Context, email, title string) (*SessionDTO, error)
	CloseSession(ctx context.Context, email string, sessionID int64) (*SessionDTO, error)
	DeleteConversation(ctx context.Context, email string, sessionID int64) error
	ListConversations(ctx context.Context, email string) ([]SessionDTO, error)
}

type ServiceParams struct {
	Storage      Storage
	DefaultTopic string
	Now          func() time.Time
}

type service struct {
	storage      Storage
	defaultTopic string
	now          func() time.Time
}

// NewService wires conversation dependencies.
func NewService(p ServiceParams) (Service, error) {
	if p.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "conversations storage required")
	}
	topic := strings.TrimSpace(p.DefaultTopic)
	if topic == "" {
		topic = DefaultTopic
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{storage: p.Storage, defaultTopic: topic, now: now}, nil
}

// DefaultTopic labels sessions opened without an explicit title.
const DefaultTopic = "Tax Consultation"

// StartSession closes the owner's open session, if any, and opens a new one.
func (s *service) StartSession(ctx context.Context, email, title string) (*SessionDTO, error) {
	topic := strings.TrimSpace(title)
	if topic == "" {
		topic = s.defaultTopic
	}

	var out SessionDTO
	err := s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		user, err := s.owner(ctx, repo, email)
		if err != nil {
			return err
		}
		now := s.now()
		if _, err := repo.CloseOpenSessions(ctx, user.ID, now); err != nil {
			return err
		}
		session, err := repo.CreateSession(ctx, user.ID, topic, now)
		if err != nil {
			return err
		}
		out = SessionFromModel(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseSession ends an open session. Closing an already closed session is a no-op.
func (s *service) CloseSession(ctx context.Context, email string, sessionID int64) (*SessionDTO, error) {
	var out SessionDTO
	err := s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		session, err := s.ownedSession(ctx, repo, email, sessionID)
		if err != nil {
			return err
		}
		if session.IsOpen() {
			now := s.now()
			if _, err := repo.CloseSession(ctx, session.ID, now); err != nil {
				return err
			}
			session.EndTime = &now
		}
		out = SessionFromModel(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a session together with its QA pairs and feedback.
func (s *service) DeleteConversation(ctx context.Context, email string, sessionID int64) error {
	return s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := s.ownedSession(ctx, repo, email, sessionID); err != nil {
			return err
		}
		deleted, err := repo.DeleteSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil
	})
}

// ListConversations returns every session of the user, newest first, with
// its QA pairs in asking order.
func (s *service) ListConversations(ctx context.Context, email string) ([]SessionDTO, error) {
	out := []SessionDTO{}
	err := s.storage.Acquire(ctx, func(conn *gorm.DB) error {
		repo := NewRepository(conn)
		user, err := s.owner(ctx, repo, email)
		if err != nil {
			return err
		}
		summaries, err := repo.ListSessions(ctx, user.ID, 0)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(summaries))
		for _, sm := range summaries {
			ids = append(ids, sm.ID)
		}
		pairs, err := repo.ListQAPairs(ctx, ids)
		if err != nil {
			return err
		}

		bySession := make(map[int64][]QADTO, len(summaries))
		for _, qa := range pairs {
			bySession[qa.SessionID] = append(bySession[qa.SessionID], QAFromModel(qa))
		}
		for _, sm := range summaries {
			dto := SessionFromSummary(sm)
			dto.Messages = bySession[sm.ID]
			out = append(out, dto)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) owner(ctx context.Context, repo *Repository, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	user, err := repo.FindUserByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) ownedSession(ctx context.Context, repo *Repository, email string, sessionID int64) (*models.ChatSession, error) {
	if sessionID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id must be positive")
	}
	user, err := s.owner(ctx, repo, email)
	if err != nil {
		return nil, err
	}
	session, err := repo.FindSession(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, err
	}
	if session.UserID != user.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "conversation belongs to another user")
	}
	return session, nil
}
