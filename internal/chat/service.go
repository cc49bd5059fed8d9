package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/taxchat-backend/internal/conversations"
	"github.com/angelmondragon/taxchat-backend/internal/llm"
	"github.com/angelmondragon/taxchat-backend/internal/taxonomy"
	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	StatusSuccess = "success"

	DefaultMaxMessageLength = 4000
)

// Storage is the transactional surface of *db.Client.
type Storage interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service answers chat messages and records every exchange.
type Service interface {
	Handle(ctx context.Context, req Request) (*Response, error)
}

type ServiceParams struct {
	Storage          Storage
	Answerer         llm.Answerer
	Logger           *logger.Logger
	Metrics          *metrics.ChatMetrics
	DefaultTopic     string
	MaxMessageLength int
	Now              func() time.Time
}

type service struct {
	storage      Storage
	answerer     llm.Answerer
	logg         *logger.Logger
	metrics      *metrics.ChatMetrics
	defaultTopic string
	maxLength    int
	now          func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Storage == nil {
		return nil, fmt.Errorf("chat storage required")
	}
	if p.Answerer == nil {
		return nil, fmt.Errorf("chat answerer required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	topic := strings.TrimSpace(p.DefaultTopic)
	if topic == "" {
		topic = conversations.DefaultTopic
	}
	maxLength := p.MaxMessageLength
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		storage:      p.Storage,
		answerer:     p.Answerer,
		logg:         p.Logger,
		metrics:      p.Metrics,
		defaultTopic: topic,
		maxLength:    maxLength,
		now:          now,
	}, nil
}

// Handle splits the message into questions, answers all of them, then
// persists user, session, and every QA pair in one transaction. Nothing is
// written unless every answer was produced.
func (s *service) Handle(ctx context.Context, req Request) (*Response, error) {
	resp, err := s.handle(ctx, req)
	if err != nil {
		s.metrics.IncRequest(strings.ToLower(string(pkgerrors.CodeOf(err))))
		return nil, err
	}
	s.metrics.IncRequest(StatusSuccess)
	return resp, nil
}

func (s *service) handle(ctx context.Context, req Request) (*Response, error) {
	req.normalize()
	if err := s.validate(req); err != nil {
		return nil, err
	}
	ctx = s.logg.WithEmail(ctx, req.Email)

	questions := taxonomy.Split(req.Message)
	if len(questions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message contains no question")
	}

	exchanges, err := s.answerAll(ctx, questions)
	if err != nil {
		s.logg.Error(ctx, "chat answer generation failed", err)
		return nil, err
	}

	var sessionID int64
	err = s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := conversations.NewRepository(tx)
		now := s.now()
		user, err := repo.ResolveUser(ctx, req.Email, req.profile(), now)
		if err != nil {
			return db.Storage(err, "resolve user")
		}
		session, err := repo.ResolveOpenSession(ctx, user.ID, s.defaultTopic, now)
		if err != nil {
			return db.Storage(err, "resolve open session")
		}
		sessionID = session.ID
		for i := range exchanges {
			pair, err := repo.RecordExchange(ctx, user.ID, session.ID, exchanges[i].Question, exchanges[i].Answer, exchanges[i].Category, now)
			if err != nil {
				return db.Storage(err, "record exchange")
			}
			exchanges[i].ID = pair.ID
		}
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "chat persistence failed", err)
		return nil, err
	}

	for _, ex := range exchanges {
		s.metrics.IncRecorded(string(ex.Category))
	}
	ctx = s.logg.WithSessionID(ctx, sessionID)
	s.logg.Info(ctx, fmt.Sprintf("recorded %d exchanges", len(exchanges)))

	return &Response{
		Status:    StatusSuccess,
		Response:  Combine(exchanges),
		SessionID: sessionID,
		QAPairs:   exchanges,
	}, nil
}

// answerAll classifies each question and generates its answer. Calls run
// concurrently, bounded by the gateway's worker pool; the first failure
// cancels the rest. Results keep the order of questions.
func (s *service) answerAll(ctx context.Context, questions []string) ([]Exchange, error) {
	out := make([]Exchange, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range questions {
		i, q := i, q
		out[i] = Exchange{Question: q, Category: taxonomy.Classify(q)}
		g.Go(func() error {
			answer, err := s.answerer.GenerateAnswer(gctx, q)
			if err != nil {
				return err
			}
			out[i].Answer = answer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) validate(req Request) error {
	if req.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if utf8.RuneCountInString(req.Message) > s.maxLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("message exceeds %d characters", s.maxLength))
	}
	if req.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !strings.Contains(req.Email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	return nil
}

// Combine renders exchanges as one text block, one paragraph per question.
func Combine(exchanges []Exchange) string {
	parts := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		parts = append(parts, fmt.Sprintf("Category: %s\nQ: %s\nA: %s", strings.ToUpper(string(ex.Category)), ex.Question, ex.Answer))
	}
	return strings.Join(parts, "\n\n")
}

// Exchange is one answered question of a chat request.
type Exchange struct {
	ID       int64             `json:"id"`
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Category enums.TaxCategory `json:"category"`
}
