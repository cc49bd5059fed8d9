package qa

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Storage is the scoped connection surface of *db.Client.
type Storage interface {
	Acquire(ctx context.Context, fn func(conn *gorm.DB) error) error
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Cache stores rendered stats between requests. Optional.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service answers stats, search, history, and feedback requests.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Search(ctx context.Context, filter SearchFilter, page pagination.Page) (*SearchResult, error)
	History(ctx context.Context, email string) ([]HistoryItem, error)
	SubmitFeedback(ctx context.Context, qaID int64, input FeedbackInput) (*FeedbackResult, error)
}

type ServiceParams struct {
	Storage  Storage
	Cache    Cache
	CacheTTL time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	storage  Storage
	cache    Cache
	cacheTTL time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "qa storage required")
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		storage:  p.Storage,
		cache:    p.Cache,
		cacheTTL: p.CacheTTL,
		logg:     p.Logger,
		now:      now,
	}, nil
}

func (s *service) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

// Stats aggregates the whole QA table. When a cache is configured the result
// is served from it until the TTL expires; cache faults fall through to the
// database.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var key string
	if s.cacheEnabled() {
		key = s.cache.CacheKey("qa", "stats")
		var cached Stats
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.warn(ctx, "stats cache read failed: "+err.Error())
		} else if hit {
			return &cached, nil
		}
	}

	stats := &Stats{
		CategoryBreakdown: []CategoryCount{},
		Last7DaysActivity: []DailyActivity{},
		CommonQueries:     []CommonQuery{},
	}
	now := s.now()
	err := s.storage.Acquire(ctx, func(conn *gorm.DB) error {
		repo := NewRepository(conn)
		var err error
		if stats.Total, err = repo.CountAll(ctx); err != nil {
			return db.Storage(err, "count qa pairs")
		}
		if stats.HelpfulCount, err = repo.CountHelpful(ctx); err != nil {
			return db.Storage(err, "count helpful qa pairs")
		}
		counts, err := repo.CategoryCounts(ctx)
		if err != nil {
			return db.Storage(err, "count qa categories")
		}
		stats.CategoryBreakdown = orderBreakdown(counts)

		recent, err := repo.CreatedSince(ctx, now.Add(-activityWindow))
		if err != nil {
			return db.Storage(err, "load recent qa activity")
		}
		stats.Last7DaysActivity = bucketActivity(recent)

		common, err := repo.CommonQueries(ctx)
		if err != nil {
			return db.Storage(err, "load common queries")
		}
		if common != nil {
			stats.CommonQueries = common
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.HelpfulPercentage = helpfulPercentage(stats.HelpfulCount, stats.Total)

	if s.cacheEnabled() {
		if err := s.cache.SetJSON(ctx, key, stats, s.cacheTTL); err != nil {
			s.warn(ctx, "stats cache write failed: "+err.Error())
		}
	}
	return stats, nil
}

func (s *service) Search(ctx context.Context, filter SearchFilter, page pagination.Page) (*SearchResult, error) {
	if err := page.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if filter.Category != nil && !filter.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}

	out := &SearchResult{Page: page.Number, PageSize: page.Size, Results: []SearchItem{}}
	err := s.storage.Acquire(ctx, func(conn *gorm.DB) error {
		total, items, err := NewRepository(conn).Search(ctx, filter, page)
		if err != nil {
			return db.Storage(err, "search qa pairs")
		}
		out.Total = total
		out.Results = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.TotalPages = pagination.TotalPages(out.Total, page.Size)
	return out, nil
}

// History returns the user's exchanges newest first. An unknown email yields
// an empty history.
func (s *service) History(ctx context.Context, email string) ([]HistoryItem, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	var out []HistoryItem
	err := s.storage.Acquire(ctx, func(conn *gorm.DB) error {
		items, err := NewRepository(conn).History(ctx, email)
		if err != nil {
			return db.Storage(err, "load chat history")
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitFeedback records a helpfulness vote and/or a rating. The QA row is
// updated (last write wins) and a rating is mirrored into the feedback table.
func (s *service) SubmitFeedback(ctx context.Context, qaID int64, input FeedbackInput) (*FeedbackResult, error) {
	if err := validateFeedback(qaID, input); err != nil {
		return nil, err
	}
	suggestion := trimmedOrNil(input.Suggestion)

	var out *FeedbackResult
	err := s.storage.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		pair, err := repo.FindQA(ctx, qaID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Q&A pair not found")
			}
			return db.Storage(err, "load qa pair")
		}

		updates := map[string]any{}
		if input.IsHelpful != nil {
			updates["is_helpful"] = *input.IsHelpful
			pair.IsHelpful = input.IsHelpful
		}
		if input.Rating != nil {
			updates["rating"] = *input.Rating
			updates["suggestion"] = suggestion
			pair.Rating = input.Rating
			pair.Suggestion = suggestion
		}
		if _, err := repo.UpdateFeedbackColumns(ctx, pair.ID, updates); err != nil {
			return db.Storage(err, "update qa feedback")
		}
		if input.Rating != nil {
			fb := &models.Feedback{
				ChatID:     pair.ID,
				Rating:     *input.Rating,
				Suggestion: suggestion,
				CreatedAt:  s.now(),
			}
			if err := repo.UpsertFeedback(ctx, fb); err != nil {
				return db.Storage(err, "upsert feedback")
			}
		}

		out = &FeedbackResult{
			QAID:       pair.ID,
			IsHelpful:  pair.IsHelpful,
			Rating:     pair.Rating,
			Suggestion: pair.Suggestion,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateFeedback(qaID int64, input FeedbackInput) error {
	if qaID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qa id must be positive")
	}
	if input.IsHelpful == nil && input.Rating == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "is_helpful or rating is required")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Rating == nil && trimmedOrNil(input.Suggestion) != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "suggestion requires a rating")
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func (s *service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
