package qa

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"github.com/angelmondragon/taxchat-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const commonQueriesLimit = 10

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository runs the aggregate and lookup queries over qa_pairs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ActivityRow is the minimal projection needed to bucket recent activity.
type ActivityRow struct {
	Category  enums.TaxCategory `gorm:"column:category"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.QAPair{}).Count(&total).Error
	return total, err
}

func (r *Repository) CountHelpful(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.QAPair{}).Where("is_helpful = ?", true).Count(&total).Error
	return total, err
}

// CategoryCounts returns the per-category totals in no particular order.
func (r *Repository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.QAPair{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	return rows, err
}

// CreatedSince returns category and creation time for rows created at or after since.
func (r *Repository) CreatedSince(ctx context.Context, since time.Time) ([]ActivityRow, error) {
	var rows []ActivityRow
	err := r.db.WithContext(ctx).
		Model(&models.QAPair{}).
		Select("category, created_at").
		Where("created_at >= ?", since.UTC()).
		Scan(&rows).Error
	return rows, err
}

// CommonQueries returns questions asked more than once, most frequent first.
func (r *Repository) CommonQueries(ctx context.Context) ([]CommonQuery, error) {
	var rows []CommonQuery
	err := r.db.WithContext(ctx).
		Model(&models.QAPair{}).
		Select("category, question, COUNT(*) AS frequency").
		Group("category, question").
		Having("COUNT(*) > 1").
		Order("frequency DESC").
		Order("question ASC").
		Limit(commonQueriesLimit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) filtered(ctx context.Context, f SearchFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.QAPair{})
	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		q = q.Where(`(LOWER(qa_pairs.question) LIKE ? ESCAPE '\' OR LOWER(qa_pairs.answer) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.Category != nil {
		q = q.Where("qa_pairs.category = ?", *f.Category)
	}
	if f.Helpful != nil {
		q = q.Where("qa_pairs.is_helpful = ?", *f.Helpful)
	}
	return q
}

// Search counts every row matching f and loads the requested page, newest first.
func (r *Repository) Search(ctx context.Context, f SearchFilter, page pagination.Page) (int64, []SearchItem, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := []SearchItem{}
	if total == 0 || page.Offset() >= int(total) {
		return total, items, nil
	}
	err := r.filtered(ctx, f).
		Select("qa_pairs.id, qa_pairs.question, qa_pairs.answer, qa_pairs.category, qa_pairs.is_helpful, qa_pairs.created_at, users.email AS user_email").
		Joins("JOIN users ON users.id = qa_pairs.user_id").
		Order("qa_pairs.created_at DESC").
		Order("qa_pairs.id DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// History lists every exchange of the user with email, newest first.
func (r *Repository) History(ctx context.Context, email string) ([]HistoryItem, error) {
	items := []HistoryItem{}
	err := r.db.WithContext(ctx).
		Model(&models.QAPair{}).
		Select("qa_pairs.id, qa_pairs.question, qa_pairs.answer, qa_pairs.created_at, qa_pairs.category, qa_pairs.is_helpful").
		Joins("JOIN users ON users.id = qa_pairs.user_id").
		Where("users.email = ?", email).
		Order("qa_pairs.created_at DESC").
		Order("qa_pairs.id DESC").
		Scan(&items).Error
	return items, err
}

func (r *Repository) FindQA(ctx context.Context, id int64) (*models.QAPair, error) {
	var pair models.QAPair
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pair).Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

// UpdateFeedbackColumns writes the non-empty fields of updates onto the QA row.
func (r *Repository) UpdateFeedbackColumns(ctx context.Context, id int64, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.QAPair{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// UpsertFeedback inserts or replaces the rating row of a QA pair.
func (r *Repository) UpsertFeedback(ctx context.Context, fb *models.Feedback) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "suggestion"}),
		}).
		Create(fb).Error
}
