package users

import (
	"context"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile overwrites the editable profile columns and the password hash.
func (r *Repository) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":          user.Name,
			"phone":         user.Phone,
			"country":       user.Country,
			"state":         user.State,
			"password_hash": user.PasswordHash,
			"last_active":   user.LastActive,
		}).Error
}

// TouchLastActive refreshes the user's last_active timestamp.
func (r *Repository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active", at).Error
}

type qaCounts struct {
	Total   int64 `gorm:"column:total"`
	Helpful int64 `gorm:"column:helpful"`
}

// QACounts returns how many QA pairs the user has and how many were marked helpful.
func (r *Repository) QACounts(ctx context.Context, userID int64) (total, helpful int64, err error) {
	var row qaCounts
	err = r.db.WithContext(ctx).
		Model(&models.QAPair{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_helpful = ? THEN 1 ELSE 0 END), 0) AS helpful", true).
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Total, row.Helpful, err
}
