package models

import (
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
)

// QAPair is one answered question.
type QAPair struct {
	ID         int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64             `gorm:"column:user_id;not null"`
	SessionID  int64             `gorm:"column:session_id;not null"`
	Question   string            `gorm:"column:question;not null"`
	Answer     string            `gorm:"column:answer;not null"`
	Category   enums.TaxCategory `gorm:"column:category;not null;default:general"`
	IsHelpful  *bool             `gorm:"column:is_helpful"`
	Rating     *int              `gorm:"column:rating"`
	Suggestion *string           `gorm:"column:suggestion"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (QAPair) TableName() string { return "qa_pairs" }
