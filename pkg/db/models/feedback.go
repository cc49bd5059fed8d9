package models

import "time"

// Feedback is the optional 1:1 rating companion of a QA pair.
type Feedback struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChatID     int64     `gorm:"column:chat_id;not null;uniqueIndex"`
	Rating     int       `gorm:"column:rating;not null"`
	Suggestion *string   `gorm:"column:suggestion"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Feedback) TableName() string { return "feedback" }
