package models

import "time"

// ChatSession groups QA pairs. A nil EndTime marks the session open.
type ChatSession struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64      `gorm:"column:user_id;not null"`
	StartTime time.Time  `gorm:"column:start_time;not null"`
	EndTime   *time.Time `gorm:"column:end_time"`
	Topic     string     `gorm:"column:topic;not null"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

func (s ChatSession) IsOpen() bool {
	return s.EndTime == nil
}
