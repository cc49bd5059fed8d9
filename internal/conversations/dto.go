package conversations

import (
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	"github.com/angelmondragon/taxchat-backend/pkg/enums"
)

// Profile carries the fields used when a chat creates a new user.
type Profile struct {
	Name    string
	Phone   *string
	Country *string
	State   *string
}

// SessionSummary is a session row joined with its QA count.
type SessionSummary struct {
	ID           int64      `gorm:"column:id"`
	UserID       int64      `gorm:"column:user_id"`
	StartTime    time.Time  `gorm:"column:start_time"`
	EndTime      *time.Time `gorm:"column:end_time"`
	Topic        string     `gorm:"column:topic"`
	MessageCount int64      `gorm:"column:message_count"`
}

// SessionDTO is the transport shape of a session.
type SessionDTO struct {
	ID           int64      `json:"id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Topic        string     `json:"topic"`
	IsOpen       bool       `json:"is_open"`
	MessageCount int64      `json:"message_count"`
	Messages     []QADTO    `json:"messages,omitempty"`
}

// QADTO is the transport shape of a QA pair.
type QADTO struct {
	ID         int64             `json:"id"`
	SessionID  int64             `json:"session_id"`
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Category   enums.TaxCategory `json:"category"`
	IsHelpful  *bool             `json:"is_helpful"`
	Rating     *int              `json:"rating,omitempty"`
	Suggestion *string           `json:"suggestion,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func SessionFromModel(s *models.ChatSession) SessionDTO {
	return SessionDTO{
		ID:        s.ID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Topic:     s.Topic,
		IsOpen:    s.IsOpen(),
	}
}

func SessionFromSummary(s SessionSummary) SessionDTO {
	return SessionDTO{
		ID:           s.ID,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Topic:        s.Topic,
		IsOpen:       s.EndTime == nil,
		MessageCount: s.MessageCount,
	}
}

func QAFromModel(q models.QAPair) QADTO {
	return QADTO{
		ID:         q.ID,
		SessionID:  q.SessionID,
		Question:   q.Question,
		Answer:     q.Answer,
		Category:   q.Category,
		IsHelpful:  q.IsHelpful,
		Rating:     q.Rating,
		Suggestion: q.Suggestion,
		CreatedAt:  q.CreatedAt,
	}
}
