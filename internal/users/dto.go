package users

import (
	"time"

	"github.com/angelmondragon/taxchat-backend/internal/conversations"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      *string   `json:"phone"`
	Country    *string   `json:"country"`
	State      *string   `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// AuthenticatedUser is a profile together with a freshly minted bearer token.
type AuthenticatedUser struct {
	UserDTO
	AccessToken string `json:"access_token"`
}

// ProfileInput is a full profile submission. Password and a phone with at
// least ten digits are required.
type ProfileInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Country  *string
	State    *string
}

type ChatStats struct {
	TotalChats       int64                      `json:"total_chats"`
	HelpfulResponses int64                      `json:"helpful_responses"`
	RecentSessions   []conversations.SessionDTO `json:"recent_sessions"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		Country:    u.Country,
		State:      u.State,
		CreatedAt:  u.CreatedAt,
		LastActive: u.LastActive,
	}
}
