package chat

import (
	"strings"

	"github.com/angelmondragon/taxchat-backend/internal/conversations"
)

// Request is an inbound chat message. Profile fields are only used when the
// email is new.
type Request struct {
	Message string
	Email   string
	Name    string
	Phone   *string
	Country *string
	State   *string
}

type Response struct {
	Status    string     `json:"status"`
	Response  string     `json:"response"`
	SessionID int64      `json:"session_id"`
	QAPairs   []Exchange `json:"qa_pairs"`
}

func (r *Request) normalize() {
	r.Message = strings.TrimSpace(r.Message)
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = trimmedOrNil(r.Phone)
	r.Country = trimmedOrNil(r.Country)
	r.State = trimmedOrNil(r.State)
}

// profile falls back to the local part of the email when no name was sent.
func (r Request) profile() conversations.Profile {
	name := r.Name
	if name == "" {
		name, _, _ = strings.Cut(r.Email, "@")
	}
	return conversations.Profile{
		Name:    name,
		Phone:   r.Phone,
		Country: r.Country,
		State:   r.State,
	}
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
