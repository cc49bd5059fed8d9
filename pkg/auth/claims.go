package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Email  string
	UserID int64
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. The subject
// carries the account email.
type AccessTokenClaims struct {
	UserID int64 `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Email returns the subject of the token.
func (c *AccessTokenClaims) Email() string {
	return c.Subject
}
