package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents the decoded identity claim carried by a session token
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Expires() time.Time
	IssuedAt() time.Time
}

// SessionClaims is the concrete claim payload signed into session tokens.
// The custom fields mirror the wire contract the identity cache expects:
// a user id and the email at issuance time.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid,omitempty"`
	AccountEmail string `json:"email,omitempty"`
}

var _ AuthClaims = (*SessionClaims)(nil)

// Subject returns the subject claim
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email the token was issued for
func (c *SessionClaims) Email() string {
	return c.AccountEmail
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
