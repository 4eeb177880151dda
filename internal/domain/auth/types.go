// Package auth contains domain-level types for authentication, sessions and
// profile access decisions. It is pure and free of framework/adapter concerns.
package auth

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and logging.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
	RoleGuest  Role = "guest"
)

// Method identifies how a credential was established.
type Method string

const (
	MethodEmail  Method = "email"
	MethodGoogle Method = "google"
)

// Identity represents the authenticated principal returned by the credential store.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID        string // credential store uid, primary key of the driver profile
	Email         string
	EmailVerified bool
	DisplayName   string
	Method        Method
	ExpiresAt     time.Time // absolute expiry of the token this identity came from
}

// Session is the verified content of the session cookie.
// Token is the opaque session token as issued by the credential store.
type Session struct {
	Token         string    `json:"-"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Role          Role      `json:"role"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsGuest returns true if the session is absent or carries the guest role.
func (s *Session) IsGuest() bool { return s == nil || s.UserID == "" || s.Role == RoleGuest }

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NewSession builds a session from a verified identity.
func NewSession(token string, id Identity, role Role) Session {
	return Session{
		Token:         token,
		UserID:        id.UserID,
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		Role:          role,
		ExpiresAt:     id.ExpiresAt,
	}
}
