package auth

import "time"

// User represents a registered account
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name,omitempty"`
	PasswordHash string     `json:"-"`
	SkillLevel   string     `json:"skill_level,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Session represents an issued bearer session
type Session struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Expired reports whether the session is past its expiry or revoked
func (s *Session) Expired(now time.Time) bool {
	return s.RevokedAt != nil || now.After(s.ExpiresAt)
}

// AuthContext holds the authenticated principal for a request. A nil
// AuthContext (or nil User) means the request is unauthenticated; the
// authorization layer treats that as having no role anywhere.
type AuthContext struct {
	User    *User
	Session *Session
}
