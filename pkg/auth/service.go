package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultSessionTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidCredentials is returned for a bad email/password pair.
	// Unknown email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken is returned when signing up with an existing email
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrSessionInvalid is returned for unknown, expired, or revoked sessions
	ErrSessionInvalid = errors.New("auth: session invalid")
)

// Service manages users and sessions on top of the relational store
type Service struct {
	db         *sql.DB
	sessionTTL time.Duration
}

// NewService creates an auth service. A zero sessionTTL selects the
// 30-day default.
func NewService(db *sql.DB, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Service{db: db, sessionTTL: sessionTTL}
}

// SignUp registers a new user
func (s *Service) SignUp(ctx context.Context, email, displayName, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:       email,
		DisplayName: displayName,
		IsActive:    true,
	}

	query := `
		INSERT INTO users (email, display_name, password_hash, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query, email, displayName, hash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// SignIn verifies credentials and issues a session, returning the opaque
// bearer token exactly once
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	query := `
		SELECT id, email, password_hash, is_active
		FROM users
		WHERE email = $1
	`
	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive)
	if err == sql.ErrNoRows {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, tokenHash, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}

	session := &Session{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}

	query = `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err = s.db.QueryRowContext(ctx, query, session.UserID, session.TokenHash, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	_, _ = s.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, user.ID)

	return session, token, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	var skillLevel sql.NullString
	var lastLoginAt sql.NullTime
	query := `
		SELECT id, email, display_name, skill_level, is_active, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &skillLevel,
		&user.IsActive, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if skillLevel.Valid {
		user.SkillLevel = skillLevel.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	return &user, nil
}

// ValidateToken resolves a presented bearer token to its principal
func (s *Service) ValidateToken(ctx context.Context, token string) (*AuthContext, error) {
	if err := ValidateTokenFormat(token); err != nil {
		return nil, ErrSessionInvalid
	}

	var (
		session Session
		user    User
	)
	query := `
		SELECT s.id, s.user_id, s.expires_at, s.revoked_at, s.created_at,
		       u.id, u.email, u.display_name, u.is_active, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1
	`
	var displayName sql.NullString
	err := s.db.QueryRowContext(ctx, query, HashToken(token)).Scan(
		&session.ID, &session.UserID, &session.ExpiresAt, &session.RevokedAt, &session.CreatedAt,
		&user.ID, &user.Email, &displayName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if session.Expired(time.Now()) || !user.IsActive {
		return nil, ErrSessionInvalid
	}
	if displayName.Valid {
		user.DisplayName = displayName.String
	}

	return &AuthContext{User: &user, Session: &session}, nil
}

// SignOut revokes the session behind a token. Revoking an unknown token
// is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := ValidateTokenFormat(token); err != nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL`,
		HashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes sessions past their expiry
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}
