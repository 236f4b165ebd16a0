package clubs

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					display_name VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					skill_level VARCHAR(50),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					last_login_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_users_email ON users(email);
			`,
		},
		{
			Version:     2,
			Description: "Create sessions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS sessions (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					expires_at TIMESTAMP NOT NULL,
					revoked_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_sessions_user_id ON sessions(user_id);
				CREATE INDEX idx_sessions_token_hash ON sessions(token_hash);
				CREATE INDEX idx_sessions_expires_at ON sessions(expires_at);
			`,
		},
		{
			Version:     3,
			Description: "Create clubs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS clubs (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					slug VARCHAR(255) NOT NULL UNIQUE,
					description TEXT NOT NULL DEFAULT '',
					location VARCHAR(255) NOT NULL DEFAULT '',
					owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
					status VARCHAR(50) NOT NULL DEFAULT 'active',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					max_members INT NOT NULL DEFAULT 200,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_clubs_slug ON clubs(slug);
				CREATE INDEX idx_clubs_owner_id ON clubs(owner_id);
			`,
		},
		{
			Version:     4,
			Description: "Create club_memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS club_memberships (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role VARCHAR(50) NOT NULL,
					status VARCHAR(50) NOT NULL DEFAULT 'active',
					invited_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(club_id, user_id)
				);

				CREATE INDEX idx_club_memberships_club_id ON club_memberships(club_id);
				CREATE INDEX idx_club_memberships_user_id ON club_memberships(user_id);
			`,
		},
		{
			Version:     5,
			Description: "Create club_invitations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS club_invitations (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					email VARCHAR(255) NOT NULL,
					role VARCHAR(50) NOT NULL DEFAULT 'member',
					token VARCHAR(64) NOT NULL UNIQUE,
					invited_by BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					invited_at TIMESTAMP NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMP NOT NULL,
					accepted_at TIMESTAMP,
					accepted_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					UNIQUE(club_id, email)
				);

				CREATE INDEX idx_club_invitations_token ON club_invitations(token);
				CREATE INDEX idx_club_invitations_club_id ON club_invitations(club_id);
				CREATE INDEX idx_club_invitations_expires_at ON club_invitations(expires_at);
			`,
		},
		{
			Version:     6,
			Description: "Create audit_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id BIGSERIAL PRIMARY KEY,
					event_type VARCHAR(100) NOT NULL,
					actor_id BIGINT,
					club_id BIGINT,
					target_user_id BIGINT,
					decision VARCHAR(20),
					permission VARCHAR(100),
					detail JSONB NOT NULL DEFAULT '{}',
					request_id VARCHAR(64),
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_audit_logs_event_type ON audit_logs(event_type);
				CREATE INDEX idx_audit_logs_club_id ON audit_logs(club_id);
				CREATE INDEX idx_audit_logs_actor_id ON audit_logs(actor_id);
				CREATE INDEX idx_audit_logs_created_at ON audit_logs(created_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS clubhouse_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM clubhouse_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO clubhouse_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
