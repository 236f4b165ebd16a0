package clubs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/courtside/clubhouse/pkg/rbac"
)

const defaultMaxMembers = 200

// PostgresService implements the Service interface using PostgreSQL.
// It is also the rbac.RoleSource consumed by the authorization checker.
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// CreateClub creates a new club and enrolls the owner as its first member
func (s *PostgresService) CreateClub(club *Club) error {
	if club.Slug == "" {
		club.Slug = generateSlug(club.Name)
	}
	if club.Status == "" {
		club.Status = ClubStatusActive
	}
	if club.MaxMembers == 0 {
		club.MaxMembers = defaultMaxMembers
	}
	club.IsActive = true

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO clubs (name, slug, description, location, owner_id, status, is_active, max_members)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(query, club.Name, club.Slug, club.Description, club.Location,
		club.OwnerID, club.Status, club.IsActive, club.MaxMembers).
		Scan(&club.ID, &club.CreatedAt, &club.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("club slug %q already taken", club.Slug)
		}
		return fmt.Errorf("failed to create club: %w", err)
	}

	// The creator always starts as owner with an active membership.
	query = `
		INSERT INTO club_memberships (club_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(query, club.ID, club.OwnerID, rbac.RoleOwner, rbac.StatusActive); err != nil {
		return fmt.Errorf("failed to enroll owner: %w", err)
	}

	return tx.Commit()
}

// GetClub retrieves a club by ID
func (s *PostgresService) GetClub(id int64) (*Club, error) {
	query := `
		SELECT id, name, slug, description, location, owner_id, status, is_active,
		       max_members, created_at, updated_at
		FROM clubs
		WHERE id = $1
	`
	club := &Club{}
	err := s.db.QueryRow(query, id).Scan(
		&club.ID, &club.Name, &club.Slug, &club.Description, &club.Location,
		&club.OwnerID, &club.Status, &club.IsActive, &club.MaxMembers,
		&club.CreatedAt, &club.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}

	return club, nil
}

// GetClubBySlug retrieves a club by slug
func (s *PostgresService) GetClubBySlug(slug string) (*Club, error) {
	query := `
		SELECT id, name, slug, description, location, owner_id, status, is_active,
		       max_members, created_at, updated_at
		FROM clubs
		WHERE slug = $1
	`
	club := &Club{}
	err := s.db.QueryRow(query, slug).Scan(
		&club.ID, &club.Name, &club.Slug, &club.Description, &club.Location,
		&club.OwnerID, &club.Status, &club.IsActive, &club.MaxMembers,
		&club.CreatedAt, &club.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}

	return club, nil
}

// ListClubs lists active clubs the user belongs to
func (s *PostgresService) ListClubs(userID int64) ([]*Club, error) {
	query := `
		SELECT DISTINCT c.id, c.name, c.slug, c.description, c.location, c.owner_id,
		       c.status, c.is_active, c.max_members, c.created_at, c.updated_at
		FROM clubs c
		JOIN club_memberships m ON c.id = m.club_id
		WHERE m.user_id = $1 AND c.is_active = true
		ORDER BY c.created_at DESC
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	var out []*Club
	for rows.Next() {
		club := &Club{}
		if err := rows.Scan(
			&club.ID, &club.Name, &club.Slug, &club.Description, &club.Location,
			&club.OwnerID, &club.Status, &club.IsActive, &club.MaxMembers,
			&club.CreatedAt, &club.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		out = append(out, club)
	}

	return out, rows.Err()
}

// UpdateClub updates a club's mutable fields
func (s *PostgresService) UpdateClub(id int64, updates *UpdateClubRequest) error {
	setClauses := []string{}
	args := []interface{}{}
	argPos := 1

	if updates.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *updates.Name)
		argPos++
	}
	if updates.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *updates.Description)
		argPos++
	}
	if updates.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", argPos))
		args = append(args, *updates.Location)
		argPos++
	}
	if updates.MaxMembers != nil {
		setClauses = append(setClauses, fmt.Sprintf("max_members = $%d", argPos))
		args = append(args, *updates.MaxMembers)
		argPos++
	}

	if len(setClauses) == 0 {
		return nil // Nothing to update
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE clubs SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrClubNotFound
	}

	return nil
}

// DeleteClub soft deletes a club
func (s *PostgresService) DeleteClub(id int64) error {
	query := `UPDATE clubs SET status = $1, is_active = false, updated_at = NOW() WHERE id = $2`
	result, err := s.db.Exec(query, ClubStatusDeleted, id)
	if err != nil {
		return fmt.Errorf("failed to delete club: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrClubNotFound
	}

	return nil
}

// GetMemberRole looks up a user's role and membership status in a club.
// It satisfies rbac.RoleSource: a missing membership maps to
// rbac.ErrNoMembership so the checker can distinguish absence from
// infrastructure failure.
func (s *PostgresService) GetMemberRole(ctx context.Context, clubID, userID int64) (rbac.RoleGrant, error) {
	query := `
		SELECT role, status
		FROM club_memberships
		WHERE club_id = $1 AND user_id = $2
	`
	var grant rbac.RoleGrant
	err := s.db.QueryRowContext(ctx, query, clubID, userID).Scan(&grant.Role, &grant.Status)
	if err == sql.ErrNoRows {
		return rbac.RoleGrant{}, rbac.ErrNoMembership
	}
	if err != nil {
		return rbac.RoleGrant{}, fmt.Errorf("failed to get member role: %w", err)
	}

	return grant, nil
}

// generateSlug derives a URL-safe slug from a club name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)
	return slug
}
