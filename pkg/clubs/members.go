package clubs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/clubhouse/pkg/rbac"
)

const invitationTTL = 7 * 24 * time.Hour

// ListMembers retrieves all members of a club with user details
func (s *PostgresService) ListMembers(clubID int64) ([]*Member, error) {
	query := `
		SELECT m.id, m.club_id, m.user_id, m.role, m.status, m.invited_by,
		       m.joined_at, m.expires_at, m.created_at,
		       u.email, u.display_name, u.skill_level
		FROM club_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := s.db.Query(query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		var skillLevel sql.NullString
		if err := rows.Scan(
			&member.ID, &member.ClubID, &member.UserID, &member.Role, &member.Status,
			&member.InvitedBy, &member.JoinedAt, &member.ExpiresAt, &member.CreatedAt,
			&member.Email, &member.DisplayName, &skillLevel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if skillLevel.Valid {
			member.SkillLevel = skillLevel.String
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// GetMember retrieves a specific member
func (s *PostgresService) GetMember(clubID, userID int64) (*Member, error) {
	query := `
		SELECT m.id, m.club_id, m.user_id, m.role, m.status, m.invited_by,
		       m.joined_at, m.expires_at, m.created_at,
		       u.email, u.display_name, u.skill_level
		FROM club_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = $1 AND m.user_id = $2
	`
	member := &Member{}
	var skillLevel sql.NullString
	err := s.db.QueryRow(query, clubID, userID).Scan(
		&member.ID, &member.ClubID, &member.UserID, &member.Role, &member.Status,
		&member.InvitedBy, &member.JoinedAt, &member.ExpiresAt, &member.CreatedAt,
		&member.Email, &member.DisplayName, &skillLevel,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	if skillLevel.Valid {
		member.SkillLevel = skillLevel.String
	}

	return member, nil
}

// AddMember adds a user to a club with an active membership
func (s *PostgresService) AddMember(clubID, userID int64, role rbac.Role, invitedBy *int64) error {
	query := `
		INSERT INTO club_memberships (club_id, user_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (club_id, user_id) DO NOTHING
	`
	result, err := s.db.Exec(query, clubID, userID, role, rbac.StatusActive, invitedBy)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberExists
	}

	return nil
}

// UpdateMemberRole changes a member's role
func (s *PostgresService) UpdateMemberRole(clubID, userID int64, role rbac.Role) error {
	query := `UPDATE club_memberships SET role = $1 WHERE club_id = $2 AND user_id = $3`
	result, err := s.db.Exec(query, role, clubID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// UpdateMemberStatus changes a member's membership status
func (s *PostgresService) UpdateMemberStatus(clubID, userID int64, status rbac.MembershipStatus) error {
	query := `UPDATE club_memberships SET status = $1 WHERE club_id = $2 AND user_id = $3`
	result, err := s.db.Exec(query, status, clubID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// RemoveMember removes a user from a club
func (s *PostgresService) RemoveMember(clubID, userID int64) error {
	query := `DELETE FROM club_memberships WHERE club_id = $1 AND user_id = $2`
	result, err := s.db.Exec(query, clubID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// CreateInvitation creates (or refreshes) an invitation for an email address
func (s *PostgresService) CreateInvitation(invitation *Invitation) error {
	invitation.Token = uuid.NewString()

	if invitation.Role == "" {
		invitation.Role = rbac.RoleMember
	}
	if invitation.InvitedAt.IsZero() {
		invitation.InvitedAt = time.Now()
	}
	if invitation.ExpiresAt.IsZero() {
		invitation.ExpiresAt = invitation.InvitedAt.Add(invitationTTL)
	}

	query := `
		INSERT INTO club_invitations (club_id, email, role, token, invited_by, invited_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (club_id, email) DO UPDATE
		SET role = EXCLUDED.role, token = EXCLUDED.token,
		    invited_at = EXCLUDED.invited_at, expires_at = EXCLUDED.expires_at
		RETURNING id
	`
	err := s.db.QueryRow(query, invitation.ClubID, invitation.Email, invitation.Role,
		invitation.Token, invitation.InvitedBy, invitation.InvitedAt, invitation.ExpiresAt).
		Scan(&invitation.ID)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetInvitation retrieves an invitation by token
func (s *PostgresService) GetInvitation(token string) (*Invitation, error) {
	query := `
		SELECT id, club_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM club_invitations
		WHERE token = $1
	`
	invitation := &Invitation{}
	err := s.db.QueryRow(query, token).Scan(
		&invitation.ID, &invitation.ClubID, &invitation.Email, &invitation.Role,
		&invitation.Token, &invitation.InvitedBy, &invitation.InvitedAt, &invitation.ExpiresAt,
		&invitation.AcceptedAt, &invitation.AcceptedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return invitation, nil
}

// ListInvitations lists pending invitations for a club
func (s *PostgresService) ListInvitations(clubID int64) ([]*Invitation, error) {
	query := `
		SELECT id, club_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM club_invitations
		WHERE club_id = $1 AND accepted_at IS NULL
		ORDER BY invited_at DESC
	`
	rows, err := s.db.Query(query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		invitation := &Invitation{}
		if err := rows.Scan(
			&invitation.ID, &invitation.ClubID, &invitation.Email, &invitation.Role,
			&invitation.Token, &invitation.InvitedBy, &invitation.InvitedAt, &invitation.ExpiresAt,
			&invitation.AcceptedAt, &invitation.AcceptedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, invitation)
	}

	return invitations, rows.Err()
}

// AcceptInvitation accepts an invitation and enrolls the user in the club
func (s *PostgresService) AcceptInvitation(token string, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, club_id, role, expires_at, accepted_at
		FROM club_invitations
		WHERE token = $1
		FOR UPDATE
	`
	var id, clubID int64
	var role rbac.Role
	var expiresAt time.Time
	var acceptedAt sql.NullTime

	err = tx.QueryRow(query, token).Scan(&id, &clubID, &role, &expiresAt, &acceptedAt)
	if err == sql.ErrNoRows {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		return ErrInvitationAccepted
	}
	if time.Now().After(expiresAt) {
		return ErrInvitationExpired
	}

	query = `
		INSERT INTO club_memberships (club_id, user_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, (SELECT invited_by FROM club_invitations WHERE id = $5))
		ON CONFLICT (club_id, user_id) DO NOTHING
	`
	if _, err := tx.Exec(query, clubID, userID, role, rbac.StatusActive, id); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	query = `UPDATE club_invitations SET accepted_at = NOW(), accepted_by = $1 WHERE id = $2`
	if _, err := tx.Exec(query, userID, id); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	return tx.Commit()
}

// RevokeInvitation deletes a pending invitation
func (s *PostgresService) RevokeInvitation(clubID, id int64) error {
	query := `DELETE FROM club_invitations WHERE id = $1 AND club_id = $2 AND accepted_at IS NULL`
	result, err := s.db.Exec(query, id, clubID)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInvitationNotFound
	}

	return nil
}

// CleanupExpiredInvitations removes expired, unaccepted invitations and
// reports how many were deleted
func (s *PostgresService) CleanupExpiredInvitations() (int64, error) {
	query := `DELETE FROM club_invitations WHERE expires_at < NOW() AND accepted_at IS NULL`
	result, err := s.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired invitations: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
