package clubs

import (
	"errors"
	"time"

	"github.com/courtside/clubhouse/pkg/rbac"
)

// ClubStatus represents club lifecycle status
type ClubStatus string

const (
	ClubStatusActive   ClubStatus = "active"
	ClubStatusArchived ClubStatus = "archived"
	ClubStatusDeleted  ClubStatus = "deleted"
)

// Sentinel errors returned by the service so handlers can map them to
// HTTP status codes without string matching.
var (
	ErrClubNotFound       = errors.New("club not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrMemberExists       = errors.New("member already exists")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrInvitationAccepted = errors.New("invitation already accepted")
)

// Club represents a badminton club
type Club struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	OwnerID     int64      `json:"owner_id"`
	Status      ClubStatus `json:"status"`
	IsActive    bool       `json:"is_active"`
	MaxMembers  int        `json:"max_members"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Member represents a club member with user details joined in
type Member struct {
	ID        int64                 `json:"id"`
	ClubID    int64                 `json:"club_id"`
	UserID    int64                 `json:"user_id"`
	Role      rbac.Role             `json:"role"`
	Status    rbac.MembershipStatus `json:"status"`
	InvitedBy *int64                `json:"invited_by,omitempty"`
	JoinedAt  time.Time             `json:"joined_at"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
	CreatedAt time.Time             `json:"created_at"`

	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	SkillLevel  string `json:"skill_level,omitempty"`
}

// Invitation represents an invitation to join a club
type Invitation struct {
	ID         int64      `json:"id"`
	ClubID     int64      `json:"club_id"`
	Email      string     `json:"email"`
	Role       rbac.Role  `json:"role"`
	Token      string     `json:"token,omitempty"`
	InvitedBy  int64      `json:"invited_by"`
	InvitedAt  time.Time  `json:"invited_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy *int64     `json:"accepted_by,omitempty"`
}

// CreateClubRequest represents a request to create a club
type CreateClubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	MaxMembers  int    `json:"max_members,omitempty"`
}

// UpdateClubRequest represents a request to update a club
type UpdateClubRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	MaxMembers  *int    `json:"max_members,omitempty"`
}

// AddMemberRequest represents a request to add a member directly
type AddMemberRequest struct {
	UserID int64     `json:"user_id"`
	Role   rbac.Role `json:"role"`
}

// UpdateMemberRequest represents a request to change a member's role
type UpdateMemberRequest struct {
	Role rbac.Role `json:"role"`
}

// UpdateMemberStatusRequest represents a request to change a member's status
type UpdateMemberStatusRequest struct {
	Status rbac.MembershipStatus `json:"status"`
}

// InviteMemberRequest represents a request to invite a member by email
type InviteMemberRequest struct {
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

// Service defines the interface for club and membership management
type Service interface {
	// Club CRUD
	CreateClub(club *Club) error
	GetClub(id int64) (*Club, error)
	GetClubBySlug(slug string) (*Club, error)
	ListClubs(userID int64) ([]*Club, error)
	UpdateClub(id int64, updates *UpdateClubRequest) error
	DeleteClub(id int64) error

	// Member management
	ListMembers(clubID int64) ([]*Member, error)
	GetMember(clubID, userID int64) (*Member, error)
	AddMember(clubID, userID int64, role rbac.Role, invitedBy *int64) error
	UpdateMemberRole(clubID, userID int64, role rbac.Role) error
	UpdateMemberStatus(clubID, userID int64, status rbac.MembershipStatus) error
	RemoveMember(clubID, userID int64) error

	// Invitation management
	CreateInvitation(invitation *Invitation) error
	GetInvitation(token string) (*Invitation, error)
	ListInvitations(clubID int64) ([]*Invitation, error)
	AcceptInvitation(token string, userID int64) error
	RevokeInvitation(clubID, id int64) error
	CleanupExpiredInvitations() (int64, error)
}
