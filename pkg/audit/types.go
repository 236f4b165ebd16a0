package audit

import (
	"encoding/json"
	"time"

	"github.com/courtside/clubhouse/pkg/rbac"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthSignUp       EventType = "auth.signup"
	EventTypeAuthSignIn       EventType = "auth.signin"
	EventTypeAuthSignInFailed EventType = "auth.signin_failed"
	EventTypeAuthSignOut      EventType = "auth.signout"

	// Authorization events
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	// Club lifecycle events
	EventTypeClubCreate EventType = "club.create"
	EventTypeClubUpdate EventType = "club.update"
	EventTypeClubDelete EventType = "club.delete"

	// Membership events
	EventTypeMemberAdd          EventType = "member.add"
	EventTypeMemberRemove       EventType = "member.remove"
	EventTypeMemberRoleChange   EventType = "member.role_change"
	EventTypeMemberStatusChange EventType = "member.status_change"

	// Invitation events
	EventTypeInvitationCreate EventType = "invitation.create"
	EventTypeInvitationAccept EventType = "invitation.accept"
	EventTypeInvitationRevoke EventType = "invitation.revoke"
)

// Decision records the outcome of an authorization check
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Event represents a single audit log entry
type Event struct {
	ID           int64          `json:"id"`
	EventType    EventType      `json:"event_type"`
	ActorID      *int64         `json:"actor_id,omitempty"`
	ClubID       *int64         `json:"club_id,omitempty"`
	TargetUserID *int64         `json:"target_user_id,omitempty"`
	Decision     Decision       `json:"decision,omitempty"`
	Permission   string         `json:"permission,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ToJSON converts the event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewAccessDenied builds a denial event for a failed permission check
func NewAccessDenied(actorID, clubID int64, permission rbac.Permission, role rbac.Role) *Event {
	return &Event{
		EventType:  EventTypeAuthzAccessDenied,
		ActorID:    &actorID,
		ClubID:     &clubID,
		Decision:   DecisionDeny,
		Permission: string(permission),
		Detail:     map[string]any{"role": string(role)},
		CreatedAt:  time.Now().UTC(),
	}
}

// NewRoleChange builds an event recording a member role change
func NewRoleChange(actorID, clubID, targetUserID int64, from, to rbac.Role) *Event {
	return &Event{
		EventType:    EventTypeMemberRoleChange,
		ActorID:      &actorID,
		ClubID:       &clubID,
		TargetUserID: &targetUserID,
		Detail:       map[string]any{"from": string(from), "to": string(to)},
		CreatedAt:    time.Now().UTC(),
	}
}

// NewMembershipEvent builds an event for a membership mutation
func NewMembershipEvent(eventType EventType, actorID, clubID, targetUserID int64) *Event {
	return &Event{
		EventType:    eventType,
		ActorID:      &actorID,
		ClubID:       &clubID,
		TargetUserID: &targetUserID,
		CreatedAt:    time.Now().UTC(),
	}
}

// SearchFilter represents filters for querying audit logs
type SearchFilter struct {
	ClubID     *int64
	ActorID    *int64
	EventTypes []EventType
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Offset     int
}

// RetentionPolicy defines how long audit logs should be kept
type RetentionPolicy struct {
	RetentionDays int
}

// DefaultRetentionPolicy returns a default retention policy (90 days)
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{RetentionDays: 90}
}
