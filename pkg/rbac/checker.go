package rbac

import (
	"context"
	"errors"

	"github.com/courtside/clubhouse/pkg/observability"
)

// MembershipStatus represents the lifecycle state of a club membership.
type MembershipStatus string

const (
	StatusPending   MembershipStatus = "pending"
	StatusActive    MembershipStatus = "active"
	StatusSuspended MembershipStatus = "suspended"
	StatusExpired   MembershipStatus = "expired"
)

// Valid reports whether s is a recognized membership status
func (s MembershipStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusExpired:
		return true
	}
	return false
}

// StatusPolicy decides whether a membership's lifecycle status affects
// the role used for authorization.
type StatusPolicy int

const (
	// StatusPolicyActiveOnly treats any non-active membership as having
	// no role. This is the default.
	StatusPolicyActiveOnly StatusPolicy = iota
	// StatusPolicyIgnore uses the stored role regardless of status,
	// matching the pre-policy behavior of the web clients.
	StatusPolicyIgnore
)

// RoleGrant is the result of a membership lookup: the stored role plus
// the lifecycle status of the row it came from.
type RoleGrant struct {
	Role   Role
	Status MembershipStatus
}

// ErrNoMembership is returned by a RoleSource when no membership row
// exists for the (user, club) pair.
var ErrNoMembership = errors.New("rbac: no membership")

// RoleSource resolves the stored role for a user within a club. It is
// implemented by the clubs service on top of the membership table.
type RoleSource interface {
	GetMemberRole(ctx context.Context, clubID, userID int64) (RoleGrant, error)
}

// RoleCache is an optional read-through cache in front of a RoleSource.
// A cache that errors is skipped, never trusted to grant.
type RoleCache interface {
	Get(ctx context.Context, clubID, userID int64) (Role, bool)
	Set(ctx context.Context, clubID, userID int64, role Role)
	Invalidate(ctx context.Context, clubID, userID int64)
}

// HasPermission reports whether a role holds a permission. RoleNone and
// unknown roles always report false: a caller whose role could not be
// determined has no permissions.
func HasPermission(role Role, p Permission) bool {
	for _, held := range rolePermissions[role] {
		if held == p {
			return true
		}
	}
	return false
}

// CanManage reports whether manager outranks target. Strictly greater
// authority is required, so a role never manages a peer or itself.
func CanManage(manager, target Role) bool {
	return Rank(manager) > Rank(target)
}

// IsOwner reports whether role is the club owner.
func IsOwner(role Role) bool {
	return role == RoleOwner
}

// IsAdmin reports whether role is at least admin-level.
func IsAdmin(role Role) bool {
	return Rank(role) >= Rank(RoleAdmin)
}

// IsMember reports whether role is at least member-level. This is a rank
// threshold, not a permission check: a role can be member-level and still
// lack a specific permission.
func IsMember(role Role) bool {
	return Rank(role) >= Rank(RoleMember)
}

// Checker answers authorization questions for a principal within a club,
// resolving the principal's role through a RoleSource. The pure
// predicates (HasPermission, CanManage) never touch I/O; ResolveRole is
// the only call that does.
type Checker struct {
	source RoleSource
	cache  RoleCache
	policy StatusPolicy
	logger *observability.Logger
	authz  *observability.Metrics
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithCache installs a role cache in front of the source.
func WithCache(cache RoleCache) CheckerOption {
	return func(c *Checker) { c.cache = cache }
}

// WithStatusPolicy overrides the membership status policy.
func WithStatusPolicy(policy StatusPolicy) CheckerOption {
	return func(c *Checker) { c.policy = policy }
}

// WithMetrics records resolution and decision metrics.
func WithMetrics(m *observability.Metrics) CheckerOption {
	return func(c *Checker) { c.authz = m }
}

// NewChecker creates a Checker over a membership lookup.
func NewChecker(source RoleSource, logger *observability.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{
		source: source,
		policy: StatusPolicyActiveOnly,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveRole resolves the role userID holds in clubID. Not-found,
// lookup failure, and cancellation all collapse to RoleNone: a probe
// that cannot determine a role is authorization-equivalent to no role.
// The underlying failure is logged for operators but never surfaced to
// the authorization decision.
func (c *Checker) ResolveRole(ctx context.Context, clubID, userID int64) Role {
	if c.cache != nil {
		if role, ok := c.cache.Get(ctx, clubID, userID); ok {
			c.countCache(true)
			return role
		}
		c.countCache(false)
	}

	grant, err := c.source.GetMemberRole(ctx, clubID, userID)
	if err != nil {
		if !errors.Is(err, ErrNoMembership) {
			c.logger.WithError(err).
				WithField("club_id", clubID).
				WithField("user_id", userID).
				Warn("membership lookup failed, denying by default")
			c.countResolution("error")
		} else {
			c.countResolution("not_found")
		}
		return RoleNone
	}

	role := c.applyStatusPolicy(grant)
	c.countResolution("ok")

	if c.cache != nil {
		c.cache.Set(ctx, clubID, userID, role)
	}
	return role
}

// Can resolves the principal's role and checks a permission in one step.
func (c *Checker) Can(ctx context.Context, clubID, userID int64, p Permission) bool {
	allowed := HasPermission(c.ResolveRole(ctx, clubID, userID), p)
	c.countDecision(allowed)
	return allowed
}

// CanManageMember resolves the principal's role and compares it against
// a target role.
func (c *Checker) CanManageMember(ctx context.Context, clubID, userID int64, target Role) bool {
	allowed := CanManage(c.ResolveRole(ctx, clubID, userID), target)
	c.countDecision(allowed)
	return allowed
}

// Invalidate drops any cached role for the (user, club) pair. Callers
// invoke this after membership mutations so stale grants do not outlive
// a role change.
func (c *Checker) Invalidate(ctx context.Context, clubID, userID int64) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, clubID, userID)
	}
}

func (c *Checker) applyStatusPolicy(grant RoleGrant) Role {
	switch c.policy {
	case StatusPolicyIgnore:
		return grant.Role
	default:
		if grant.Status != StatusActive {
			return RoleNone
		}
		return grant.Role
	}
}

func (c *Checker) countResolution(outcome string) {
	if c.authz != nil {
		c.authz.RoleResolutionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (c *Checker) countCache(hit bool) {
	if c.authz == nil {
		return
	}
	if hit {
		c.authz.RoleCacheHitsTotal.Inc()
	} else {
		c.authz.RoleCacheMissesTotal.Inc()
	}
}

func (c *Checker) countDecision(allowed bool) {
	if c.authz == nil {
		return
	}
	if allowed {
		c.authz.AuthzDecisionsTotal.WithLabelValues("allow").Inc()
	} else {
		c.authz.AuthzDecisionsTotal.WithLabelValues("deny").Inc()
	}
}
