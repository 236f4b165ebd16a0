package rbac

// Role represents a member's authority tier within a club.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"

	// RoleNone is the absent role: an unauthenticated caller, a user with
	// no membership in the club, or a membership lookup that failed.
	// Every permission check against RoleNone is denied.
	RoleNone Role = ""
)

// Resource represents a resource type permissions are grouped by
type Resource string

const (
	ResourceClub      Resource = "club"
	ResourceSession   Resource = "session"
	ResourceUser      Resource = "user"
	ResourceGame      Resource = "game"
	ResourceAnalytics Resource = "analytics"
)

// Permission is an atomic capability token, stable across the wire and
// storage ("resource:action").
type Permission string

const (
	// Club management
	PermClubCreate        Permission = "club:create"
	PermClubRead          Permission = "club:read"
	PermClubUpdate        Permission = "club:update"
	PermClubDelete        Permission = "club:delete"
	PermClubManageMembers Permission = "club:manage_members"

	// Session management
	PermSessionCreate Permission = "session:create"
	PermSessionRead   Permission = "session:read"
	PermSessionUpdate Permission = "session:update"
	PermSessionDelete Permission = "session:delete"
	PermSessionJoin   Permission = "session:join"

	// User management
	PermUserRead        Permission = "user:read"
	PermUserUpdate      Permission = "user:update"
	PermUserDelete      Permission = "user:delete"
	PermUserManageRoles Permission = "user:manage_roles"

	// Game recording
	PermGameCreate Permission = "game:create"
	PermGameRead   Permission = "game:read"
	PermGameUpdate Permission = "game:update"
	PermGameDelete Permission = "game:delete"

	// Analytics
	PermAnalyticsRead   Permission = "analytics:read"
	PermAnalyticsExport Permission = "analytics:export"
)

// allPermissions is the full catalog, in declaration order.
var allPermissions = []Permission{
	PermClubCreate, PermClubRead, PermClubUpdate, PermClubDelete, PermClubManageMembers,
	PermSessionCreate, PermSessionRead, PermSessionUpdate, PermSessionDelete, PermSessionJoin,
	PermUserRead, PermUserUpdate, PermUserDelete, PermUserManageRoles,
	PermGameCreate, PermGameRead, PermGameUpdate, PermGameDelete,
	PermAnalyticsRead, PermAnalyticsExport,
}

// rolePermissions is authored explicitly per role rather than derived from
// the rank hierarchy. The gaps between tiers are intentional: member lacks
// session:update/session:delete (only admins reschedule or cancel
// sessions) while still holding game:update for score corrections.
// Do not "fix" this into a monotonic hierarchy.
var rolePermissions = map[Role][]Permission{
	RoleOwner: allPermissions,
	RoleAdmin: {
		PermClubRead,
		PermClubUpdate,
		PermClubManageMembers,
		PermSessionCreate,
		PermSessionRead,
		PermSessionUpdate,
		PermSessionDelete,
		PermSessionJoin,
		PermUserRead,
		PermUserUpdate,
		PermGameCreate,
		PermGameRead,
		PermGameUpdate,
		PermGameDelete,
		PermAnalyticsRead,
		PermAnalyticsExport,
	},
	RoleMember: {
		PermClubRead,
		PermSessionRead,
		PermSessionJoin,
		PermUserRead,
		PermUserUpdate,
		PermGameCreate,
		PermGameRead,
		PermGameUpdate,
		PermAnalyticsRead,
	},
	RoleGuest: {
		PermClubRead,
		PermSessionRead,
	},
}

// roleRanks is the total order over roles. Used only for manager/target
// comparisons, never for permission inheritance.
var roleRanks = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleMember: 2,
	RoleGuest:  1,
}

var roleDisplayNames = map[Role]string{
	RoleOwner:  "Owner",
	RoleAdmin:  "Admin",
	RoleMember: "Member",
	RoleGuest:  "Guest",
}

// roleColorTokens are the badge classes the web clients render role chips
// with. Kept here because they are part of the same static role mapping.
var roleColorTokens = map[Role]string{
	RoleOwner:  "bg-red-100 text-red-800",
	RoleAdmin:  "bg-blue-100 text-blue-800",
	RoleMember: "bg-green-100 text-green-800",
	RoleGuest:  "bg-gray-100 text-gray-800",
}

// Roles returns the closed role set ordered by descending rank.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleMember, RoleGuest}
}

// AllPermissions returns the full permission catalog.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// PermissionsForRole returns the permissions assigned to a role. Unknown
// roles (including RoleNone) get an empty set.
func PermissionsForRole(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Rank returns a role's position in the authority order, or 0 for any
// role outside the catalog.
func Rank(role Role) int {
	return roleRanks[role]
}

// Valid reports whether role is one of the four catalog roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// DisplayName returns the human-readable label for a role.
func DisplayName(role Role) string {
	return roleDisplayNames[role]
}

// ColorToken returns the UI badge class for a role.
func ColorToken(role Role) string {
	return roleColorTokens[role]
}

// RoleInfo is the catalog metadata exposed to clients.
type RoleInfo struct {
	Role        Role         `json:"role"`
	Rank        int          `json:"rank"`
	DisplayName string       `json:"display_name"`
	ColorToken  string       `json:"color_token"`
	Permissions []Permission `json:"permissions"`
}

// Catalog returns the full role catalog, ordered by descending rank.
func Catalog() []RoleInfo {
	roles := Roles()
	out := make([]RoleInfo, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleInfo{
			Role:        r,
			Rank:        Rank(r),
			DisplayName: DisplayName(r),
			ColorToken:  ColorToken(r),
			Permissions: PermissionsForRole(r),
		})
	}
	return out
}
