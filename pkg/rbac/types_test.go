package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		permission Permission
		want       bool
	}{
		{"owner can create clubs", RoleOwner, PermClubCreate, true},
		{"owner can manage roles", RoleOwner, PermUserManageRoles, true},
		{"admin can manage members", RoleAdmin, PermClubManageMembers, true},
		{"admin can reschedule sessions", RoleAdmin, PermSessionUpdate, true},
		{"admin cannot create clubs", RoleAdmin, PermClubCreate, false},
		{"admin cannot delete clubs", RoleAdmin, PermClubDelete, false},
		{"admin cannot delete users", RoleAdmin, PermUserDelete, false},
		{"admin cannot manage roles", RoleAdmin, PermUserManageRoles, false},
		{"member can join sessions", RoleMember, PermSessionJoin, true},
		{"member can correct scores", RoleMember, PermGameUpdate, true},
		{"member cannot reschedule sessions", RoleMember, PermSessionUpdate, false},
		{"member cannot manage members", RoleMember, PermClubManageMembers, false},
		{"member cannot export analytics", RoleMember, PermAnalyticsExport, false},
		{"guest can read club", RoleGuest, PermClubRead, true},
		{"guest can read sessions", RoleGuest, PermSessionRead, true},
		{"guest cannot join sessions", RoleGuest, PermSessionJoin, false},
		{"guest cannot read users", RoleGuest, PermUserRead, false},
		{"absent role denied everything", RoleNone, PermClubRead, false},
		{"unknown role denied", Role("referee"), PermClubRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestOwnerHoldsEveryPermission(t *testing.T) {
	for _, p := range AllPermissions() {
		assert.True(t, HasPermission(RoleOwner, p), "owner should hold %s", p)
	}
}

func TestAbsentRoleHoldsNoPermission(t *testing.T) {
	for _, p := range AllPermissions() {
		assert.False(t, HasPermission(RoleNone, p), "absent role should be denied %s", p)
	}
}

func TestCanManage(t *testing.T) {
	tests := []struct {
		manager Role
		target  Role
		want    bool
	}{
		{RoleOwner, RoleAdmin, true},
		{RoleOwner, RoleMember, true},
		{RoleOwner, RoleGuest, true},
		{RoleOwner, RoleOwner, false},
		{RoleAdmin, RoleMember, true},
		{RoleAdmin, RoleGuest, true},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleOwner, false},
		{RoleMember, RoleGuest, true},
		{RoleMember, RoleMember, false},
		{RoleGuest, RoleGuest, false},
		{RoleNone, RoleGuest, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.manager)+" over "+string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, CanManage(tt.manager, tt.target))
		})
	}
}

func TestRank(t *testing.T) {
	assert.Equal(t, 4, Rank(RoleOwner))
	assert.Equal(t, 3, Rank(RoleAdmin))
	assert.Equal(t, 2, Rank(RoleMember))
	assert.Equal(t, 1, Rank(RoleGuest))
	assert.Equal(t, 0, Rank(RoleNone))
	assert.Equal(t, 0, Rank(Role("referee")))
}

func TestRoleValid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid())
	}
	assert.False(t, RoleNone.Valid())
	assert.False(t, Role("referee").Valid())
}

func TestTierPredicates(t *testing.T) {
	assert.True(t, IsOwner(RoleOwner))
	assert.False(t, IsOwner(RoleAdmin))

	// Admin-or-above and member-or-above are rank thresholds.
	assert.True(t, IsAdmin(RoleOwner))
	assert.True(t, IsAdmin(RoleAdmin))
	assert.False(t, IsAdmin(RoleMember))

	assert.True(t, IsMember(RoleOwner))
	assert.True(t, IsMember(RoleAdmin))
	assert.True(t, IsMember(RoleMember))
	assert.False(t, IsMember(RoleGuest))
	assert.False(t, IsMember(RoleNone))
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, 4)

	// Ordered by descending rank.
	assert.Equal(t, RoleOwner, catalog[0].Role)
	assert.Equal(t, RoleGuest, catalog[3].Role)

	for _, info := range catalog {
		assert.Equal(t, Rank(info.Role), info.Rank)
		assert.NotEmpty(t, info.DisplayName)
		assert.NotEmpty(t, info.ColorToken)
		assert.NotEmpty(t, info.Permissions)
	}
}

func TestPermissionsForRoleCopies(t *testing.T) {
	perms := PermissionsForRole(RoleGuest)
	require.Len(t, perms, 2)

	// Mutating the returned slice must not corrupt the table.
	perms[0] = PermClubDelete
	assert.False(t, HasPermission(RoleGuest, PermClubDelete))
}

func TestAllPermissionsCatalogSize(t *testing.T) {
	assert.Len(t, AllPermissions(), 20)
}
