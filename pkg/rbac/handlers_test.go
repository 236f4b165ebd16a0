package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/contextkeys"
)

func handlersRouter(source RoleSource) *mux.Router {
	router := mux.NewRouter()
	NewHandlers(NewChecker(source, testLogger())).RegisterRoutes(router)
	return router
}

func TestListRolesEndpoint(t *testing.T) {
	router := handlersRouter(newFakeSource())

	req := httptest.NewRequest("GET", "/roles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var catalog []RoleInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&catalog))
	require.Len(t, catalog, 4)
	assert.Equal(t, RoleOwner, catalog[0].Role)
	assert.Len(t, catalog[0].Permissions, 20)
}

func TestListPermissionsEndpoint(t *testing.T) {
	router := handlersRouter(newFakeSource())

	req := httptest.NewRequest("GET", "/permissions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var perms []Permission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&perms))
	assert.Len(t, perms, 20)
	assert.Contains(t, perms, PermClubManageMembers)
}

func TestGetMyAccessEndpoint(t *testing.T) {
	source := newFakeSource()
	source.grant(1, 10, RoleAdmin, StatusActive)
	router := handlersRouter(source)

	get := func(path string, userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		if userID != 0 {
			authCtx := &auth.AuthContext{User: &auth.User{ID: userID}}
			req = req.WithContext(contextkeys.WithAuth(req.Context(), authCtx))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("resolved member", func(t *testing.T) {
		rec := get("/clubs/1/me", 10)
		require.Equal(t, http.StatusOK, rec.Code)

		var out accessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		assert.Equal(t, RoleAdmin, out.Role)
		assert.Equal(t, "Admin", out.DisplayName)
		assert.False(t, out.IsOwner)
		assert.True(t, out.IsAdmin)
		assert.True(t, out.IsMember)
		assert.Contains(t, out.Permissions, PermClubManageMembers)
		assert.NotContains(t, out.Permissions, PermClubDelete)
	})

	t.Run("non-member gets empty access not 404", func(t *testing.T) {
		rec := get("/clubs/1/me", 99)
		require.Equal(t, http.StatusOK, rec.Code)

		var out accessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		assert.Equal(t, RoleNone, out.Role)
		assert.False(t, out.IsMember)
		assert.NotNil(t, out.Permissions)
		assert.Empty(t, out.Permissions)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := get("/clubs/1/me", 0)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid club id", func(t *testing.T) {
		rec := get("/clubs/zero/me", 10)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
