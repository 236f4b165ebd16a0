package rbac

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/middleware"
)

// Handlers exposes the role catalog and per-caller effective permissions
// over HTTP. The catalog endpoints are read-only views of static data;
// there is no administrative surface for editing the tables.
type Handlers struct {
	checker *Checker
}

// NewHandlers creates RBAC HTTP handlers.
func NewHandlers(checker *Checker) *Handlers {
	return &Handlers{checker: checker}
}

// RegisterRoutes registers the RBAC routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/roles", h.ListRoles).Methods("GET")
	router.HandleFunc("/permissions", h.ListPermissions).Methods("GET")
	router.HandleFunc("/clubs/{club_id}/me", h.GetMyAccess).Methods("GET")
}

// ListRoles returns the role catalog with ranks, display metadata, and
// assigned permissions.
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, Catalog())
}

// ListPermissions returns the full permission catalog.
func (h *Handlers) ListPermissions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, AllPermissions())
}

// accessResponse is what UI guards consume: the resolved role plus its
// derived tier booleans and effective permissions. A caller with no role
// in the club gets role "" and an empty permission list rather than 404,
// so the guard can distinguish "resolved to absent" from "still loading".
type accessResponse struct {
	Role        Role         `json:"role"`
	DisplayName string       `json:"display_name,omitempty"`
	ColorToken  string       `json:"color_token,omitempty"`
	IsOwner     bool         `json:"is_owner"`
	IsAdmin     bool         `json:"is_admin"`
	IsMember    bool         `json:"is_member"`
	Permissions []Permission `json:"permissions"`
}

// GetMyAccess returns the caller's resolved role and effective
// permissions for a club.
func (h *Handlers) GetMyAccess(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	clubID, ok := clubIDFromRequest(r)
	if !ok {
		httputil.WriteBadRequest(w, "invalid club id")
		return
	}

	role := h.checker.ResolveRole(r.Context(), clubID, authCtx.User.ID)
	perms := PermissionsForRole(role)
	if perms == nil {
		perms = []Permission{}
	}

	httputil.WriteSuccess(w, accessResponse{
		Role:        role,
		DisplayName: DisplayName(role),
		ColorToken:  ColorToken(role),
		IsOwner:     IsOwner(role),
		IsAdmin:     IsAdmin(role),
		IsMember:    IsMember(role),
		Permissions: perms,
	})
}
