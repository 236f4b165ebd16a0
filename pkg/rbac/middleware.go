package rbac

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/middleware"
)

// Guard provides route middleware enforcing club permissions. The club
// context is taken from the {club_id} path variable; the principal from
// the authenticated request context. A request with no authenticated
// principal is rejected with 401 before any role resolution happens, so
// the unauthorized/forbidden distinction stays visible to clients.
type Guard struct {
	checker *Checker
}

// NewGuard creates a Guard over a checker.
func NewGuard(checker *Checker) *Guard {
	return &Guard{checker: checker}
}

// RequirePermission gates a route on the caller holding a permission in
// the club named by the request path.
func (g *Guard) RequirePermission(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := middleware.GetAuthContext(r)
			if authCtx == nil || authCtx.User == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			clubID, ok := clubIDFromRequest(r)
			if !ok {
				httputil.WriteBadRequest(w, "club id is required")
				return
			}

			if !g.checker.Can(r.Context(), clubID, authCtx.User.ID, p) {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireMemberLevel gates a route on the caller being at least
// member-level in the club. This is a rank threshold, not a permission
// check.
func (g *Guard) RequireMemberLevel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := middleware.GetAuthContext(r)
		if authCtx == nil || authCtx.User == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		clubID, ok := clubIDFromRequest(r)
		if !ok {
			httputil.WriteBadRequest(w, "club id is required")
			return
		}

		if !IsMember(g.checker.ResolveRole(r.Context(), clubID, authCtx.User.ID)) {
			httputil.WriteForbidden(w, "membership required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clubIDFromRequest(r *http.Request) (int64, bool) {
	raw, ok := mux.Vars(r)["club_id"]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
