package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/rbac"
)

// AuditHandlers exposes the per-club audit trail to club staff
type AuditHandlers struct {
	store  *audit.DBLogger
	logger *observability.Logger
}

// RegisterRoutes registers audit query routes on an authenticated router
func (h *AuditHandlers) RegisterRoutes(router *mux.Router, guard *rbac.Guard) {
	router.Handle("/clubs/{club_id}/audit",
		guard.RequirePermission(rbac.PermAnalyticsRead)(http.HandlerFunc(h.ListEvents))).Methods("GET")
}

// ListEvents returns audit events for a club, newest first
func (h *AuditHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}

	filter := audit.SearchFilter{ClubID: &clubID}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 1000 {
			httputil.WriteBadRequest(w, "limit must be between 1 and 1000")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			httputil.WriteBadRequest(w, "offset must not be negative")
			return
		}
		filter.Offset = offset
	}
	if raw := r.URL.Query().Get("event_type"); raw != "" {
		filter.EventTypes = []audit.EventType{audit.EventType(raw)}
	}

	events, err := h.store.Search(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to search audit logs")
		httputil.WriteInternalError(w)
		return
	}
	if events == nil {
		events = []*audit.Event{}
	}

	httputil.WriteSuccess(w, events)
}
