package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/clubs"
	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/middleware"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/rbac"
)

// ClubHandlers handles club CRUD requests
type ClubHandlers struct {
	service  clubs.Service
	checker  *rbac.Checker
	auditLog audit.Logger
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// RegisterRoutes registers club routes on an authenticated router
func (h *ClubHandlers) RegisterRoutes(router *mux.Router, guard *rbac.Guard) {
	router.HandleFunc("/clubs", h.CreateClub).Methods("POST")
	router.HandleFunc("/clubs", h.ListClubs).Methods("GET")

	router.Handle("/clubs/{club_id}",
		guard.RequirePermission(rbac.PermClubRead)(http.HandlerFunc(h.GetClub))).Methods("GET")
	router.Handle("/clubs/{club_id}",
		guard.RequirePermission(rbac.PermClubUpdate)(http.HandlerFunc(h.UpdateClub))).Methods("PUT")
	router.Handle("/clubs/{club_id}",
		guard.RequirePermission(rbac.PermClubDelete)(http.HandlerFunc(h.DeleteClub))).Methods("DELETE")
}

// CreateClub creates a club with the caller as owner. Any
// authenticated user may create a club; their owner role exists only
// inside the club being created.
func (h *ClubHandlers) CreateClub(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req clubs.CreateClubRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if req.MaxMembers < 0 {
		httputil.WriteBadRequest(w, "max_members must not be negative")
		return
	}

	club := &clubs.Club{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Location:    req.Location,
		MaxMembers:  req.MaxMembers,
		OwnerID:     authCtx.User.ID,
	}

	if err := h.service.CreateClub(club); err != nil {
		h.logger.WithError(err).Error("failed to create club")
		httputil.WriteInternalError(w)
		return
	}

	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeClubCreate,
		ActorID:   &authCtx.User.ID,
		ClubID:    &club.ID,
	})

	httputil.WriteCreated(w, club)
}

// ListClubs lists the caller's clubs
func (h *ClubHandlers) ListClubs(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	out, err := h.service.ListClubs(authCtx.User.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list clubs")
		httputil.WriteInternalError(w)
		return
	}
	if out == nil {
		out = []*clubs.Club{}
	}

	httputil.WriteSuccess(w, out)
}

// GetClub retrieves a club
func (h *ClubHandlers) GetClub(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}

	club, err := h.service.GetClub(clubID)
	if err != nil {
		if errors.Is(err, clubs.ErrClubNotFound) {
			httputil.WriteNotFound(w, "club not found")
			return
		}
		h.logger.WithError(err).Error("failed to get club")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, club)
}

// UpdateClub updates a club's mutable fields
func (h *ClubHandlers) UpdateClub(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}

	var req clubs.UpdateClubRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		httputil.WriteBadRequest(w, "name must not be empty")
		return
	}
	if req.MaxMembers != nil && *req.MaxMembers <= 0 {
		httputil.WriteBadRequest(w, "max_members must be positive")
		return
	}

	if err := h.service.UpdateClub(clubID, &req); err != nil {
		if errors.Is(err, clubs.ErrClubNotFound) {
			httputil.WriteNotFound(w, "club not found")
			return
		}
		h.logger.WithError(err).Error("failed to update club")
		httputil.WriteInternalError(w)
		return
	}

	club, err := h.service.GetClub(clubID)
	if err != nil {
		h.logger.WithError(err).Error("failed to reload club")
		httputil.WriteInternalError(w)
		return
	}

	authCtx := middleware.GetAuthContext(r)
	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeClubUpdate,
		ActorID:   &authCtx.User.ID,
		ClubID:    &clubID,
	})

	httputil.WriteSuccess(w, club)
}

// DeleteClub soft deletes a club
func (h *ClubHandlers) DeleteClub(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}

	if err := h.service.DeleteClub(clubID); err != nil {
		if errors.Is(err, clubs.ErrClubNotFound) {
			httputil.WriteNotFound(w, "club not found")
			return
		}
		h.logger.WithError(err).Error("failed to delete club")
		httputil.WriteInternalError(w)
		return
	}

	authCtx := middleware.GetAuthContext(r)
	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeClubDelete,
		ActorID:   &authCtx.User.ID,
		ClubID:    &clubID,
	})

	httputil.WriteNoContent(w)
}
