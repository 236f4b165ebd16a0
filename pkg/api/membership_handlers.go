package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/clubs"
	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/middleware"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/rbac"
)

// MembershipHandlers handles member and invitation requests.
//
// The mutation handlers check authorization inline rather than through
// the route guard: malformed requests must fail with 400 before any
// permission denial is reported, and the rank checks depend on the
// request body.
type MembershipHandlers struct {
	service  clubs.Service
	checker  *rbac.Checker
	auditLog audit.Logger
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// RegisterRoutes registers membership routes on an authenticated router
func (h *MembershipHandlers) RegisterRoutes(router *mux.Router, guard *rbac.Guard) {
	router.Handle("/clubs/{club_id}/members",
		guard.RequirePermission(rbac.PermUserRead)(http.HandlerFunc(h.ListMembers))).Methods("GET")
	router.HandleFunc("/clubs/{club_id}/members", h.AddMember).Methods("POST")
	router.HandleFunc("/clubs/{club_id}/members/{user_id}", h.UpdateMemberRole).Methods("PUT")
	router.HandleFunc("/clubs/{club_id}/members/{user_id}/status", h.UpdateMemberStatus).Methods("PUT")
	router.HandleFunc("/clubs/{club_id}/members/{user_id}", h.RemoveMember).Methods("DELETE")

	router.Handle("/clubs/{club_id}/invitations",
		guard.RequirePermission(rbac.PermClubManageMembers)(http.HandlerFunc(h.ListInvitations))).Methods("GET")
	router.HandleFunc("/clubs/{club_id}/invitations", h.CreateInvitation).Methods("POST")
	router.Handle("/clubs/{club_id}/invitations/{invitation_id}",
		guard.RequirePermission(rbac.PermClubManageMembers)(http.HandlerFunc(h.RevokeInvitation))).Methods("DELETE")
	router.HandleFunc("/invitations/{token}/accept", h.AcceptInvitation).Methods("POST")
}

// ListMembers lists a club's members
func (h *MembershipHandlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}

	members, err := h.service.ListMembers(clubID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list members")
		httputil.WriteInternalError(w)
		return
	}
	if members == nil {
		members = []*clubs.Member{}
	}

	httputil.WriteSuccess(w, members)
}

// AddMember enrolls a user directly. The caller needs the member
// management permission and must outrank the role being granted.
func (h *MembershipHandlers) AddMember(w http.ResponseWriter, r *http.Request) {
	authCtx, clubID, ok := h.authedClubRequest(w, r)
	if !ok {
		return
	}

	var req clubs.AddMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		httputil.WriteBadRequest(w, "user_id is required")
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}
	if req.Role == rbac.RoleOwner {
		httputil.WriteBadRequest(w, "owner role cannot be assigned")
		return
	}

	if !h.requireManage(w, r, authCtx, clubID, req.Role) {
		return
	}

	err := h.service.AddMember(clubID, req.UserID, req.Role, &authCtx.User.ID)
	if err != nil {
		if errors.Is(err, clubs.ErrMemberExists) {
			httputil.WriteConflict(w, "user is already a member")
			return
		}
		h.logger.WithError(err).Error("failed to add member")
		httputil.WriteInternalError(w)
		return
	}

	h.checker.Invalidate(r.Context(), clubID, req.UserID)
	h.countMutation("add")
	_ = audit.Record(r.Context(), h.auditLog, audit.NewMembershipEvent(audit.EventTypeMemberAdd, authCtx.User.ID, clubID, req.UserID))

	member, err := h.service.GetMember(clubID, req.UserID)
	if err != nil {
		h.logger.WithError(err).Error("failed to reload member")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteCreated(w, member)
}

// UpdateMemberRole changes an existing member's role. The caller must
// outrank both the member's current role and the new one, and cannot
// change their own role.
func (h *MembershipHandlers) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	authCtx, clubID, ok := h.authedClubRequest(w, r)
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	var req clubs.UpdateMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}
	if req.Role == rbac.RoleOwner {
		httputil.WriteBadRequest(w, "owner role cannot be assigned")
		return
	}

	if targetID == authCtx.User.ID {
		httputil.WriteForbidden(w, "cannot change your own role")
		return
	}

	target, err := h.service.GetMember(clubID, targetID)
	if err != nil {
		if errors.Is(err, clubs.ErrMemberNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		h.logger.WithError(err).Error("failed to get member")
		httputil.WriteInternalError(w)
		return
	}

	// The caller must outrank who the member is now and who they become.
	if !h.requireManage(w, r, authCtx, clubID, target.Role) {
		return
	}
	if !h.checker.CanManageMember(r.Context(), clubID, authCtx.User.ID, req.Role) {
		h.denied(w, r, authCtx, clubID)
		return
	}

	if err := h.service.UpdateMemberRole(clubID, targetID, req.Role); err != nil {
		if errors.Is(err, clubs.ErrMemberNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		h.logger.WithError(err).Error("failed to update member role")
		httputil.WriteInternalError(w)
		return
	}

	h.checker.Invalidate(r.Context(), clubID, targetID)
	h.countMutation("role_change")
	_ = audit.Record(r.Context(), h.auditLog, audit.NewRoleChange(authCtx.User.ID, clubID, targetID, target.Role, req.Role))

	member, err := h.service.GetMember(clubID, targetID)
	if err != nil {
		h.logger.WithError(err).Error("failed to reload member")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, member)
}

// UpdateMemberStatus changes a member's lifecycle status
func (h *MembershipHandlers) UpdateMemberStatus(w http.ResponseWriter, r *http.Request) {
	authCtx, clubID, ok := h.authedClubRequest(w, r)
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	var req clubs.UpdateMemberStatusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		httputil.WriteBadRequest(w, "invalid status")
		return
	}

	target, err := h.service.GetMember(clubID, targetID)
	if err != nil {
		if errors.Is(err, clubs.ErrMemberNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		h.logger.WithError(err).Error("failed to get member")
		httputil.WriteInternalError(w)
		return
	}

	if !h.requireManage(w, r, authCtx, clubID, target.Role) {
		return
	}

	if err := h.service.UpdateMemberStatus(clubID, targetID, req.Status); err != nil {
		if errors.Is(err, clubs.ErrMemberNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		h.logger.WithError(err).Error("failed to update member status")
		httputil.WriteInternalError(w)
		return
	}

	h.checker.Invalidate(r.Context(), clubID, targetID)
	h.countMutation("status_change")

	event := audit.NewMembershipEvent(audit.EventTypeMemberStatusChange, authCtx.User.ID, clubID, targetID)
	event.Detail = map[string]any{"from": string(target.Status), "to": string(req.Status)}
	_ = audit.Record(r.Context(), h.auditLog, event)

	httputil.WriteNoContent(w)
}

// RemoveMember removes a member. Members may remove themselves (leave
// the club) unless they are the owner; removing anyone else requires
// management rights over the target's role.
func (h *MembershipHandlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	authCtx, clubID, ok := h.authedClubRequest(w, r)
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	target, err := h.service.GetMember(clubID, targetID)
	if err != nil {
		if errors.Is(err, clubs.ErrMemberNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		h.logger.WithError(err).Error("failed to get member")
		httputil.WriteInternalError(w)
		return
	}

	if targetID == authCtx.User.ID {
		if target.Role == rbac.RoleOwner {
			httputil.WriteForbidden(w, "owner cannot leave their own club")
			return
		}
	} else if !h.requireManage(w, r, authCtx, clubID, target.Role) {
		return
	}

	if err := h.service.RemoveMember(clubID, targetID); err != nil {
		if errors.Is(err, clubs.ErrMemberNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		h.logger.WithError(err).Error("failed to remove member")
		httputil.WriteInternalError(w)
		return
	}

	h.checker.Invalidate(r.Context(), clubID, targetID)
	h.countMutation("remove")
	_ = audit.Record(r.Context(), h.auditLog, audit.NewMembershipEvent(audit.EventTypeMemberRemove, authCtx.User.ID, clubID, targetID))

	httputil.WriteNoContent(w)
}

// CreateInvitation invites a user by email. The caller must outrank
// the role the invitation grants.
func (h *MembershipHandlers) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	authCtx, clubID, ok := h.authedClubRequest(w, r)
	if !ok {
		return
	}

	var req clubs.InviteMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httputil.WriteBadRequest(w, "valid email is required")
		return
	}
	if req.Role == "" {
		req.Role = rbac.RoleMember
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}
	if req.Role == rbac.RoleOwner {
		httputil.WriteBadRequest(w, "owner role cannot be assigned")
		return
	}

	if !h.requireManage(w, r, authCtx, clubID, req.Role) {
		return
	}

	invitation := &clubs.Invitation{
		ClubID:    clubID,
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: authCtx.User.ID,
	}
	if err := h.service.CreateInvitation(invitation); err != nil {
		h.logger.WithError(err).Error("failed to create invitation")
		httputil.WriteInternalError(w)
		return
	}

	if h.metrics != nil {
		h.metrics.InvitationsCreatedTotal.Inc()
	}
	event := &audit.Event{
		EventType: audit.EventTypeInvitationCreate,
		ActorID:   &authCtx.User.ID,
		ClubID:    &clubID,
		Detail:    map[string]any{"email": req.Email, "role": string(req.Role)},
	}
	_ = audit.Record(r.Context(), h.auditLog, event)

	httputil.WriteCreated(w, invitation)
}

// ListInvitations lists a club's pending invitations
func (h *MembershipHandlers) ListInvitations(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}

	invitations, err := h.service.ListInvitations(clubID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list invitations")
		httputil.WriteInternalError(w)
		return
	}
	if invitations == nil {
		invitations = []*clubs.Invitation{}
	}

	httputil.WriteSuccess(w, invitations)
}

// RevokeInvitation deletes a pending invitation
func (h *MembershipHandlers) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return
	}
	invitationID, ok := httputil.ParsePathInt64OrError(w, r, "invitation_id")
	if !ok {
		return
	}

	if err := h.service.RevokeInvitation(clubID, invitationID); err != nil {
		if errors.Is(err, clubs.ErrInvitationNotFound) {
			httputil.WriteNotFound(w, "invitation not found")
			return
		}
		h.logger.WithError(err).Error("failed to revoke invitation")
		httputil.WriteInternalError(w)
		return
	}

	authCtx := middleware.GetAuthContext(r)
	event := &audit.Event{
		EventType: audit.EventTypeInvitationRevoke,
		ActorID:   &authCtx.User.ID,
		ClubID:    &clubID,
	}
	_ = audit.Record(r.Context(), h.auditLog, event)

	httputil.WriteNoContent(w)
}

// AcceptInvitation redeems an invitation token for the caller
func (h *MembershipHandlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	token := mux.Vars(r)["token"]
	if token == "" {
		httputil.WriteBadRequest(w, "invitation token is required")
		return
	}

	invitation, err := h.service.GetInvitation(token)
	if err != nil {
		if errors.Is(err, clubs.ErrInvitationNotFound) {
			httputil.WriteNotFound(w, "invitation not found")
			return
		}
		h.logger.WithError(err).Error("failed to get invitation")
		httputil.WriteInternalError(w)
		return
	}

	if err := h.service.AcceptInvitation(token, authCtx.User.ID); err != nil {
		switch {
		case errors.Is(err, clubs.ErrInvitationNotFound):
			httputil.WriteNotFound(w, "invitation not found")
		case errors.Is(err, clubs.ErrInvitationExpired):
			httputil.WriteErrorMessage(w, http.StatusGone, "invitation expired")
		case errors.Is(err, clubs.ErrInvitationAccepted):
			httputil.WriteConflict(w, "invitation already accepted")
		default:
			h.logger.WithError(err).Error("failed to accept invitation")
			httputil.WriteInternalError(w)
		}
		return
	}

	h.checker.Invalidate(r.Context(), invitation.ClubID, authCtx.User.ID)
	if h.metrics != nil {
		h.metrics.InvitationsAcceptedTotal.Inc()
	}
	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeInvitationAccept,
		ActorID:   &authCtx.User.ID,
		ClubID:    &invitation.ClubID,
	})

	member, err := h.service.GetMember(invitation.ClubID, authCtx.User.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to reload member")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, member)
}

// authedClubRequest extracts the authenticated principal and club ID,
// writing the appropriate error response when either is missing
func (h *MembershipHandlers) authedClubRequest(w http.ResponseWriter, r *http.Request) (*auth.AuthContext, int64, bool) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil, 0, false
	}
	clubID, ok := httputil.ParsePathInt64OrError(w, r, "club_id")
	if !ok {
		return nil, 0, false
	}
	return authCtx, clubID, true
}

// requireManage enforces the member management permission plus a rank
// check over the given role, writing 403 and an audit event on failure
func (h *MembershipHandlers) requireManage(w http.ResponseWriter, r *http.Request, authCtx *auth.AuthContext, clubID int64, over rbac.Role) bool {
	if !h.checker.Can(r.Context(), clubID, authCtx.User.ID, rbac.PermClubManageMembers) {
		h.denied(w, r, authCtx, clubID)
		return false
	}
	if !h.checker.CanManageMember(r.Context(), clubID, authCtx.User.ID, over) {
		h.denied(w, r, authCtx, clubID)
		return false
	}
	return true
}

func (h *MembershipHandlers) denied(w http.ResponseWriter, r *http.Request, authCtx *auth.AuthContext, clubID int64) {
	role := h.checker.ResolveRole(r.Context(), clubID, authCtx.User.ID)
	_ = audit.Record(r.Context(), h.auditLog, audit.NewAccessDenied(authCtx.User.ID, clubID, rbac.PermClubManageMembers, role))
	httputil.WriteForbidden(w, "insufficient permissions")
}

func (h *MembershipHandlers) countMutation(kind string) {
	if h.metrics != nil {
		h.metrics.MembershipMutationsTotal.WithLabelValues(kind).Inc()
	}
}
