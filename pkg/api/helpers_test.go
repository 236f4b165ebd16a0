package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/clubs"
	"github.com/courtside/clubhouse/pkg/contextkeys"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/rbac"
)

var errNotStubbed = fmt.Errorf("not stubbed")

// stubClubService implements clubs.Service with per-method function
// fields so each test wires up only what its handler touches. Unstubbed
// methods fail loudly with a 500 instead of silently succeeding.
type stubClubService struct {
	createClub     func(*clubs.Club) error
	getClub        func(int64) (*clubs.Club, error)
	getClubBySlug  func(string) (*clubs.Club, error)
	listClubs      func(int64) ([]*clubs.Club, error)
	updateClub     func(int64, *clubs.UpdateClubRequest) error
	deleteClub     func(int64) error
	listMembers    func(int64) ([]*clubs.Member, error)
	getMember      func(int64, int64) (*clubs.Member, error)
	addMember      func(int64, int64, rbac.Role, *int64) error
	updateRole     func(int64, int64, rbac.Role) error
	updateStatus   func(int64, int64, rbac.MembershipStatus) error
	removeMember   func(int64, int64) error
	createInvite   func(*clubs.Invitation) error
	getInvite      func(string) (*clubs.Invitation, error)
	listInvites    func(int64) ([]*clubs.Invitation, error)
	acceptInvite   func(string, int64) error
	revokeInvite   func(int64, int64) error
	cleanupInvites func() (int64, error)
}

func (s *stubClubService) CreateClub(club *clubs.Club) error {
	if s.createClub == nil {
		return errNotStubbed
	}
	return s.createClub(club)
}

func (s *stubClubService) GetClub(id int64) (*clubs.Club, error) {
	if s.getClub == nil {
		return nil, errNotStubbed
	}
	return s.getClub(id)
}

func (s *stubClubService) GetClubBySlug(slug string) (*clubs.Club, error) {
	if s.getClubBySlug == nil {
		return nil, errNotStubbed
	}
	return s.getClubBySlug(slug)
}

func (s *stubClubService) ListClubs(userID int64) ([]*clubs.Club, error) {
	if s.listClubs == nil {
		return nil, errNotStubbed
	}
	return s.listClubs(userID)
}

func (s *stubClubService) UpdateClub(id int64, updates *clubs.UpdateClubRequest) error {
	if s.updateClub == nil {
		return errNotStubbed
	}
	return s.updateClub(id, updates)
}

func (s *stubClubService) DeleteClub(id int64) error {
	if s.deleteClub == nil {
		return errNotStubbed
	}
	return s.deleteClub(id)
}

func (s *stubClubService) ListMembers(clubID int64) ([]*clubs.Member, error) {
	if s.listMembers == nil {
		return nil, errNotStubbed
	}
	return s.listMembers(clubID)
}

func (s *stubClubService) GetMember(clubID, userID int64) (*clubs.Member, error) {
	if s.getMember == nil {
		return nil, errNotStubbed
	}
	return s.getMember(clubID, userID)
}

func (s *stubClubService) AddMember(clubID, userID int64, role rbac.Role, invitedBy *int64) error {
	if s.addMember == nil {
		return errNotStubbed
	}
	return s.addMember(clubID, userID, role, invitedBy)
}

func (s *stubClubService) UpdateMemberRole(clubID, userID int64, role rbac.Role) error {
	if s.updateRole == nil {
		return errNotStubbed
	}
	return s.updateRole(clubID, userID, role)
}

func (s *stubClubService) UpdateMemberStatus(clubID, userID int64, status rbac.MembershipStatus) error {
	if s.updateStatus == nil {
		return errNotStubbed
	}
	return s.updateStatus(clubID, userID, status)
}

func (s *stubClubService) RemoveMember(clubID, userID int64) error {
	if s.removeMember == nil {
		return errNotStubbed
	}
	return s.removeMember(clubID, userID)
}

func (s *stubClubService) CreateInvitation(invitation *clubs.Invitation) error {
	if s.createInvite == nil {
		return errNotStubbed
	}
	return s.createInvite(invitation)
}

func (s *stubClubService) GetInvitation(token string) (*clubs.Invitation, error) {
	if s.getInvite == nil {
		return nil, errNotStubbed
	}
	return s.getInvite(token)
}

func (s *stubClubService) ListInvitations(clubID int64) ([]*clubs.Invitation, error) {
	if s.listInvites == nil {
		return nil, errNotStubbed
	}
	return s.listInvites(clubID)
}

func (s *stubClubService) AcceptInvitation(token string, userID int64) error {
	if s.acceptInvite == nil {
		return errNotStubbed
	}
	return s.acceptInvite(token, userID)
}

func (s *stubClubService) RevokeInvitation(clubID, id int64) error {
	if s.revokeInvite == nil {
		return errNotStubbed
	}
	return s.revokeInvite(clubID, id)
}

func (s *stubClubService) CleanupExpiredInvitations() (int64, error) {
	if s.cleanupInvites == nil {
		return 0, errNotStubbed
	}
	return s.cleanupInvites()
}

// stubRoleSource serves role grants from an in-memory map
type stubRoleSource struct {
	grants map[string]rbac.RoleGrant
}

func newStubRoleSource() *stubRoleSource {
	return &stubRoleSource{grants: make(map[string]rbac.RoleGrant)}
}

func (s *stubRoleSource) grant(clubID, userID int64, role rbac.Role, status rbac.MembershipStatus) {
	s.grants[fmt.Sprintf("%d:%d", clubID, userID)] = rbac.RoleGrant{Role: role, Status: status}
}

func (s *stubRoleSource) GetMemberRole(ctx context.Context, clubID, userID int64) (rbac.RoleGrant, error) {
	grant, ok := s.grants[fmt.Sprintf("%d:%d", clubID, userID)]
	if !ok {
		return rbac.RoleGrant{}, rbac.ErrNoMembership
	}
	return grant, nil
}

// testEnv wires handlers against stubs the way setupRoutes does, minus
// the auth middleware: callers inject the principal per request.
type testEnv struct {
	service *stubClubService
	roles   *stubRoleSource
	audit   *recordingAuditLog
	router  *mux.Router
}

// recordingAuditLog captures audit events for assertions
type recordingAuditLog struct {
	events []*audit.Event
}

func (l *recordingAuditLog) Log(ctx context.Context, event *audit.Event) error {
	l.events = append(l.events, event)
	return nil
}

func (l *recordingAuditLog) Close() error { return nil }

func (l *recordingAuditLog) lastEventType() audit.EventType {
	if len(l.events) == 0 {
		return ""
	}
	return l.events[len(l.events)-1].EventType
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	env := &testEnv{
		service: &stubClubService{},
		roles:   newStubRoleSource(),
		audit:   &recordingAuditLog{},
		router:  mux.NewRouter(),
	}

	checker := rbac.NewChecker(env.roles, logger)
	guard := rbac.NewGuard(checker)

	clubHandlers := &ClubHandlers{service: env.service, checker: checker, auditLog: env.audit, logger: logger}
	memberHandlers := &MembershipHandlers{service: env.service, checker: checker, auditLog: env.audit, logger: logger}

	clubHandlers.RegisterRoutes(env.router, guard)
	memberHandlers.RegisterRoutes(env.router, guard)

	return env
}

// do performs a request against the test router. A zero userID leaves
// the request unauthenticated.
func (env *testEnv) do(t *testing.T, method, path string, userID int64, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != 0 {
		authCtx := &auth.AuthContext{User: &auth.User{ID: userID, Email: fmt.Sprintf("user%d@club.test", userID)}}
		req = req.WithContext(contextkeys.WithAuth(req.Context(), authCtx))
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

var _ clubs.Service = (*stubClubService)(nil)
var _ audit.Logger = (*recordingAuditLog)(nil)
var _ http.Handler = (*Server)(nil)
