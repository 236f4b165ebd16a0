package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/middleware"
	"github.com/courtside/clubhouse/pkg/observability"
)

// AuthHandlers handles signup, signin and session management
type AuthHandlers struct {
	service  *auth.Service
	auditLog audit.Logger
	logger   *observability.Logger
}

type signUpRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// SignUp registers a new user account
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httputil.WriteBadRequest(w, "valid email is required")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		httputil.WriteBadRequest(w, "display_name is required")
		return
	}

	user, err := h.service.SignUp(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			httputil.WriteConflict(w, "email already registered")
		case errors.Is(err, auth.ErrPasswordTooShort):
			httputil.WriteBadRequest(w, err.Error())
		default:
			h.logger.WithError(err).Error("signup failed")
			httputil.WriteInternalError(w)
		}
		return
	}

	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeAuthSignUp,
		ActorID:   &user.ID,
	})

	httputil.WriteCreated(w, user)
}

// SignIn authenticates a user and issues a session token
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	session, token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
				EventType: audit.EventTypeAuthSignInFailed,
				Detail:    map[string]any{"email": req.Email},
			})
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}
		h.logger.WithError(err).Error("signin failed")
		httputil.WriteInternalError(w)
		return
	}

	user, err := h.service.GetUser(r.Context(), session.UserID)
	if err != nil {
		h.logger.WithError(err).Error("failed to load user after signin")
		httputil.WriteInternalError(w)
		return
	}

	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeAuthSignIn,
		ActorID:   &session.UserID,
	})

	httputil.WriteSuccess(w, signInResponse{Token: token, User: user})
}

// SignOut revokes the current session
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	token := bearerToken(r)
	if err := h.service.SignOut(r.Context(), token); err != nil {
		h.logger.WithError(err).Error("signout failed")
		httputil.WriteInternalError(w)
		return
	}

	_ = audit.Record(r.Context(), h.auditLog, &audit.Event{
		EventType: audit.EventTypeAuthSignOut,
		ActorID:   &authCtx.User.ID,
	})

	httputil.WriteNoContent(w)
}

// Me returns the authenticated user
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	httputil.WriteSuccess(w, authCtx.User)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
