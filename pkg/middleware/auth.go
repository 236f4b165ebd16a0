package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/contextkeys"
	"github.com/courtside/clubhouse/pkg/httputil"
)

// TokenValidator resolves a bearer token to its principal. Implemented
// by auth.Service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.AuthContext, error)
}

// AuthMiddleware authenticates requests via the Authorization header
type AuthMiddleware struct {
	validator TokenValidator
	optional  bool
}

// NewAuthMiddleware creates authentication middleware. When optional is
// true, requests without credentials pass through unauthenticated and
// downstream guards make the final call.
func NewAuthMiddleware(validator TokenValidator, optional bool) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, optional: optional}
}

// Handler wraps an HTTP handler with bearer-token authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		authCtx, err := m.validator.ValidateToken(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthContext extracts the auth context from a request, or nil when
// the request is unauthenticated
func GetAuthContext(r *http.Request) *auth.AuthContext {
	val := r.Context().Value(contextkeys.AuthKey)
	if val == nil {
		return nil
	}
	authCtx, ok := val.(*auth.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
