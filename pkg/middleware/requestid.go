package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/courtside/clubhouse/pkg/contextkeys"
	"github.com/courtside/clubhouse/pkg/observability"
)

// RequestIDHeader is the header request IDs are read from and echoed on
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a UUID (or honors the one presented)
// and threads it through the context for logging and audit trails
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)

		// Both the logger and the audit trail resolve the ID from context.
		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		ctx = observability.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
