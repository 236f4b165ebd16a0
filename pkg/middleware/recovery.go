package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/courtside/clubhouse/pkg/httputil"
	"github.com/courtside/clubhouse/pkg/observability"
)

// Recovery converts handler panics into generic 500 responses. The
// panic value and stack are logged; nothing internal reaches the client.
func Recovery(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithField("panic", rec).
						WithField("stack", string(debug.Stack())).
						WithField("path", r.URL.Path).
						Error("panic recovered in handler")
					httputil.WriteInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
