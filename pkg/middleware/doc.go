// Package middleware provides the HTTP middleware chain shared by all
// API routes: request ID propagation, bearer-token authentication,
// structured request logging, panic recovery and redis-backed rate
// limiting.
//
// Middleware is applied outermost-first in the order RequestID,
// Logging, Recovery, Auth, RateLimiter; the limiter runs after
// authentication so it can key on the user ID, falling back to the
// remote address on the public auth routes. Route-level authorization
// guards live in the rbac package and run after authentication.
package middleware
