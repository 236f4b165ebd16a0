// Package observability provides structured logging, Prometheus metrics,
// health probes, and graceful shutdown for the Clubhouse service.
//
// Logging is JSON via slog with request IDs carried in context. Metrics
// cover HTTP traffic, authorization decisions (allow/deny), role
// resolutions (ok/not_found/error), role-cache effectiveness, and
// membership mutations. Health probes split liveness (process up) from
// readiness (database reachable; redis degrades but does not fail).
package observability
