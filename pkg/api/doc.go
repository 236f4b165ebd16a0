// Package api assembles the HTTP surface: the router, the middleware
// chain (request IDs, logging, recovery, metrics, rate limiting,
// bearer-token authentication) and the handlers for auth, clubs,
// memberships, invitations and the audit trail.
//
// Mutation handlers follow a fixed response ordering: unauthenticated
// requests get 401, malformed bodies get 400, and only then are
// permission and rank checks applied, returning 403 on denial. Errors
// from lower layers are mapped to 404/409 through sentinel errors;
// anything unexpected becomes a generic 500 with no detail leaked.
package api
