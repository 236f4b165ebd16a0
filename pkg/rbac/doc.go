// Package rbac provides role-based access control for the Clubhouse club
// membership service.
//
// # Overview
//
// Authorization is built from two layers:
//
//  1. A static catalog: the closed role set (owner, admin, member,
//     guest), a total authority order over it, the permission catalog,
//     and a hand-authored role→permission table.
//  2. A decision service (Checker) that resolves a principal's role for
//     a club through a membership lookup and evaluates the catalog.
//
// The catalog is immutable process-wide data: roles and permissions are
// never defined at runtime, there are no per-resource ACLs, and there is
// no administrative surface for editing the table.
//
// # Decision predicates
//
// Two predicates answer every authorization question:
//
//	HasPermission(role, perm) - does the role hold the permission?
//	CanManage(manager, target) - does manager strictly outrank target?
//
// Both are pure and total. The role→permission table is authored per
// role, not derived from rank: holding a higher rank does not imply a
// superset of permissions (member deliberately lacks session:update that
// admin holds). Rank is consulted only by CanManage.
//
// # Fail-closed resolution
//
// Checker.ResolveRole collapses "no membership row", "lookup failed",
// and "unauthenticated" into RoleNone. HasPermission(RoleNone, p) is
// false for every p, so any uncertainty about a principal's role denies
// by default. The underlying lookup error is logged and counted for
// operators but never changes the decision.
//
// # Guard usage
//
//	guard := rbac.NewGuard(checker)
//	r.Handle("/clubs/{club_id}/sessions",
//	    guard.RequirePermission(rbac.PermSessionCreate)(createSession),
//	).Methods("POST")
//
// Unauthenticated requests get 401 before any role resolution; denied
// requests get 403; requests with no club context get 400. The three
// outcomes are deliberately distinct signals.
package rbac
