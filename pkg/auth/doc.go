// Package auth provides identity for the Clubhouse service: user
// accounts, password sign-up/sign-in, and opaque bearer session tokens.
//
// Tokens are random 256-bit values stored only as SHA256 hashes.
// Authorization (who may do what inside a club) is deliberately not
// handled here; see pkg/rbac.
package auth
