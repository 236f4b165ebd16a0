// Package clubs manages clubs, memberships and invitations.
//
// PostgresService is the single persistence layer for the club domain
// and doubles as the rbac.RoleSource that the authorization checker
// resolves roles through: GetMemberRole returns the stored role grant
// for a (club, user) pair and rbac.ErrNoMembership when none exists.
//
// Invitations carry a random token and expire after seven days;
// accepting one enrolls the user inside a transaction so a token can
// only be redeemed once.
package clubs
