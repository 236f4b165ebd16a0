// Package postgres provides database infrastructure: a connection
// manager with primary/replica routing and pool health management, and
// a redis client constructor used by the role cache and rate limiter.
package postgres
