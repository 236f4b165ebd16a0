// Package config loads application configuration from CLUBHOUSE_*
// environment variables with sensible defaults, and validates the
// result before the server starts.
package config
