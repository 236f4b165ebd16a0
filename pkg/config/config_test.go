package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/clubhouse/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CLUBHOUSE_POSTGRES_URL", "postgres://localhost/clubhouse")
	t.Setenv("CLUBHOUSE_REDIS_URL", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.RoleTTL)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CLUBHOUSE_POSTGRES_URL", "postgres://localhost/clubhouse")
	t.Setenv("CLUBHOUSE_REDIS_URL", "localhost:6379")
	t.Setenv("CLUBHOUSE_PORT", "3000")
	t.Setenv("CLUBHOUSE_LOG_LEVEL", "debug")
	t.Setenv("CLUBHOUSE_SESSION_TTL", "24h")
	t.Setenv("CLUBHOUSE_ROLE_CACHE_TTL", "10s")
	t.Setenv("CLUBHOUSE_RATELIMIT_REQUESTS", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.Cache.RoleTTL)
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerWindow)
}

func TestLoadConfigMissingDatabase(t *testing.T) {
	t.Setenv("CLUBHOUSE_POSTGRES_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres URL is required")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", HealthPort: "9090"},
			Database: DatabaseConfig{
				URL:      "postgres://localhost/clubhouse",
				MaxConns: 25,
				MinConns: 5,
			},
			Auth:  AuthConfig{SessionTTL: time.Hour},
			Cache: CacheConfig{Enabled: true, RoleTTL: 30 * time.Second},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("same ports", func(t *testing.T) {
		cfg := base()
		cfg.Server.HealthPort = "8080"
		assert.Error(t, cfg.Validate())
	})

	t.Run("min conns above max", func(t *testing.T) {
		cfg := base()
		cfg.Database.MinConns = 50
		assert.Error(t, cfg.Validate())
	})

	t.Run("rate limit needs redis", func(t *testing.T) {
		cfg := base()
		cfg.RateLimit = RateLimitConfig{Enabled: true, RequestsPerWindow: 100}
		assert.Error(t, cfg.Validate())
	})

	t.Run("cache needs positive ttl", func(t *testing.T) {
		cfg := base()
		cfg.Cache.RoleTTL = 0
		assert.Error(t, cfg.Validate())
	})
}
