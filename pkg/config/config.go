package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/courtside/clubhouse/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Cache         CacheConfig
	Audit         AuditConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL         string
	ReplicaURLs string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	SessionTTL time.Duration
}

// CacheConfig controls the role resolution cache
type CacheConfig struct {
	Enabled   bool
	RoleTTL   time.Duration
	L1Entries int
}

// AuditConfig controls audit sinks
type AuditConfig struct {
	FileEnabled   bool
	FilePath      string
	RetentionDays int
}

// RateLimitConfig controls request rate limiting
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("CLUBHOUSE_HOST", "0.0.0.0"),
			Port:            getEnv("CLUBHOUSE_PORT", "8080"),
			ReadTimeout:     getEnvDuration("CLUBHOUSE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CLUBHOUSE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("CLUBHOUSE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("CLUBHOUSE_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("CLUBHOUSE_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("CLUBHOUSE_POSTGRES_URL", ""),
			ReplicaURLs: getEnv("CLUBHOUSE_POSTGRES_REPLICA_URLS", ""),
			MaxConns:    getEnvInt("CLUBHOUSE_POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("CLUBHOUSE_POSTGRES_MIN_CONNS", 5),
			Timeout:     getEnvDuration("CLUBHOUSE_POSTGRES_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("CLUBHOUSE_REDIS_URL", ""),
			Password: getEnv("CLUBHOUSE_REDIS_PASSWORD", ""),
			DB:       getEnvInt("CLUBHOUSE_REDIS_DB", 0),
			PoolSize: getEnvInt("CLUBHOUSE_REDIS_POOL_SIZE", 10),
		},
		Auth: AuthConfig{
			SessionTTL: getEnvDuration("CLUBHOUSE_SESSION_TTL", 30*24*time.Hour),
		},
		Cache: CacheConfig{
			Enabled:   getEnvBool("CLUBHOUSE_ROLE_CACHE_ENABLED", true),
			RoleTTL:   getEnvDuration("CLUBHOUSE_ROLE_CACHE_TTL", 30*time.Second),
			L1Entries: getEnvInt("CLUBHOUSE_ROLE_CACHE_ENTRIES", 4096),
		},
		Audit: AuditConfig{
			FileEnabled:   getEnvBool("CLUBHOUSE_AUDIT_FILE_ENABLED", false),
			FilePath:      getEnv("CLUBHOUSE_AUDIT_FILE_PATH", "/var/log/clubhouse/audit"),
			RetentionDays: getEnvInt("CLUBHOUSE_AUDIT_RETENTION_DAYS", 90),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("CLUBHOUSE_RATELIMIT_ENABLED", true),
			RequestsPerWindow: getEnvInt("CLUBHOUSE_RATELIMIT_REQUESTS", 300),
			WindowDuration:    getEnvDuration("CLUBHOUSE_RATELIMIT_WINDOW", time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("CLUBHOUSE_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("CLUBHOUSE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("postgres min connections cannot exceed max connections")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.Cache.Enabled && c.Cache.RoleTTL <= 0 {
		return fmt.Errorf("role cache TTL must be positive when caching is enabled")
	}

	if c.RateLimit.Enabled {
		if c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required when rate limiting is enabled")
		}
		if c.RateLimit.RequestsPerWindow <= 0 {
			return fmt.Errorf("rate limit requests per window must be positive")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
