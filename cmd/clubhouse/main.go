package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/courtside/clubhouse/pkg/api"
	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/clubs"
	"github.com/courtside/clubhouse/pkg/config"
	"github.com/courtside/clubhouse/pkg/middleware"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/rbac"
	"github.com/courtside/clubhouse/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database: primary for writes, optional replicas for reads.
	connMgr, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Database.URL,
		ReplicaURLs: postgres.ParseReplicaURLs(cfg.Database.ReplicaURLs),
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.Timeout,
		MaxLifetime: time.Hour,
		MaxIdleTime: 10 * time.Minute,
	}, logger)
	if err != nil {
		return err
	}
	defer connMgr.Close()
	connMgr.StartHealthCheckRoutine(ctx, 30*time.Second)

	migrateCtx, migrateCancel := context.WithTimeout(ctx, 2*time.Minute)
	err = clubs.RunMigrations(migrateCtx, connMgr.Primary())
	migrateCancel()
	if err != nil {
		return err
	}

	// Redis backs the shared role cache and the rate limiter. It is
	// optional: without it the service runs with in-process caching only.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = postgres.NewRedisClient(postgres.RedisConfig{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	authService := auth.NewService(connMgr.Primary(), cfg.Auth.SessionTTL)
	clubService := clubs.NewPostgresService(connMgr.Primary())

	checkerOpts := []rbac.CheckerOption{}
	if cfg.Cache.Enabled {
		l1 := rbac.NewMemoryRoleCache(cfg.Cache.L1Entries, cfg.Cache.RoleTTL)
		if redisClient != nil {
			l2 := rbac.NewRedisRoleCache(redisClient, cfg.Cache.RoleTTL)
			checkerOpts = append(checkerOpts, rbac.WithCache(rbac.NewTieredRoleCache(l1, l2)))
		} else {
			checkerOpts = append(checkerOpts, rbac.WithCache(l1))
		}
	}
	if metrics != nil {
		checkerOpts = append(checkerOpts, rbac.WithMetrics(metrics))
	}
	checker := rbac.NewChecker(clubService, logger, checkerOpts...)

	// Audit trail: always to the database, optionally mirrored to disk.
	dbAudit, err := audit.NewDBLogger(connMgr.Primary())
	if err != nil {
		return err
	}
	sinks := []audit.Logger{dbAudit}
	if cfg.Audit.FileEnabled {
		fileAudit, err := audit.NewFileLogger(cfg.Audit.FilePath)
		if err != nil {
			return err
		}
		sinks = append(sinks, fileAudit)
	}
	auditLog := audit.NewMultiLogger(sinks...)
	auditLog.SetAsync(true)
	defer auditLog.Close()

	serverOpts := []api.ServerOption{
		api.WithAuditLogger(auditLog),
		api.WithAuditStore(dbAudit),
	}
	if metrics != nil {
		serverOpts = append(serverOpts, api.WithMetrics(metrics))
	}
	if cfg.RateLimit.Enabled && redisClient != nil {
		serverOpts = append(serverOpts, api.WithRateLimiter(middleware.NewRateLimiter(redisClient, &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.WindowDuration,
		})))
	}

	apiServer := api.NewServer(authService, clubService, checker, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Probes and metrics live on their own port so they are never rate
	// limited or exposed publicly.
	healthChecker := observability.NewHealthChecker(connMgr.Primary(), redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthChecker.Liveness)
	healthMux.HandleFunc("/readyz", healthChecker.Readiness)
	observability.RegisterMetricsEndpoint(healthMux, registry)
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.OnShutdown(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})

	if metrics != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.ObserveDBPool(connMgr.Primary().Stats())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("starting API server")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// The signal waiter runs outside the group so that a server failing
	// at startup surfaces immediately instead of blocking on a signal
	// that never comes.
	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- shutdown.Wait() }()

	if err := group.Wait(); err != nil {
		return err
	}
	return <-shutdownErr
}
