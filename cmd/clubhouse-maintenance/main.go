package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/courtside/clubhouse/pkg/audit"
	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/clubs"
	"github.com/courtside/clubhouse/pkg/config"
	"github.com/courtside/clubhouse/pkg/observability"
	"github.com/courtside/clubhouse/pkg/storage/postgres"
)

// The maintenance binary runs the periodic housekeeping jobs: expired
// session and invitation cleanup plus audit log retention. It is
// deployed as a single replica alongside the API servers so the jobs
// never run concurrently.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("maintenance worker exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	connMgr, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL: cfg.Database.URL,
		MaxConns:   5,
		MinConns:   1,
		Timeout:    cfg.Database.Timeout,
	}, logger)
	if err != nil {
		return err
	}
	defer connMgr.Close()

	authService := auth.NewService(connMgr.Primary(), cfg.Auth.SessionTTL)
	clubService := clubs.NewPostgresService(connMgr.Primary())
	auditStore, err := audit.NewDBLogger(connMgr.Primary())
	if err != nil {
		return err
	}

	retention := audit.RetentionPolicy{RetentionDays: cfg.Audit.RetentionDays}

	scheduler := cron.New()

	_, err = scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := authService.CleanupExpiredSessions(ctx)
		if err != nil {
			logger.WithError(err).Error("session cleanup failed")
			return
		}
		logger.WithField("removed", count).Info("expired sessions cleaned up")
	})
	if err != nil {
		return err
	}

	_, err = scheduler.AddFunc("@hourly", func() {
		count, err := clubService.CleanupExpiredInvitations()
		if err != nil {
			logger.WithError(err).Error("invitation cleanup failed")
			return
		}
		logger.WithField("removed", count).Info("expired invitations cleaned up")
	})
	if err != nil {
		return err
	}

	_, err = scheduler.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		count, err := auditStore.ApplyRetention(ctx, retention)
		if err != nil {
			logger.WithError(err).Error("audit retention failed")
			return
		}
		logger.WithField("removed", count).Info("audit retention applied")
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	logger.Info("maintenance scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("received signal %s, stopping scheduler", sig)

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Minute):
		logger.Warn("timed out waiting for running jobs")
	}

	return nil
}
