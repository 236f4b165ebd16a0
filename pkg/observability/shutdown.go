package observability

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a cleanup hook invoked during graceful shutdown
type ShutdownFunc func(context.Context) error

// ShutdownManager drains the HTTP server and runs registered cleanup
// hooks when SIGINT/SIGTERM arrives
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	hooks   []ShutdownFunc
	timeout time.Duration
	mu      sync.Mutex
}

// NewShutdownManager creates a shutdown manager for the server
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		server:  server,
		timeout: timeout,
	}
}

// OnShutdown registers a cleanup hook. Hooks run after the HTTP server
// has drained, in registration order.
func (sm *ShutdownManager) OnShutdown(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.hooks = append(sm.hooks, fn)
}

// Wait blocks until a termination signal arrives, then shuts down
func (sm *ShutdownManager) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	sm.logger.Infof("received signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	if err := sm.server.Shutdown(ctx); err != nil {
		sm.logger.WithError(err).Error("http server shutdown failed")
	}

	sm.mu.Lock()
	hooks := sm.hooks
	sm.mu.Unlock()

	var firstErr error
	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			sm.logger.WithError(err).Error("shutdown hook failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
