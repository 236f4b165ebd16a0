package audit

import (
	"context"
	"time"

	"github.com/courtside/clubhouse/pkg/contextkeys"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *Event) error

	// Close closes the logger and flushes any buffered events
	Close() error
}

// NopLogger discards all events. It is the default when auditing is
// not configured so callers never need a nil check.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }
func (NopLogger) Close() error                                { return nil }

// Record fills in the request ID from context and logs the event,
// stamping the timestamp if the caller left it zero.
func Record(ctx context.Context, logger Logger, event *Event) error {
	if logger == nil {
		return nil
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = contextkeys.GetRequestID(ctx)
	}
	return logger.Log(ctx, event)
}
