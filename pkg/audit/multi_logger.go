package audit

import (
	"context"
	"sync"
)

// MultiLogger fans events out to multiple audit sinks. A failure in
// one sink does not stop the others; the first error is returned.
type MultiLogger struct {
	loggers []Logger
	async   bool
	wg      sync.WaitGroup
}

// NewMultiLogger creates a multi-logger writing to every given sink
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// SetAsync makes Log return immediately, writing sinks in the background
func (m *MultiLogger) SetAsync(async bool) {
	m.async = async
}

// Log writes an audit event to all configured sinks
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	if len(m.loggers) == 0 {
		return nil
	}

	if m.async {
		// The request context is canceled as soon as the handler returns;
		// background writes must outlive it. WithoutCancel keeps the
		// context values (request ID) attached to the event.
		ctx := context.WithoutCancel(ctx)
		for _, logger := range m.loggers {
			m.wg.Add(1)
			go func(l Logger) {
				defer m.wg.Done()
				_ = l.Log(ctx, event)
			}(logger)
		}
		return nil
	}

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close waits for in-flight async writes and closes every sink
func (m *MultiLogger) Close() error {
	m.wg.Wait()

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
