package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileLogger writes audit events as JSON lines to a file using logrus.
// It is intended as a durable secondary sink alongside the database
// logger; the file survives database outages.
type FileLogger struct {
	logger *logrus.Logger
	file   *os.File
}

// NewFileLogger creates a file-based audit logger writing to
// <basePath>/audit.log
func NewFileLogger(basePath string) (*FileLogger, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	filename := filepath.Join(basePath, "audit.log")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	return &FileLogger{logger: logger, file: file}, nil
}

// Log writes an event as a structured log line
func (l *FileLogger) Log(ctx context.Context, event *Event) error {
	fields := logrus.Fields{
		"event_type": event.EventType,
	}
	if event.ActorID != nil {
		fields["actor_id"] = *event.ActorID
	}
	if event.ClubID != nil {
		fields["club_id"] = *event.ClubID
	}
	if event.TargetUserID != nil {
		fields["target_user_id"] = *event.TargetUserID
	}
	if event.Decision != "" {
		fields["decision"] = event.Decision
	}
	if event.Permission != "" {
		fields["permission"] = event.Permission
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	for k, v := range event.Detail {
		fields["detail_"+k] = v
	}

	l.logger.WithFields(fields).WithTime(event.CreatedAt).Info("audit")
	return nil
}

// Close closes the underlying file
func (l *FileLogger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
