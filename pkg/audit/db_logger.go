package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DBLogger implements audit logging to PostgreSQL. The audit_logs
// table is created by the clubs migrations.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-backed audit logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db}, nil
}

// Log inserts an audit event into the database
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	detailJSON := []byte("{}")
	if event.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal detail: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (event_type, actor_id, club_id, target_user_id,
		                        decision, permission, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := l.db.QueryRowContext(ctx, query,
		event.EventType, event.ActorID, event.ClubID, event.TargetUserID,
		nullableString(string(event.Decision)), nullableString(event.Permission),
		detailJSON, nullableString(event.RequestID), event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// Close is a no-op for the database logger; the pool is owned by the caller
func (l *DBLogger) Close() error {
	return nil
}

// Search queries audit logs matching the filter, newest first
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Event, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.ClubID != nil {
		conditions = append(conditions, fmt.Sprintf("club_id = $%d", argPos))
		args = append(args, *filter.ClubID)
		argPos++
	}
	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argPos))
		args = append(args, *filter.ActorID)
		argPos++
	}
	if len(filter.EventTypes) > 0 {
		placeholders := make([]string, len(filter.EventTypes))
		for i, et := range filter.EventTypes {
			placeholders[i] = fmt.Sprintf("$%d", argPos)
			args = append(args, et)
			argPos++
		}
		conditions = append(conditions, fmt.Sprintf("event_type IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *filter.StartTime)
		argPos++
	}
	if filter.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *filter.EndTime)
		argPos++
	}

	query := `
		SELECT id, event_type, actor_id, club_id, target_user_id,
		       decision, permission, detail, request_id, created_at
		FROM audit_logs
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argPos)
	args = append(args, limit)
	argPos++
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit logs: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		var decision, permission, requestID sql.NullString
		var detailJSON []byte
		if err := rows.Scan(
			&event.ID, &event.EventType, &event.ActorID, &event.ClubID, &event.TargetUserID,
			&decision, &permission, &detailJSON, &requestID, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		event.Decision = Decision(decision.String)
		event.Permission = permission.String
		event.RequestID = requestID.String
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &event.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
			}
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// ApplyRetention deletes events older than the policy allows and
// reports how many were removed
func (l *DBLogger) ApplyRetention(ctx context.Context, policy RetentionPolicy) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -policy.RetentionDays)

	result, err := l.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to apply retention: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
