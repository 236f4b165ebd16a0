package audit

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/clubhouse/pkg/rbac"
)

func newMockDBLogger(t *testing.T) (*DBLogger, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	logger, err := NewDBLogger(db)
	require.NoError(t, err)
	return logger, mock, db
}

func TestNewDBLogger(t *testing.T) {
	t.Run("requires database", func(t *testing.T) {
		logger, err := NewDBLogger(nil)
		assert.Nil(t, logger)
		assert.Error(t, err)
	})
}

func TestDBLoggerLog(t *testing.T) {
	logger, mock, db := newMockDBLogger(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("access denied event", func(t *testing.T) {
		event := NewAccessDenied(10, 1, rbac.PermClubManageMembers, rbac.RoleMember)
		event.RequestID = "req-1"

		mock.ExpectQuery(`INSERT INTO audit_logs`).
			WithArgs(EventTypeAuthzAccessDenied, int64(10), int64(1), nil,
				sql.NullString{String: "deny", Valid: true},
				sql.NullString{String: "club:manage_members", Valid: true},
				sqlmock.AnyArg(),
				sql.NullString{String: "req-1", Valid: true},
				sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		err := logger.Log(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, int64(42), event.ID)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure surfaces", func(t *testing.T) {
		event := NewMembershipEvent(EventTypeMemberAdd, 10, 1, 11)

		mock.ExpectQuery(`INSERT INTO audit_logs`).
			WillReturnError(fmt.Errorf("connection refused"))

		err := logger.Log(ctx, event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert audit log")

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBLoggerSearch(t *testing.T) {
	logger, mock, db := newMockDBLogger(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("filter by club", func(t *testing.T) {
		clubID := int64(1)
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "event_type", "actor_id", "club_id", "target_user_id",
			"decision", "permission", "detail", "request_id", "created_at",
		}).
			AddRow(2, EventTypeMemberRoleChange, 10, clubID, 11, nil, nil, []byte(`{"from":"member","to":"admin"}`), "req-2", now).
			AddRow(1, EventTypeAuthzAccessDenied, 12, clubID, nil, "deny", "club:manage_members", []byte(`{}`), nil, now.Add(-time.Minute))

		mock.ExpectQuery(`SELECT id, event_type, actor_id, club_id, target_user_id`).
			WithArgs(clubID, 100).
			WillReturnRows(rows)

		events, err := logger.Search(ctx, SearchFilter{ClubID: &clubID})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeMemberRoleChange, events[0].EventType)
		assert.Equal(t, "admin", events[0].Detail["to"])
		assert.Equal(t, DecisionDeny, events[1].Decision)
		assert.Equal(t, "club:manage_members", events[1].Permission)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBLoggerApplyRetention(t *testing.T) {
	logger, mock, db := newMockDBLogger(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM audit_logs WHERE created_at`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 17))

	deleted, err := logger.ApplyRetention(context.Background(), DefaultRetentionPolicy())
	require.NoError(t, err)
	assert.Equal(t, int64(17), deleted)

	require.NoError(t, mock.ExpectationsWereMet())
}
