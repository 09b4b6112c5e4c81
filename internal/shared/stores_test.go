package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	tag   string
	err   error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestAuditLoggerRecordDefaults(t *testing.T) {
	db := &fakeExecer{tag: "INSERT 0 1"}
	logger := NewAuditLogger(db)
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	require.NoError(t, logger.Record(context.Background(), AuditLog{Action: "stock:adjust", Entity: "stock_item", EntityID: "si-1"}))
	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	require.Equal(t, "system", args[0])
	require.Equal(t, []byte("{}"), args[4])
	require.Equal(t, fixed, args[5])
}

func TestAuditLoggerRejectsIncompleteEntry(t *testing.T) {
	logger := NewAuditLogger(&fakeExecer{})
	err := logger.Record(context.Background(), AuditLog{Action: "stock:adjust"})
	require.ErrorIs(t, err, ErrInvalidInput)

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
}

func TestIdempotencyStoreConflict(t *testing.T) {
	db := &fakeExecer{err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})}
	store := NewIdempotencyStore(db)

	err := store.CheckAndInsert(context.Background(), "PURCHASE:p-1", "procurement.purchase")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.ErrorIs(t, err, ErrConflict)

	db.err = errors.New("connection reset")
	err = store.CheckAndInsert(context.Background(), "PURCHASE:p-2", "procurement.purchase")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConflict)

	require.ErrorIs(t, store.CheckAndInsert(context.Background(), "", "procurement.purchase"), ErrInvalidInput)
}

func TestIdempotencyStoreCleanup(t *testing.T) {
	db := &fakeExecer{tag: "DELETE 3"}
	store := NewIdempotencyStore(db)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	removed, err := store.Cleanup(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 3, removed)
	require.Equal(t, fixed.Add(-24*time.Hour), db.calls[0].args[0])

	var nilStore *IdempotencyStore
	removed, err = nilStore.Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Zero(t, removed)
}
