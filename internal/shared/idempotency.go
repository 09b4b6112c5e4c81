package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heytrack/heytrack/internal/platform/db"
)

// ErrIdempotencyConflict means the key was already claimed.
var ErrIdempotencyConflict = fmt.Errorf("idempotent request already processed: %w", ErrConflict)

var errIdempotencyUninitialised = errors.New("shared: idempotency store not initialised")

// IdempotencyStore claims operation keys in idempotency_keys so a side effect runs once.
type IdempotencyStore struct {
	db  Execer
	now func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(db Execer) *IdempotencyStore {
	return &IdempotencyStore{db: db, now: time.Now}
}

// CheckAndInsert claims key for module. A key claimed earlier yields ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.db == nil {
		return errIdempotencyUninitialised
	}
	if key == "" || module == "" {
		return fmt.Errorf("shared: idempotency key and module required: %w", ErrInvalidInput)
	}
	_, err := s.db.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`, key, module, s.now().UTC())
	switch {
	case db.IsUniqueViolation(err):
		return ErrIdempotencyConflict
	case err != nil:
		return fmt.Errorf("shared: claim idempotency key: %w", err)
	}
	return nil
}

// Delete releases a key after the guarded work failed.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if key == "" {
		return fmt.Errorf("shared: idempotency key required: %w", ErrInvalidInput)
	}
	_, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE key=$1`, key)
	return err
}

// Cleanup drops keys older than retention and returns how many were removed.
func (s *IdempotencyStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().Add(-retention).UTC())
	if err != nil {
		return 0, fmt.Errorf("shared: cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
