package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement without returning rows; satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLog is one row in audit_logs. Actor is free text since callers identify
// themselves by name rather than user id.
type AuditLog struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes audit_logs rows.
type AuditLogger struct {
	db  Execer
	now func() time.Time
}

// NewAuditLogger returns a logger writing through db.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

// Record persists the entry, stamping it with the current time when At is zero.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("shared: audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return fmt.Errorf("shared: audit log requires action, entity and entity_id: %w", ErrInvalidInput)
	}
	if log.Actor == "" {
		log.Actor = "system"
	}
	if log.At.IsZero() {
		log.At = l.now()
	}
	meta := log.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("shared: encode audit meta: %w", err)
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.Actor, log.Action, log.Entity, log.EntityID, metaJSON, log.At.UTC())
	if err != nil {
		return fmt.Errorf("shared: insert audit log: %w", err)
	}
	return nil
}
