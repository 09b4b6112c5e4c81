package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS stock_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		supplier TEXT NOT NULL,
		unit TEXT NOT NULL,
		quantity_on_hand NUMERIC(18,4) NOT NULL DEFAULT 0,
		minimum_threshold NUMERIC(18,4) NOT NULL DEFAULT 0,
		base_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		weighted_average_cost NUMERIC(18,4),
		expiry_date DATE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		supplier TEXT NOT NULL,
		purchase_date DATE NOT NULL,
		total_value NUMERIC(18,2) NOT NULL,
		status TEXT NOT NULL,
		calculation_method TEXT NOT NULL DEFAULT 'AVERAGE',
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_lines (
		purchase_id TEXT NOT NULL REFERENCES purchases(id) ON DELETE CASCADE,
		line_no INT NOT NULL,
		stock_item_id TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity NUMERIC(18,4) NOT NULL,
		unit TEXT NOT NULL,
		unit_price NUMERIC(18,2) NOT NULL,
		subtotal NUMERIC(18,2) NOT NULL,
		PRIMARY KEY (purchase_id, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		key TEXT PRIMARY KEY,
		module TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables used by the service when they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, q := range postgresSchema {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("platform/db: migrate: %w", err)
		}
	}
	return nil
}
