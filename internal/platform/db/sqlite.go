package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS stock_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		supplier TEXT NOT NULL,
		unit TEXT NOT NULL,
		quantity_on_hand REAL NOT NULL DEFAULT 0,
		minimum_threshold REAL NOT NULL DEFAULT 0,
		base_price REAL NOT NULL DEFAULT 0,
		weighted_average_cost REAL,
		expiry_date TEXT,
		updated_at TEXT NOT NULL
	);`,
}

// OpenSQLite opens a SQLite database file and ensures the stock schema exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("platform/db: ping sqlite: %w", err)
	}
	for _, q := range sqliteSchema {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("platform/db: sqlite schema: %w", err)
		}
	}
	return conn, nil
}
