package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const sqliteDateLayout = "2006-01-02"

// SQLiteRepository persists stock snapshots in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an opened SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectStockColumnsSQLite = `SELECT id, name, category, supplier, unit, quantity_on_hand, minimum_threshold,
	base_price, weighted_average_cost, expiry_date, updated_at FROM stock_items`

// WithTx executes the callback inside a SQLite transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &sqliteTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the full stock snapshot ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]StockItem, error) {
	rows, err := r.db.QueryContext(ctx, selectStockColumnsSQLite+` ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []StockItem{}
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get loads a single item.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (StockItem, error) {
	return getSQLiteItem(ctx, r.db, id)
}

// Upsert inserts or replaces a stock item.
func (r *SQLiteRepository) Upsert(ctx context.Context, item StockItem) error {
	var expiry any
	if item.ExpiryDate != nil {
		expiry = item.ExpiryDate.Format(sqliteDateLayout)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO stock_items (id, name, category, supplier, unit, quantity_on_hand,
		minimum_threshold, base_price, weighted_average_cost, expiry_date, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, category=excluded.category,
			supplier=excluded.supplier, unit=excluded.unit, quantity_on_hand=excluded.quantity_on_hand,
			minimum_threshold=excluded.minimum_threshold, base_price=excluded.base_price,
			weighted_average_cost=excluded.weighted_average_cost, expiry_date=excluded.expiry_date,
			updated_at=excluded.updated_at`,
		item.ID, item.Name, item.Category, item.Supplier, item.Unit, item.QuantityOnHand,
		item.MinimumThreshold, item.BasePrice, item.WeightedAverageCost, expiry,
		updatedAt(item).Format(time.RFC3339Nano))
	return err
}

type sqliteTx struct {
	tx *sql.Tx
}

func (s *sqliteTx) GetForUpdate(ctx context.Context, id string) (StockItem, error) {
	return getSQLiteItem(ctx, s.tx, id)
}

func (s *sqliteTx) Update(ctx context.Context, id string, update StockUpdate) error {
	sets, args := updateClauses(update, func(int) string { return "?" })
	if len(sets) == 0 {
		return nil
	}
	// updated_at is the last argument; SQLite stores it as text.
	args[len(args)-1] = args[len(args)-1].(time.Time).Format(time.RFC3339Nano)
	args = append(args, id)
	res, err := s.tx.ExecContext(ctx, fmt.Sprintf("UPDATE stock_items SET %s WHERE id=?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *sqliteTx) Insert(ctx context.Context, item StockItem) error {
	if _, err := getSQLiteItem(ctx, s.tx, item.ID); err == nil {
		return ErrItemExists
	} else if !errors.Is(err, ErrItemNotFound) {
		return err
	}
	var expiry any
	if item.ExpiryDate != nil {
		expiry = item.ExpiryDate.Format(sqliteDateLayout)
	}
	_, err := s.tx.ExecContext(ctx, `INSERT INTO stock_items (id, name, category, supplier, unit, quantity_on_hand,
		minimum_threshold, base_price, weighted_average_cost, expiry_date, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		item.ID, item.Name, item.Category, item.Supplier, item.Unit, item.QuantityOnHand,
		item.MinimumThreshold, item.BasePrice, item.WeightedAverageCost, expiry,
		updatedAt(item).Format(time.RFC3339Nano))
	return err
}

type sqliteQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSQLiteItem(ctx context.Context, q sqliteQuerier, id string) (StockItem, error) {
	item, err := scanSQLiteItem(q.QueryRowContext(ctx, selectStockColumnsSQLite+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return StockItem{}, ErrItemNotFound
	}
	return item, err
}

type sqliteScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row sqliteScanner) (StockItem, error) {
	var (
		item    StockItem
		wac     sql.NullFloat64
		expiry  sql.NullString
		updated string
	)
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Supplier, &item.Unit,
		&item.QuantityOnHand, &item.MinimumThreshold, &item.BasePrice, &wac, &expiry, &updated)
	if err != nil {
		return StockItem{}, err
	}
	if wac.Valid {
		v := wac.Float64
		item.WeightedAverageCost = &v
	}
	if expiry.Valid && expiry.String != "" {
		t, err := time.Parse(sqliteDateLayout, expiry.String)
		if err != nil {
			return StockItem{}, fmt.Errorf("inventory: parse expiry %q: %w", expiry.String, err)
		}
		item.ExpiryDate = &t
	}
	if updated != "" {
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			item.UpdatedAt = t
		}
	}
	return item, nil
}
