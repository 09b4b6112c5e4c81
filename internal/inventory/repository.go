package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heytrack/heytrack/internal/platform/db"
)

// TxRepository exposes transactional stock operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id string) (StockItem, error)
	Update(ctx context.Context, id string, update StockUpdate) error
	// Insert creates an item that does not exist yet; an existing id is ErrItemExists.
	Insert(ctx context.Context, item StockItem) error
}

// Repository persists stock snapshots in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectStockColumns = `SELECT id, name, category, supplier, unit, quantity_on_hand, minimum_threshold,
	base_price, weighted_average_cost, expiry_date, updated_at FROM stock_items`

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxQueries(tx))
	})
}

// List returns the full stock snapshot ordered by name.
func (r *Repository) List(ctx context.Context) ([]StockItem, error) {
	rows, err := r.pool.Query(ctx, selectStockColumns+` ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []StockItem{}
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get loads a single item.
func (r *Repository) Get(ctx context.Context, id string) (StockItem, error) {
	item, err := scanStockItem(r.pool.QueryRow(ctx, selectStockColumns+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrItemNotFound
	}
	return item, err
}

// Upsert inserts or replaces a stock item.
func (r *Repository) Upsert(ctx context.Context, item StockItem) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO stock_items (id, name, category, supplier, unit, quantity_on_hand,
		minimum_threshold, base_price, weighted_average_cost, expiry_date, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, category=EXCLUDED.category,
			supplier=EXCLUDED.supplier, unit=EXCLUDED.unit, quantity_on_hand=EXCLUDED.quantity_on_hand,
			minimum_threshold=EXCLUDED.minimum_threshold, base_price=EXCLUDED.base_price,
			weighted_average_cost=EXCLUDED.weighted_average_cost, expiry_date=EXCLUDED.expiry_date,
			updated_at=EXCLUDED.updated_at`,
		item.ID, item.Name, item.Category, item.Supplier, item.Unit, item.QuantityOnHand,
		item.MinimumThreshold, item.BasePrice, item.WeightedAverageCost, item.ExpiryDate, updatedAt(item))
	return err
}

type txQueries struct {
	tx pgx.Tx
}

// NewTxQueries binds stock operations to an open transaction.
func NewTxQueries(tx pgx.Tx) TxRepository {
	return &txQueries{tx: tx}
}

func (q *txQueries) GetForUpdate(ctx context.Context, id string) (StockItem, error) {
	item, err := scanStockItem(q.tx.QueryRow(ctx, selectStockColumns+` WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrItemNotFound
	}
	return item, err
}

func (q *txQueries) Update(ctx context.Context, id string, update StockUpdate) error {
	sets, args := updateClauses(update, func(n int) string { return fmt.Sprintf("$%d", n) })
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE stock_items SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	tag, err := q.tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (q *txQueries) Insert(ctx context.Context, item StockItem) error {
	_, err := q.tx.Exec(ctx, `INSERT INTO stock_items (id, name, category, supplier, unit, quantity_on_hand,
		minimum_threshold, base_price, weighted_average_cost, expiry_date, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		item.ID, item.Name, item.Category, item.Supplier, item.Unit, item.QuantityOnHand,
		item.MinimumThreshold, item.BasePrice, item.WeightedAverageCost, item.ExpiryDate, updatedAt(item))
	if db.IsUniqueViolation(err) {
		return ErrItemExists
	}
	return err
}

// updateClauses renders SET fragments for the non-nil fields of update plus updated_at.
func updateClauses(update StockUpdate, placeholder func(int) string) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=%s", col, placeholder(len(args))))
	}
	if update.QuantityOnHand != nil {
		add("quantity_on_hand", *update.QuantityOnHand)
	}
	if update.WeightedAverageCost != nil {
		add("weighted_average_cost", *update.WeightedAverageCost)
	}
	if update.BasePrice != nil {
		add("base_price", *update.BasePrice)
	}
	if len(sets) == 0 {
		return nil, nil
	}
	add("updated_at", time.Now().UTC())
	return sets, args
}

func scanStockItem(row pgx.Row) (StockItem, error) {
	var item StockItem
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Supplier, &item.Unit,
		&item.QuantityOnHand, &item.MinimumThreshold, &item.BasePrice, &item.WeightedAverageCost,
		&item.ExpiryDate, &item.UpdatedAt)
	return item, err
}

func updatedAt(item StockItem) time.Time {
	if item.UpdatedAt.IsZero() {
		return time.Now().UTC()
	}
	return item.UpdatedAt
}
