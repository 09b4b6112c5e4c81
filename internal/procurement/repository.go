package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heytrack/heytrack/internal/inventory"
	"github.com/heytrack/heytrack/internal/platform/db"
	"github.com/heytrack/heytrack/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id string) (Purchase, error)
	UpdateStatus(ctx context.Context, id string, status Status, completedAt *time.Time) error
	Stock() inventory.TxRepository
}

type txRepo struct {
	tx    pgx.Tx
	stock inventory.TxRepository
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, stock: inventory.NewTxQueries(tx)})
	})
}

const selectPurchase = `SELECT id, supplier, purchase_date, total_value, status, calculation_method, completed_at
	FROM purchases WHERE id=$1`

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Get returns the purchase with its lines.
func (r *Repository) Get(ctx context.Context, id string) (Purchase, error) {
	return loadPurchase(ctx, r.pool, selectPurchase, id)
}

// Create stores a new purchase and its lines.
func (r *Repository) Create(ctx context.Context, p Purchase) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO purchases (id, supplier, purchase_date, total_value, status, calculation_method, completed_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Supplier, p.Date, p.TotalValue, string(p.Status), string(p.CalculationMethod), p.CompletedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("procurement: purchase %s already exists: %w", p.ID, shared.ErrConflict)
		}
		if err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, line := range p.Items {
			batch.Queue(`INSERT INTO purchase_lines (purchase_id, line_no, stock_item_id, name, quantity, unit, unit_price, subtotal)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				p.ID, i+1, line.StockItemID, line.Name, line.Quantity, line.Unit, line.UnitPrice, line.Subtotal)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (t *txRepo) GetForUpdate(ctx context.Context, id string) (Purchase, error) {
	return loadPurchase(ctx, t.tx, selectPurchase+` FOR UPDATE`, id)
}

func (t *txRepo) UpdateStatus(ctx context.Context, id string, status Status, completedAt *time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchases SET status=$1, completed_at=$2 WHERE id=$3`, string(status), completedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) Stock() inventory.TxRepository {
	return t.stock
}

func loadPurchase(ctx context.Context, q queryer, sql, id string) (Purchase, error) {
	var (
		p      Purchase
		status string
		method string
	)
	err := q.QueryRow(ctx, sql, id).Scan(&p.ID, &p.Supplier, &p.Date, &p.TotalValue, &status, &method, &p.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, ErrNotFound
	}
	if err != nil {
		return Purchase{}, err
	}
	p.Status = Status(status)
	p.CalculationMethod = CalculationMethod(method)

	rows, err := q.Query(ctx, `SELECT stock_item_id, name, quantity, unit, unit_price, subtotal
		FROM purchase_lines WHERE purchase_id=$1 ORDER BY line_no`, id)
	if err != nil {
		return Purchase{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.StockItemID, &line.Name, &line.Quantity, &line.Unit, &line.UnitPrice, &line.Subtotal); err != nil {
			return Purchase{}, err
		}
		p.Items = append(p.Items, line)
	}
	return p, rows.Err()
}
