package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/heytrack/heytrack/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]StockItem, error)
	Get(ctx context.Context, id string) (StockItem, error)
	Upsert(ctx context.Context, item StockItem) error
}

// ReportCache abstracts the versioned cache used for stock reports.
type ReportCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	ExpiryWindowDays int
}

// Service coordinates stock snapshot reads, imports and adjustments.
type Service struct {
	repo       RepositoryPort
	cache      ReportCache
	audit      AuditPort
	logger     *slog.Logger
	expiryDays int
	reports    singleflight.Group
	now        func() time.Time
}

// NewService builds Service. cache and audit may be nil.
func NewService(repo RepositoryPort, cache ReportCache, audit AuditPort, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	days := cfg.ExpiryWindowDays
	if days <= 0 {
		days = DefaultExpiryWindowDays
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		audit:      audit,
		logger:     logger,
		expiryDays: days,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ItemView is a stock item enriched with its derived valuation fields.
type ItemView struct {
	StockItem
	EffectivePrice float64       `json:"effective_price"`
	PricingMethod  PricingMethod `json:"pricing_method"`
	StockValue     float64       `json:"stock_value"`
	Level          LevelInfo     `json:"level"`
}

// NewItemView derives valuation fields for item.
func NewItemView(item StockItem) ItemView {
	price, method := resolvePrice(&item)
	return ItemView{
		StockItem:      item,
		EffectivePrice: price,
		PricingMethod:  method,
		StockValue:     itemValue(&item),
		Level:          ClassifyStockLevel(item.QuantityOnHand, item.MinimumThreshold),
	}
}

// Snapshot returns every stock item.
func (s *Service) Snapshot(ctx context.Context) ([]StockItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list: %w", err)
	}
	return items, nil
}

// ListItems returns one page of the stock snapshot with derived fields.
func (s *Service) ListItems(ctx context.Context, page, perPage int) (shared.Page[ItemView], error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return shared.Page[ItemView]{}, err
	}
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, NewItemView(item))
	}
	return shared.Paginate(views, page, perPage), nil
}

// Level classifies a single item.
func (s *Service) Level(ctx context.Context, id string) (ItemView, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return ItemView{}, fmt.Errorf("inventory: get %s: %w", id, err)
	}
	return NewItemView(item), nil
}

// Report builds the stock report for today, served from cache when possible.
// Concurrent callers share one build.
func (s *Service) Report(ctx context.Context) (StockReport, error) {
	now := s.now()
	key, err := s.cacheKey(ctx, "report", now.Format("2006-01-02"), fmt.Sprintf("d%d", s.expiryDays))
	if err != nil {
		return StockReport{}, err
	}
	resCh := s.reports.DoChan(key, func() (any, error) {
		var report StockReport
		err := s.fetch(ctx, key, &report, func(ctx context.Context) (any, error) {
			items, err := s.Snapshot(ctx)
			if err != nil {
				return nil, err
			}
			return GenerateStockReportWithin(items, s.expiryDays, now), nil
		})
		return report, err
	})
	select {
	case <-ctx.Done():
		return StockReport{}, ctx.Err()
	case res := <-resCh:
		if res.Err != nil {
			return StockReport{}, res.Err
		}
		return res.Val.(StockReport), nil
	}
}

// Export returns the formatted export rows for the full snapshot.
func (s *Service) Export(ctx context.Context) ([]ExportRow, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ExportRows(items), nil
}

// ImportRowError describes a rejected import row.
type ImportRowError struct {
	Row    int      `json:"row"`
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
}

// ImportResult summarises an import batch.
type ImportResult struct {
	Imported []string         `json:"imported"`
	Rejected []ImportRowError `json:"rejected"`
	Warnings []string         `json:"warnings"`
}

// Import validates each row and persists the valid ones. Rows without ID get a new UUID.
func (s *Service) Import(ctx context.Context, actor string, rows []StockItem) (ImportResult, error) {
	res := ImportResult{Imported: []string{}, Rejected: []ImportRowError{}, Warnings: []string{}}
	for i, row := range rows {
		check := ValidateStockItem(row)
		if !check.IsValid {
			res.Rejected = append(res.Rejected, ImportRowError{Row: i + 1, Name: row.Name, Errors: check.Errors})
			continue
		}
		for _, w := range check.Warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Baris %d (%s): %s", i+1, row.Name, w))
		}
		row.ID = strings.TrimSpace(row.ID)
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.Name = strings.TrimSpace(row.Name)
		row.Unit = strings.ToLower(strings.TrimSpace(row.Unit))
		row.UpdatedAt = s.now()
		if err := s.repo.Upsert(ctx, row); err != nil {
			return res, fmt.Errorf("inventory: import row %d: %w", i+1, err)
		}
		res.Imported = append(res.Imported, row.ID)
	}
	if len(res.Imported) > 0 {
		s.InvalidateReports(ctx)
		s.record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   "inventory:import",
			Entity:   "stock_items",
			EntityID: "batch",
			Meta:     map[string]any{"imported": len(res.Imported), "rejected": len(res.Rejected)},
		})
	}
	s.logger.Info("stock import processed",
		slog.Int("imported", len(res.Imported)),
		slog.Int("rejected", len(res.Rejected)))
	return res, nil
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ItemID   string  `json:"-"`
	Qty      float64 `json:"qty"`
	UnitCost float64 `json:"unit_cost"`
	Note     string  `json:"note"`
	Actor    string  `json:"-"`
}

// PostAdjustment applies a signed quantity change. Positive adjustments with a unit
// cost blend into the weighted average cost; negative ones keep it.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (StockItem, error) {
	if strings.TrimSpace(input.ItemID) == "" {
		return StockItem{}, fmt.Errorf("%w: item id required", ErrInvalidItem)
	}
	if math.Abs(input.Qty) < 1e-9 || !shared.IsFinite(input.Qty) {
		return StockItem{}, ErrInvalidQuantity
	}
	if input.UnitCost < 0 || !shared.IsFinite(input.UnitCost) {
		return StockItem{}, ErrInvalidUnitCost
	}
	var updated StockItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		newQty := item.QuantityOnHand + input.Qty
		if newQty < -1e-4 {
			return ErrNegativeStock
		}
		if math.Abs(newQty) < 1e-4 {
			newQty = 0
		}
		update := StockUpdate{QuantityOnHand: &newQty}
		if input.Qty > 0 && input.UnitCost > 0 {
			wac := BlendWAC(item.QuantityOnHand, EffectiveUnitPrice(&item), input.Qty, input.UnitCost)
			update.WeightedAverageCost = &wac
			item.WeightedAverageCost = &wac
		}
		if err := tx.Update(ctx, item.ID, update); err != nil {
			return err
		}
		item.QuantityOnHand = newQty
		updated = item
		return nil
	})
	if err != nil {
		return StockItem{}, fmt.Errorf("inventory: adjust %s: %w", input.ItemID, err)
	}
	s.InvalidateReports(ctx)
	s.record(ctx, shared.AuditLog{
		Actor:    input.Actor,
		Action:   "inventory:adjust",
		Entity:   "stock_item",
		EntityID: input.ItemID,
		Meta:     map[string]any{"qty": input.Qty, "unit_cost": input.UnitCost, "note": input.Note},
	})
	return updated, nil
}

// BlendWAC returns the weighted average after receiving addQty at addCost on top of
// qty units valued at cost. A zero combined quantity yields addCost.
func BlendWAC(qty, cost, addQty, addCost float64) float64 {
	if qty < 0 {
		qty = 0
	}
	total := qty + addQty
	if total == 0 {
		return addCost
	}
	return (qty*cost + addQty*addCost) / total
}

// InvalidateReports bumps the report cache version. Failures are logged only.
func (s *Service) InvalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}

func (s *Service) cacheKey(ctx context.Context, parts ...string) (string, error) {
	if s.cache == nil {
		return strings.Join(append([]string{"inventory"}, parts...), ":"), nil
	}
	return s.cache.BuildKey(ctx, parts...)
}

func (s *Service) fetch(ctx context.Context, key string, dest *StockReport, loader func(context.Context) (any, error)) error {
	if s.cache == nil {
		v, err := loader(ctx)
		if err != nil {
			return err
		}
		*dest = v.(StockReport)
		return nil
	}
	return s.cache.Fetch(ctx, key, dest, loader)
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", log.Action), slog.Any("error", err))
	}
}
