package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heytrack/heytrack/internal/inventory"
	"github.com/heytrack/heytrack/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Purchase, error)
	Create(ctx context.Context, p Purchase) error
}

// StockSource provides the current stock snapshot.
type StockSource interface {
	Snapshot(ctx context.Context) ([]inventory.StockItem, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against double completion.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ReportInvalidator schedules a stock report cache refresh.
type ReportInvalidator interface {
	EnqueueReportCacheBump(ctx context.Context) error
}

// MetricsRecorder counts validation outcomes.
type MetricsRecorder interface {
	RecordPurchaseValidation(valid bool)
}

// Deps bundles optional collaborators.
type Deps struct {
	Audit       AuditPort
	Idempotency IdempotencyPort
	Invalidator ReportInvalidator
	Metrics     MetricsRecorder
}

// Service orchestrates purchase validation and completion.
type Service struct {
	repo        RepositoryPort
	stock       StockSource
	audit       AuditPort
	idempotency IdempotencyPort
	invalidator ReportInvalidator
	metrics     MetricsRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs procurement service. repo may be nil when purchases are not persisted.
func NewService(repo RepositoryPort, stock StockSource, deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		stock:       stock,
		audit:       deps.Audit,
		idempotency: deps.Idempotency,
		invalidator: deps.Invalidator,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

var errNoRepository = errors.New("procurement: purchase repository not configured")

// Validate checks p against the current stock snapshot.
func (s *Service) Validate(ctx context.Context, p Purchase) (ValidationResult, error) {
	stock, err := s.snapshot(ctx)
	if err != nil {
		return ValidationResult{}, err
	}
	result := Validate(p, stock)
	if s.metrics != nil {
		s.metrics.RecordPurchaseValidation(result.IsValid)
	}
	return result, nil
}

// PredictWAC simulates the stock valuation effect of completing p.
func (s *Service) PredictWAC(ctx context.Context, p Purchase) ([]WACImpact, error) {
	stock, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return PredictWACImpact(p, stock), nil
}

// Get loads a stored purchase.
func (s *Service) Get(ctx context.Context, id string) (Purchase, error) {
	if s.repo == nil {
		return Purchase{}, errNoRepository
	}
	return s.repo.Get(ctx, id)
}

// Create validates and stores a pending purchase.
func (s *Service) Create(ctx context.Context, actor string, p Purchase) (Purchase, ValidationResult, error) {
	if s.repo == nil {
		return Purchase{}, ValidationResult{}, errNoRepository
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.Status != StatusPending {
		return Purchase{}, ValidationResult{}, fmt.Errorf("%w: new purchases must be %s", ErrInvalidState, StatusPending)
	}
	if p.CalculationMethod == "" {
		p.CalculationMethod = MethodAverage
	}
	if p.Date.IsZero() {
		p.Date = s.now().UTC()
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	p.CompletedAt = nil

	result, err := s.Validate(ctx, p)
	if err != nil {
		return Purchase{}, ValidationResult{}, err
	}
	if !result.IsValid {
		return Purchase{}, result, &ValidationError{Messages: result.Errors}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Purchase{}, result, fmt.Errorf("procurement: create: %w", err)
	}
	s.recordAudit(ctx, actor, "purchase:create", p.ID, map[string]any{"supplier": p.Supplier, "total": p.TotalValue})
	return p, result, nil
}

// CompletionResult reports a completed purchase and what it did to stock.
type CompletionResult struct {
	Purchase Purchase    `json:"purchase"`
	Impacts  []WACImpact `json:"impacts"`
	Warnings []string    `json:"warnings"`
}

// Complete applies a pending purchase to stock in one transaction: quantities are
// added and the weighted average cost of each item is reblended. Completion is
// idempotent per purchase id.
func (s *Service) Complete(ctx context.Context, id, actor string) (CompletionResult, error) {
	if s.repo == nil {
		return CompletionResult{}, errNoRepository
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return CompletionResult{}, err
	}
	switch p.Status {
	case StatusCompleted:
		return CompletionResult{}, ErrAlreadyCompleted
	case StatusCancelled:
		return CompletionResult{}, fmt.Errorf("%w: purchase %s is cancelled", ErrInvalidState, id)
	}
	change := ValidateStatusChange(p.Status, StatusCompleted, p)
	if !change.CanChange {
		return CompletionResult{}, &ValidationError{Messages: change.Errors}
	}
	check, err := s.Validate(ctx, p)
	if err != nil {
		return CompletionResult{}, err
	}
	if !check.IsValid {
		return CompletionResult{}, &ValidationError{Messages: check.Errors}
	}

	key := fmt.Sprintf("PURCHASE:%s", id)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "procurement.purchase"); err != nil {
			return CompletionResult{}, err
		}
		inserted = true
	}

	var (
		completed Purchase
		impacts   []WACImpact
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked.Status != StatusPending {
			return ErrAlreadyCompleted
		}
		impacts = impacts[:0]
		at := s.now().UTC()
		for _, line := range locked.Items {
			impact, err := receiveLine(ctx, tx.Stock(), locked.Supplier, line, at)
			if err != nil {
				return fmt.Errorf("line %s: %w", line.StockItemID, err)
			}
			impacts = append(impacts, impact)
		}
		if err := tx.UpdateStatus(ctx, id, StatusCompleted, &at); err != nil {
			return err
		}
		locked.Status = StatusCompleted
		locked.CompletedAt = &at
		completed = locked
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return CompletionResult{}, fmt.Errorf("procurement: complete %s: %w", id, err)
	}

	s.recordAudit(ctx, actor, "purchase:complete", id, map[string]any{
		"supplier": completed.Supplier,
		"total":    completed.TotalValue,
		"lines":    len(completed.Items),
	})
	if s.invalidator != nil {
		if err := s.invalidator.EnqueueReportCacheBump(ctx); err != nil {
			s.logger.Warn("enqueue report cache bump failed", slog.String("purchase_id", id), slog.Any("error", err))
		}
	}
	warnings := append(append([]string{}, change.Warnings...), check.Warnings...)
	return CompletionResult{Purchase: completed, Impacts: impacts, Warnings: warnings}, nil
}

// receiveLine books line into stock. An item missing from the warehouse is created
// with the line's quantity and price as both base price and WAC.
func receiveLine(ctx context.Context, stock inventory.TxRepository, supplier string, line Line, at time.Time) (WACImpact, error) {
	item, err := stock.GetForUpdate(ctx, line.StockItemID)
	if errors.Is(err, inventory.ErrItemNotFound) {
		wac := line.UnitPrice
		created := inventory.StockItem{
			ID:                  line.StockItemID,
			Name:                line.Name,
			Category:            receivedCategory,
			Supplier:            supplier,
			Unit:                receivedUnit(line.Unit),
			QuantityOnHand:      line.Quantity,
			BasePrice:           line.UnitPrice,
			WeightedAverageCost: &wac,
			UpdatedAt:           at,
		}
		if err := stock.Insert(ctx, created); err != nil {
			return WACImpact{}, err
		}
		return newItemImpact(line), nil
	}
	if err != nil {
		return WACImpact{}, err
	}
	impact, newWAC := newImpact(item, line)
	if err := stock.Update(ctx, item.ID, inventory.StockUpdate{
		QuantityOnHand:      &impact.NewQuantity,
		WeightedAverageCost: &newWAC,
	}); err != nil {
		return WACImpact{}, err
	}
	return impact, nil
}

// receivedCategory files warehouse items created by a purchase.
const receivedCategory = "Pembelian"

func receivedUnit(unit string) string {
	if u := strings.TrimSpace(unit); u != "" {
		return u
	}
	return "pcs"
}

func (s *Service) snapshot(ctx context.Context) ([]inventory.StockItem, error) {
	if s.stock == nil {
		return nil, nil
	}
	stock, err := s.stock.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("procurement: stock snapshot: %w", err)
	}
	return stock, nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "purchase",
		EntityID: id,
		Meta:     meta,
		At:       s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
