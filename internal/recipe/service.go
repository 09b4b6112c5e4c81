package recipe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heytrack/heytrack/internal/inventory"
)

// StockSource supplies the warehouse snapshot used by enhanced costing.
type StockSource interface {
	Snapshot(ctx context.Context) ([]inventory.StockItem, error)
}

// MetricsRecorder counts calculations per mode.
type MetricsRecorder interface {
	RecordRecipeCalculation(mode string)
}

// Service runs recipe costing requests.
type Service struct {
	stock    StockSource
	overhead OverheadRates
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewService builds Service. overhead holds the configured per-piece defaults.
func NewService(stock StockSource, overhead OverheadRates, metrics MetricsRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{stock: stock, overhead: overhead, metrics: metrics, logger: logger}
}

// CalculateInput is one recalculation request.
type CalculateInput struct {
	Draft    Draft          `json:"draft"`
	Overhead *OverheadRates `json:"overhead,omitempty"`
	Pricing  *PricingRule   `json:"pricing,omitempty"`
}

// Calculate recalculates the draft with the selected mode.
func (s *Service) Calculate(ctx context.Context, mode CostingMode, input CalculateInput) (Result, error) {
	cfg := EngineConfig{Overhead: s.overhead, Pricing: input.Pricing}
	if input.Overhead != nil {
		cfg.Overhead = *input.Overhead
	}
	if mode == ModeEnhanced && s.stock != nil {
		items, err := s.stock.Snapshot(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("recipe: load stock: %w", err)
		}
		cfg.Stock = items
	}
	res, err := NewEngine(cfg).Recalculate(input.Draft, mode)
	if err != nil {
		return Result{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordRecipeCalculation(string(mode))
	}
	s.logger.Debug("recipe recalculated",
		slog.String("recipe", input.Draft.Name),
		slog.String("mode", string(mode)),
		slog.Float64("cost_per_portion", res.Draft.CostPerPortion))
	return res, nil
}
