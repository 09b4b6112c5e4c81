package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/heytrack/heytrack/internal/inventory"
	jobmetrics "github.com/heytrack/heytrack/internal/jobs"
)

// StockSource provides the stock snapshot to scan.
type StockSource interface {
	Snapshot(ctx context.Context) ([]inventory.StockItem, error)
}

// Notifier delivers stock alerts to operators.
type Notifier interface {
	Notify(ctx context.Context, alerts inventory.StockAlerts, at time.Time) error
}

// SlogNotifier writes alerts to the structured log.
type SlogNotifier struct {
	Logger *slog.Logger
}

// Notify logs one line per alerted item.
func (n SlogNotifier) Notify(ctx context.Context, alerts inventory.StockAlerts, at time.Time) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	emit := func(kind string, items []inventory.StockItem) {
		for _, item := range items {
			attrs := []any{
				slog.String("kind", kind),
				slog.String("item_id", item.ID),
				slog.String("name", item.Name),
				slog.Float64("quantity", item.QuantityOnHand),
				slog.Float64("minimum", item.MinimumThreshold),
			}
			if item.ExpiryDate != nil {
				attrs = append(attrs, slog.Time("expiry_date", *item.ExpiryDate))
			}
			logger.WarnContext(ctx, "stock alert", attrs...)
		}
	}
	emit("out", alerts.OutOfStock)
	emit("low", alerts.LowStock)
	emit("expiring", alerts.Expiring)
	return nil
}

// StockAlertsJob runs the daily stock alert scan.
type StockAlertsJob struct {
	Source     StockSource
	Notifier   Notifier
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	ExpiryDays int
	clock      func() time.Time
}

// NewStockAlertsJob initialises the stock alert handler.
func NewStockAlertsJob(source StockSource, notifier Notifier, logger *slog.Logger, metrics *jobmetrics.Metrics, expiryDays int) *StockAlertsJob {
	return &StockAlertsJob{
		Source:     source,
		Notifier:   notifier,
		Logger:     logger,
		Metrics:    metrics,
		ExpiryDays: expiryDays,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *StockAlertsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("stock alerts: handler not configured")
	}
	var payload StockAlertsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	days := payload.ExpiryDays
	if days <= 0 {
		days = j.ExpiryDays
	}
	if days <= 0 {
		days = inventory.DefaultExpiryWindowDays
	}

	start := j.now()
	tracker := j.Metrics.Track(TaskStockAlerts)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("expiry_days", days))
	items, err := j.Source.Snapshot(ctx)
	if err != nil {
		resultErr = err
		logger.Error("stock snapshot failed", slog.Any("error", err))
		return resultErr
	}
	report := inventory.GenerateStockReportWithin(items, days, start)
	j.Metrics.AddStockAlerts("out", len(report.Alerts.OutOfStock))
	j.Metrics.AddStockAlerts("low", len(report.Alerts.LowStock))
	j.Metrics.AddStockAlerts("expiring", len(report.Alerts.Expiring))

	if !report.Alerts.Empty() && j.Notifier != nil {
		if err := j.Notifier.Notify(ctx, report.Alerts, start); err != nil {
			resultErr = err
			logger.Error("stock alert notify failed", slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed stock alert scan",
		slog.Int("items", report.Summary.TotalItems),
		slog.Int("low", report.Summary.LowStockCount),
		slog.Int("out", report.Summary.OutOfStockCount),
		slog.Int("expiring", report.Summary.ExpiringCount),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *StockAlertsJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *StockAlertsJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
