package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockAlerts scans the stock snapshot and notifies about low, empty and expiring items.
	TaskStockAlerts = "inventory:stock_alerts"
	// TaskReportCacheBump invalidates cached stock reports.
	TaskReportCacheBump = "inventory:report_cache_bump"

	// StockAlertsCron runs the scan every morning before the kitchen opens.
	StockAlertsCron = "0 6 * * *"
)

// StockAlertsPayload carries scheduling metadata.
type StockAlertsPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	ExpiryDays   int       `json:"expiry_days,omitempty"`
}

// NewStockAlertsTask constructs an Asynq task for the stock alert scan.
func NewStockAlertsTask(at time.Time, expiryDays int) (*asynq.Task, error) {
	body, err := json.Marshal(StockAlertsPayload{ScheduledFor: at, ExpiryDays: expiryDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAlerts, body, asynq.Queue(QueueDefault)), nil
}

// ReportCacheBumpPayload records why reports were invalidated.
type ReportCacheBumpPayload struct {
	Reason string `json:"reason"`
}

// NewReportCacheBumpTask builds a report cache invalidation task.
func NewReportCacheBumpTask(reason string) (*asynq.Task, error) {
	body, err := json.Marshal(ReportCacheBumpPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportCacheBump, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
