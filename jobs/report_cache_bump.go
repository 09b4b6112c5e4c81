package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/heytrack/heytrack/internal/jobs"
)

// CacheBumper invalidates a versioned cache namespace.
type CacheBumper interface {
	Bump(ctx context.Context) (int64, error)
}

// ReportCacheBumpJob invalidates cached stock reports after stock changes.
type ReportCacheBumpJob struct {
	Cache   CacheBumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportCacheBumpJob initialises the bump handler.
func NewReportCacheBumpJob(cache CacheBumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportCacheBumpJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportCacheBumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle bumps the report cache version.
func (j *ReportCacheBumpJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Cache == nil {
		return errors.New("report cache bump: handler not configured")
	}
	var payload ReportCacheBumpPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskReportCacheBump)
	defer func() {
		err = tracker.End(err)
	}()

	version, err := j.Cache.Bump(ctx)
	if err != nil {
		j.Logger.Error("report cache bump failed", slog.String("reason", payload.Reason), slog.Any("error", err))
		return err
	}
	j.Logger.Info("report cache bumped", slog.String("reason", payload.Reason), slog.Int64("version", version))
	return nil
}
