package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/heytrack/heytrack/internal/app"
	"github.com/heytrack/heytrack/internal/inventory"
	jobmetrics "github.com/heytrack/heytrack/internal/jobs"
	"github.com/heytrack/heytrack/internal/observability"
	"github.com/heytrack/heytrack/internal/platform/cache"
	"github.com/heytrack/heytrack/internal/platform/db"
	"github.com/heytrack/heytrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var repo inventory.RepositoryPort
	if cfg.UsesSQLite() {
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error("open sqlite", slog.Any("error", err))
			os.Exit(1)
		}
		defer conn.Close()
		repo = inventory.NewSQLiteRepository(conn)
	} else {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		repo = inventory.NewRepository(pool)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	reportCache := cache.NewStore(redisClient, "heytrack:inventory", cfg.ReportCacheTTL)

	inventoryService := inventory.NewService(repo, reportCache, nil, logger,
		inventory.ServiceConfig{ExpiryWindowDays: cfg.ExpiryWindowDays})
	obs := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(obs.Registerer())
	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: obs.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	alertsJob := jobs.NewStockAlertsJob(inventoryService, jobs.SlogNotifier{Logger: logger}, logger, metrics, cfg.ExpiryWindowDays)
	bumpJob := jobs.NewReportCacheBumpJob(reportCache, logger, metrics)

	alertsTask, err := jobs.NewStockAlertsTask(time.Now().UTC(), cfg.ExpiryWindowDays)
	if err != nil {
		logger.Error("build stock alerts task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockAlerts, Handler: alertsJob.Handle},
			{Type: jobs.TaskReportCacheBump, Handler: bumpJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.StockAlertsCron, Task: alertsTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
