package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heytrack/heytrack/cmd/heytrack/cli"
	"github.com/heytrack/heytrack/internal/app"
	"github.com/heytrack/heytrack/internal/inventory"
	"github.com/heytrack/heytrack/internal/observability"
	"github.com/heytrack/heytrack/internal/platform/cache"
	"github.com/heytrack/heytrack/internal/platform/db"
	"github.com/heytrack/heytrack/internal/procurement"
	"github.com/heytrack/heytrack/internal/recipe"
	"github.com/heytrack/heytrack/internal/shared"
	"github.com/heytrack/heytrack/jobs"
)

const idempotencyRetention = 90 * 24 * time.Hour

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		defer jobsCLI.Close()
		if err := jobsCLI.Run(ctx, os.Args[2:], os.Stdout); err != nil {
			logger.Error("jobs cli", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	metrics := observability.NewMetrics()

	var reportCache inventory.ReportCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stock reports are not cached", slog.Any("error", err))
	} else {
		defer redisClient.Close()
		reportCache = cache.NewStore(redisClient, "heytrack:inventory", cfg.ReportCacheTTL)
	}

	var (
		inventoryRepo   inventory.RepositoryPort
		inventoryAudit  inventory.AuditPort
		procurementRepo procurement.RepositoryPort
		procurementDeps procurement.Deps
	)
	switch cfg.StoreDriver {
	case app.StoreDriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error("open sqlite", slog.Any("error", err))
			os.Exit(1)
		}
		defer closeSQL(logger, conn)
		inventoryRepo = inventory.NewSQLiteRepository(conn)
		logger.Info("stock kept in sqlite, purchase persistence disabled", slog.String("path", cfg.SQLitePath))
	default:
		pool, err := openPostgres(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		auditLogger := shared.NewAuditLogger(pool)
		inventoryRepo = inventory.NewRepository(pool)
		inventoryAudit = auditLogger
		procurementRepo = procurement.NewRepository(pool)
		procurementDeps.Audit = auditLogger
		idempotency := shared.NewIdempotencyStore(pool)
		if removed, err := idempotency.Cleanup(ctx, idempotencyRetention); err != nil {
			logger.Warn("idempotency cleanup", slog.Any("error", err))
		} else if removed > 0 {
			logger.Info("idempotency keys pruned", slog.Int64("removed", removed))
		}
		procurementDeps.Idempotency = idempotency
	}

	inventoryService := inventory.NewService(inventoryRepo, reportCache, inventoryAudit, logger,
		inventory.ServiceConfig{ExpiryWindowDays: cfg.ExpiryWindowDays})
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	recipeService := recipe.NewService(inventoryService, recipe.OverheadRates{
		OverheadPerPiece:    cfg.OverheadPerPiece,
		OperationalPerPiece: cfg.OperationalPerPiece,
	}, metrics, logger)
	recipeHandler := recipe.NewHandler(logger, recipeService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer jobClient.Close()
	inspector := asynq.NewInspector(redisOpts)
	defer inspector.Close()

	procurementDeps.Invalidator = jobClient
	procurementDeps.Metrics = metrics
	procurementService := procurement.NewService(procurementRepo, inventoryService, procurementDeps, logger)
	procurementHandler := procurement.NewHandler(logger, procurementService, procurementRepo != nil)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		InventoryHandler:   inventoryHandler,
		RecipeHandler:      recipeHandler,
		ProcurementHandler: procurementHandler,
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := db.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func closeSQL(logger *slog.Logger, conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logger.Warn("sqlite close", slog.Any("error", err))
	}
}
