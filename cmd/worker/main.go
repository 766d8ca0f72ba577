package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lesnouvelles-feed/internal/app"
	"lesnouvelles-feed/internal/infra/catalog"
	"lesnouvelles-feed/internal/infra/db"
	workerPkg "lesnouvelles-feed/internal/infra/worker"
	"lesnouvelles-feed/internal/observability/logging"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker stopped", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	cfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("timezone", cfg.Timezone),
		slog.Bool("run_on_start", cfg.RunOnStart),
		slog.Duration("item_delay", cfg.ItemDelay),
		slog.Float64("score_threshold", cfg.ScoreThreshold),
		slog.Int("article_ceiling", cfg.ArticleCeiling),
		slog.Duration("prompt_max_idle", cfg.PromptMaxIdle),
		slog.Int("health_port", cfg.HealthPort))

	database, err := initDatabase(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", logging.Err(err))
		}
	}()

	sources, err := catalog.New(cfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	logger.Info("source catalog loaded",
		slog.String("path", cfg.SourcesFile),
		slog.Int("sources", len(sources.Sources())))

	analyzer, err := app.LoadAnalyzer(logger, workerMetrics.ConfigMetrics)
	if err != nil {
		return err
	}

	prompts, articles := app.Repositories(database)
	pipeline := app.NewPipeline(app.Deps{
		Prompts:  prompts,
		Articles: articles,
		Catalog:  sources,
		Analyzer: analyzer,
		Content:  app.LoadContentFetcher(logger, workerMetrics.ConfigMetrics),
	}, cfg)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	scheduler := workerPkg.NewScheduler(ctx, loc, logger, workerMetrics)
	for _, pass := range pipeline.Passes(cfg) {
		if err := scheduler.Add(pass); err != nil {
			return err
		}
	}

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	healthServer.AddCheck("database", database.PingContext)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.Start(gctx) })
	g.Go(func() error { return startMetricsServer(gctx, logger, cfg.MetricsPort) })
	g.Go(func() error { return sources.Watch(gctx, catalog.DefaultDebounce) })
	g.Go(func() error { return scheduler.Run(gctx) })

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("timezone", cfg.Timezone))

	if cfg.RunOnStart {
		g.Go(func() error {
			for _, name := range workerPkg.PassNames {
				if gctx.Err() != nil {
					return nil
				}
				if err := scheduler.RunNow(name); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initDatabase opens the database and applies the schema.
func initDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	database, err := db.Open(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database schema ready")
	return database, nil
}
