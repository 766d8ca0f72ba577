// Package app assembles the pipeline passes from their infrastructure. The
// worker schedules the passes it returns; the operator CLI runs them once.
package app

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	pgRepo "lesnouvelles-feed/internal/infra/adapter/persistence/postgres"
	"lesnouvelles-feed/internal/infra/catalog"
	"lesnouvelles-feed/internal/infra/fetcher"
	"lesnouvelles-feed/internal/infra/scraper"
	"lesnouvelles-feed/internal/infra/textanalysis"
	"lesnouvelles-feed/internal/infra/worker"
	"lesnouvelles-feed/internal/pkg/config"
	"lesnouvelles-feed/internal/repository"
	"lesnouvelles-feed/internal/usecase/enrich"
	"lesnouvelles-feed/internal/usecase/frontpage"
	"lesnouvelles-feed/internal/usecase/ingest"
	"lesnouvelles-feed/internal/usecase/retention"
	"lesnouvelles-feed/internal/usecase/score"
)

// Pipeline holds one instance of every pass service.
type Pipeline struct {
	Catalog   *catalog.Catalog
	Enrich    *enrich.Service
	Feed      *score.FeedService
	Similar   *score.SimilarService
	Retention *retention.Service
	Frontpage *frontpage.Service
	Ingest    *ingest.Service
}

// Deps are the shared collaborators of the passes.
type Deps struct {
	Prompts  repository.PromptRepository
	Articles repository.ArticleRepository
	Catalog  *catalog.Catalog
	Analyzer enrich.Analyzer
	// Content is nil when description backfill is disabled.
	Content ingest.ContentFetcher
}

// NewPipeline wires every pass from deps and cfg. Each pass gets its own
// pacer so concurrent passes do not slow each other down.
func NewPipeline(deps Deps, cfg *worker.WorkerConfig) *Pipeline {
	pageClient := newHTTPClient(10 * time.Second)
	feedClient := newHTTPClient(30 * time.Second)

	feed := score.NewFeedService(deps.Prompts, deps.Articles, newPacer(cfg.ItemDelay), cfg.ScoreThreshold)
	p := &Pipeline{
		Catalog: deps.Catalog,
		Enrich: &enrich.Service{
			Prompts:   deps.Prompts,
			Articles:  deps.Articles,
			Analyzer:  deps.Analyzer,
			OGP:       scraper.NewOGPFetcher(pageClient),
			Banner:    scraper.NewBannerRenderer(pageClient),
			Pacer:     newPacer(cfg.ItemDelay),
			BatchSize: cfg.EnrichBatchSize,
			MaxRetry:  cfg.EnrichMaxRetry,
		},
		Feed: &feed,
		Similar: &score.SimilarService{
			Articles:  deps.Articles,
			Threshold: cfg.SimilarThreshold,
		},
		Retention: &retention.Service{
			Articles: deps.Articles,
			Prompts:  deps.Prompts,
			Policy:   retention.PolicyFor(cfg.PromptMaxIdle),
			Ceiling:  cfg.ArticleCeiling,
		},
		Frontpage: &frontpage.Service{
			Catalog: deps.Catalog,
			Feeds:   scraper.NewRSSFetcher(feedClient),
			Ranker:  frontpage.Ranker{Articles: deps.Articles},
			Pacer:   newPacer(cfg.ItemDelay),
		},
		Ingest: &ingest.Service{
			Catalog:     deps.Catalog,
			Articles:    deps.Articles,
			Feeds:       scraper.NewRSSFetcher(feedClient),
			Content:     deps.Content,
			Pacer:       newPacer(cfg.ItemDelay),
			Parallelism: cfg.IngestParallelism,
		},
	}
	return p
}

// Passes returns the scheduled form of every pass, in worker.PassNames
// order. Each Run reports the number of items it changed.
func (p *Pipeline) Passes(cfg *worker.WorkerConfig) []worker.Pass {
	run := map[string]func(ctx context.Context) (int, error){
		worker.PassIngest: func(ctx context.Context) (int, error) {
			stats, err := p.Ingest.Run(ctx)
			if err != nil {
				return 0, err
			}
			return int(stats.Inserted.Load()), nil
		},
		worker.PassEnrich: func(ctx context.Context) (int, error) {
			stats, err := p.Enrich.Run(ctx)
			if err != nil {
				return 0, err
			}
			return stats.Prompts.Enriched + stats.Articles.Enriched, nil
		},
		worker.PassScore: func(ctx context.Context) (int, error) {
			stats, err := p.Feed.Run(ctx)
			if err != nil {
				return 0, err
			}
			return stats.Written, nil
		},
		worker.PassSimilar: func(ctx context.Context) (int, error) {
			stats, err := p.Similar.Run(ctx)
			if err != nil {
				return 0, err
			}
			return stats.Updated, nil
		},
		worker.PassRetention: p.runRetention,
		worker.PassFrontpage: func(ctx context.Context) (int, error) {
			stats, err := p.Frontpage.Run(ctx)
			if err != nil {
				return 0, err
			}
			return int(stats.Ranked), nil
		},
	}

	passes := make([]worker.Pass, 0, len(worker.PassNames))
	for _, name := range worker.PassNames {
		pc := cfg.Passes[name]
		passes = append(passes, worker.Pass{
			Name:     name,
			Schedule: pc.Schedule,
			Timeout:  pc.Timeout,
			Run:      run[name],
		})
	}
	return passes
}

// runRetention prunes articles, then prompts. A failed article prune does
// not prevent prompt pruning.
func (p *Pipeline) runRetention(ctx context.Context) (int, error) {
	var pruned int64
	articles, aerr := p.Retention.PruneArticles(ctx)
	if articles != nil {
		pruned += articles.Deleted
	}
	prompts, perr := p.Retention.PrunePrompts(ctx)
	pruned += prompts
	if aerr != nil {
		return int(pruned), aerr
	}
	return int(pruned), perr
}

// LoadAnalyzer builds the text-analysis provider from the environment.
func LoadAnalyzer(logger *slog.Logger, m *config.ConfigMetrics) (*textanalysis.Analyzer, error) {
	cfg, warnings := textanalysis.LoadConfigFromEnv(m)
	for _, w := range warnings {
		logger.Warn("text analysis configuration fallback", slog.String("warning", w))
	}
	a, err := textanalysis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("text analysis: %w", err)
	}
	logger.Info("text analysis configured",
		slog.String("provider", cfg.Provider),
		slog.Int("cache_size", cfg.CacheSize))
	return a, nil
}

// LoadContentFetcher returns the description backfill fetcher, or nil when
// CONTENT_FETCH_ENABLED is false.
func LoadContentFetcher(logger *slog.Logger, m *config.ConfigMetrics) ingest.ContentFetcher {
	cfg, warnings := fetcher.LoadConfigFromEnv(m)
	for _, w := range warnings {
		logger.Warn("content fetch configuration fallback", slog.String("warning", w))
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("content fetching disabled: invalid configuration", slog.String("error", err.Error()))
		return nil
	}
	if !cfg.Enabled {
		logger.Info("content fetching disabled")
		return nil
	}
	logger.Info("content fetching enabled",
		slog.Int("threshold", cfg.Threshold),
		slog.Duration("timeout", cfg.Timeout))
	return fetcher.NewReadabilityFetcher(cfg)
}

// Repositories returns the postgres-backed stores.
func Repositories(db *sql.DB) (repository.PromptRepository, repository.ArticleRepository) {
	return pgRepo.NewPromptRepo(db), pgRepo.NewArticleRepo(db)
}

// newPacer allows one item per delay. A zero delay disables pacing.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// newHTTPClient creates an HTTP client with connection pooling and TLS 1.2+.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
