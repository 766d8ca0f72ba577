package frontpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/tracing"
)

// Service ranks every catalog source that declares frontpage feeds.
type Service struct {
	Catalog Catalog
	Feeds   FeedFetcher
	Ranker  Ranker
	Pacer   Pacer
}

// Stats summarizes one ranking pass.
type Stats struct {
	Sources  int
	Ranked   int64
	Failed   int
	Duration time.Duration
}

// Run fetches the curated feeds of each source and ranks its articles.
// When a source lists several frontpage feeds their items are concatenated
// in catalog order. A source whose feed cannot be read keeps its previous
// ranks; the failure is counted and the pass moves on.
func (s *Service) Run(ctx context.Context) (stats *Stats, err error) {
	ctx, span := tracing.StartSpan(ctx, "frontpage.Run")
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	stats = &Stats{}
	logger := logging.FromContext(ctx)
	first := true

	for _, src := range s.Catalog.Sources() {
		if len(src.Frontpage) == 0 {
			continue
		}
		stats.Sources++

		links, err := s.curatedLinks(ctx, src, &first)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stats, err
		}
		if err != nil {
			stats.Failed++
			logger.Warn("curated feed unavailable, keeping previous ranks",
				slog.String("source", src.Key),
				logging.Err(err))
			continue
		}

		n, err := s.Ranker.RankSource(ctx, src.Key, links)
		if err != nil {
			stats.Failed++
			logger.Error("failed to rank source", slog.String("source", src.Key), logging.Err(err))
			continue
		}
		stats.Ranked += n
		logger.Debug("source ranked",
			slog.String("source", src.Key),
			slog.Int("curated", len(links)),
			slog.Int64("ranked", n))
	}

	stats.Duration = time.Since(start)
	span.SetAttributes(attribute.Int64("ranked", stats.Ranked))
	logger.Info("frontpage pass completed",
		slog.Int("sources", stats.Sources),
		slog.Int64("ranked", stats.Ranked),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) curatedLinks(ctx context.Context, src entity.Source, first *bool) ([]string, error) {
	var links []string
	for _, url := range src.Frontpage {
		if !*first && s.Pacer != nil {
			if err := s.Pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
		*first = false

		items, err := s.Feeds.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		for _, it := range items {
			links = append(links, it.Link)
		}
	}
	return links, nil
}
