package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/observability/tracing"
	"lesnouvelles-feed/internal/repository"
)

// Item outcomes, also used as metric labels.
const (
	outcomeInserted  = "inserted"
	outcomeDuplicate = "duplicate"
	outcomeTooOld    = "too_old"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"
)

// Service harvests every feed of the catalog.
type Service struct {
	Catalog  Catalog
	Articles repository.ArticleRepository
	Feeds    FeedFetcher
	// Content is optional; without it descriptions are never backfilled.
	Content ContentFetcher
	Pacer   Pacer

	MaxAge            time.Duration
	BackfillThreshold int
	Parallelism       int
	Now               func() time.Time
}

// Stats summarizes one ingestion pass. Fields are updated atomically by
// the source goroutines.
type Stats struct {
	Sources     int
	Feeds       atomic.Int64
	Items       atomic.Int64
	Inserted    atomic.Int64
	Duplicates  atomic.Int64
	TooOld      atomic.Int64
	Invalid     atomic.Int64
	Errors      atomic.Int64
	FetchErrors atomic.Int64
	Duration    time.Duration
}

// Run harvests the catalog. Sources are processed concurrently, feeds of
// a source and items of a feed sequentially. Feed and item failures are
// logged and counted; only context cancellation ends the pass early.
func (s *Service) Run(ctx context.Context) (stats *Stats, err error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Run")
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	stats = &Stats{}
	logger := logging.FromContext(ctx)
	sources := s.Catalog.Sources()
	stats.Sources = len(sources)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism())
	for _, src := range sources {
		g.Go(func() error {
			return s.harvestSource(gctx, src, stats)
		})
	}
	err = g.Wait()

	stats.Duration = time.Since(start)
	logger.Info("ingestion pass completed",
		slog.Int("sources", stats.Sources),
		slog.Int64("feeds", stats.Feeds.Load()),
		slog.Int64("items", stats.Items.Load()),
		slog.Int64("inserted", stats.Inserted.Load()),
		slog.Int64("duplicates", stats.Duplicates.Load()),
		slog.Int64("too_old", stats.TooOld.Load()),
		slog.Int64("fetch_errors", stats.FetchErrors.Load()),
		slog.Duration("duration", stats.Duration))
	return stats, err
}

func (s *Service) harvestSource(ctx context.Context, src entity.Source, stats *Stats) error {
	logger := logging.FromContext(ctx).With(slog.String("source", src.Key))

	for _, feed := range src.Feeds {
		if s.Pacer != nil {
			if err := s.Pacer.Wait(ctx); err != nil {
				return err
			}
		}
		stats.Feeds.Add(1)

		fetchStart := time.Now()
		items, err := s.Feeds.Fetch(ctx, feed.URL)
		metrics.RecordFeedFetch(src.Key, time.Since(fetchStart))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.FetchErrors.Add(1)
			metrics.RecordFeedFetchError(src.Key, "fetch_failed")
			logger.Warn("failed to fetch feed",
				slog.String("feed_url", feed.URL),
				logging.Err(fmt.Errorf("%w: %w", ErrFetchFeed, err)))
			continue
		}

		// stored links are settled here so their pages are never fetched again
		links := make([]string, 0, len(items))
		for _, item := range items {
			links = append(links, strings.TrimSpace(item.Link))
		}
		stored, err := s.Articles.ExistsByLinkBatch(ctx, links)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.FetchErrors.Add(1)
			metrics.RecordFeedFetchError(src.Key, "batch_check_failed")
			logger.Warn("failed to check stored links",
				slog.String("feed_url", feed.URL),
				logging.Err(err))
			continue
		}

		for _, item := range items {
			stats.Items.Add(1)
			outcome, err := s.ingestItem(ctx, src.Key, feed.Category, item, stored)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			metrics.RecordIngestItem(src.Key, outcome)
			switch outcome {
			case outcomeInserted:
				stats.Inserted.Add(1)
			case outcomeDuplicate:
				stats.Duplicates.Add(1)
			case outcomeTooOld:
				stats.TooOld.Add(1)
			case outcomeInvalid:
				stats.Invalid.Add(1)
			case outcomeError:
				stats.Errors.Add(1)
				logger.Error("failed to store article",
					slog.String("link", item.Link),
					logging.Err(err))
			}
		}
	}
	return nil
}

// ingestItem turns one feed item into an article. Links in stored are
// duplicates without touching the store. The returned error is only set
// for outcomeError or cancellation.
func (s *Service) ingestItem(ctx context.Context, source, category string, item entity.FeedItem, stored map[string]bool) (string, error) {
	now := s.now()
	published := item.PublishedAt
	if published.IsZero() {
		published = now
	}
	if published.Before(now.Add(-s.maxAge())) {
		return outcomeTooOld, nil
	}

	link := strings.TrimSpace(item.Link)
	title := PlainText(item.Title)
	if title == "" || entity.ValidateLink(link) != nil {
		return outcomeInvalid, nil
	}
	if stored[link] {
		return outcomeDuplicate, nil
	}

	article := &entity.Article{
		ID:          entity.NewID(),
		Link:        link,
		Title:       title,
		Description: s.description(ctx, link, PlainText(item.Description)),
		Source:      source,
		Category:    category,
		PublishedAt: published.UTC(),
	}
	if err := s.Articles.Create(ctx, article); err != nil {
		if errors.Is(err, entity.ErrConflict) {
			return outcomeDuplicate, nil
		}
		return outcomeError, err
	}
	return outcomeInserted, nil
}

// description returns desc, or the readable page text when desc is short
// and the page text is longer. Fetch failures fall back to desc.
func (s *Service) description(ctx context.Context, link, desc string) string {
	if s.Content == nil {
		return truncate(desc, MaxDescriptionLength)
	}
	if utf8.RuneCountInString(desc) >= s.backfillThreshold() {
		metrics.RecordContentFetchSkipped()
		return truncate(desc, MaxDescriptionLength)
	}

	start := time.Now()
	text, err := s.Content.FetchContent(ctx, link)
	if err != nil {
		metrics.RecordContentFetchFailed(time.Since(start))
		logging.FromContext(ctx).Debug("content backfill failed, keeping feed description",
			slog.String("link", link),
			logging.Err(err))
		return truncate(desc, MaxDescriptionLength)
	}
	metrics.RecordContentFetchSuccess(time.Since(start))

	text = PlainText(text)
	if utf8.RuneCountInString(text) > utf8.RuneCountInString(desc) {
		return truncate(text, MaxDescriptionLength)
	}
	return truncate(desc, MaxDescriptionLength)
}

func (s *Service) maxAge() time.Duration {
	if s.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return s.MaxAge
}

func (s *Service) backfillThreshold() int {
	if s.BackfillThreshold <= 0 {
		return DefaultBackfillThreshold
	}
	return s.BackfillThreshold
}

func (s *Service) parallelism() int {
	if s.Parallelism <= 0 {
		return DefaultParallelism
	}
	return s.Parallelism
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
