package score

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/observability/tracing"
	"lesnouvelles-feed/internal/repository"
)

// FeedService rebuilds the feed of every scorable prompt.
type FeedService struct {
	Prompts  repository.PromptRepository
	Articles repository.ArticleRepository
	Pacer    Pacer
	// Threshold applies to prompts without their own threshold setting. It
	// is used as given, 0 included.
	Threshold float64
	Now       func() time.Time
}

// NewFeedService returns a FeedService scoring against threshold.
func NewFeedService(prompts repository.PromptRepository, articles repository.ArticleRepository, pacer Pacer, threshold float64) FeedService {
	return FeedService{
		Prompts:   prompts,
		Articles:  articles,
		Pacer:     pacer,
		Threshold: threshold,
		Now:       time.Now,
	}
}

// FeedStats summarizes one scoring pass.
type FeedStats struct {
	Prompts  int
	Written  int
	Failed   int
	Entries  int
	Duration time.Duration
}

type scored struct {
	article *entity.Article
	total   float64
}

// BuildFeed scores candidates against p and returns those above threshold,
// best first. Equal scores are ordered by newer publish date, then id.
// p.Settings.Threshold overrides threshold and p.Settings.Limit caps the result.
func BuildFeed(p *entity.Prompt, candidates []*entity.Article, threshold float64) []entity.FeedEntry {
	if p.Settings.Threshold != nil {
		threshold = *p.Settings.Threshold
	}

	kept := make([]scored, 0, len(candidates))
	for _, a := range candidates {
		b := Score(p, a, TagOverlap)
		if b.Total > threshold {
			kept = append(kept, scored{article: a, total: b.Total})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].total != kept[j].total {
			return kept[i].total > kept[j].total
		}
		ti, tj := kept[i].article.PublishedAt, kept[j].article.PublishedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return kept[i].article.ID < kept[j].article.ID
	})

	if limit := p.Settings.Limit; limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	feed := make([]entity.FeedEntry, len(kept))
	for i, s := range kept {
		feed[i] = entity.FeedEntry{ArticleID: s.article.ID, Score: s.total}
	}
	return feed
}

// Run overwrites the feed of every enabled, enriched prompt and stamps its
// last use. A failing prompt is logged and skipped; only listing the
// prompts or a cancelled context ends the pass early.
func (s *FeedService) Run(ctx context.Context) (stats *FeedStats, err error) {
	ctx, span := tracing.StartSpan(ctx, "score.Feed")
	defer func() { tracing.EndSpan(span, err) }()

	logger := logging.FromContext(ctx)
	start := time.Now()
	stats = &FeedStats{}

	prompts, err := s.Prompts.ListScorable(ctx)
	if err != nil {
		return stats, fmt.Errorf("list scorable prompts: %w", err)
	}
	stats.Prompts = len(prompts)
	span.SetAttributes(attribute.Int("prompts", len(prompts)))

	for i, p := range prompts {
		if i > 0 {
			if err := pace(ctx, s.Pacer); err != nil {
				return stats, err
			}
		}

		n, err := s.scorePrompt(ctx, p)
		if err != nil {
			stats.Failed++
			logger.Warn("failed to build prompt feed",
				slog.String("prompt_id", p.ID),
				logging.Err(err))
			continue
		}
		stats.Written++
		stats.Entries += n
	}

	stats.Duration = time.Since(start)
	logger.Info("prompt feeds rebuilt",
		slog.Int("prompts", stats.Prompts),
		slog.Int("written", stats.Written),
		slog.Int("failed", stats.Failed),
		slog.Int("entries", stats.Entries),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *FeedService) scorePrompt(ctx context.Context, p *entity.Prompt) (int, error) {
	candidates, err := s.Articles.ListEnriched(ctx, repository.ArticleFilter{
		Categories: p.Settings.Categories,
		Sources:    p.Settings.Sources,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrListCandidates, err)
	}

	feed := BuildFeed(p, candidates, s.Threshold)
	if err := s.Prompts.UpdateFeed(ctx, p.ID, feed, s.now()); err != nil {
		return 0, fmt.Errorf("update feed: %w", err)
	}
	metrics.RecordFeedBuilt(len(feed))
	return len(feed), nil
}

func (s *FeedService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}
