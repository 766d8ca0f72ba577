package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/observability/tracing"
	"lesnouvelles-feed/internal/repository"
)

// Service applies the retention rules.
type Service struct {
	Articles repository.ArticleRepository
	Prompts  repository.PromptRepository
	// Policy defaults to NoopPolicy.
	Policy    PromptPolicy
	Ceiling   int
	ChunkSize int
	Now       func() time.Time
}

// ArticleStats summarizes one article retention pass.
type ArticleStats struct {
	Before  int64
	Deleted int64
}

// PruneArticles deletes the oldest articles until at most Ceiling remain.
// Prompt feeds may keep referencing deleted ids; readers drop them.
func (s *Service) PruneArticles(ctx context.Context) (stats *ArticleStats, err error) {
	ctx, span := tracing.StartSpan(ctx, "retention.PruneArticles")
	defer func() { tracing.EndSpan(span, err) }()

	logger := logging.FromContext(ctx)
	stats = &ArticleStats{}

	total, err := s.Articles.Count(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrCount, err)
	}
	stats.Before = total
	defer func() { metrics.RecordArticlesPruned(stats.Before, stats.Deleted) }()

	excess := total - int64(s.ceiling())
	if excess <= 0 {
		logger.Debug("article count under ceiling",
			slog.Int64("count", total),
			slog.Int("ceiling", s.ceiling()))
		return stats, nil
	}

	ids, err := s.Articles.ListOldest(ctx, int(excess))
	if err != nil {
		return stats, fmt.Errorf("ListOldest: %w", err)
	}

	for chunk := range chunks(ids, s.chunkSize()) {
		n, err := s.Articles.DeleteMany(ctx, chunk)
		stats.Deleted += n
		if err != nil {
			return stats, fmt.Errorf("%w: articles: %w", ErrDelete, err)
		}
	}

	span.SetAttributes(attribute.Int64("deleted", stats.Deleted))
	logger.Info("articles pruned",
		slog.Int64("before", stats.Before),
		slog.Int64("deleted", stats.Deleted),
		slog.Int("ceiling", s.ceiling()))
	return stats, nil
}

// PrunePrompts deletes the prompts selected by the policy and returns how
// many were removed.
func (s *Service) PrunePrompts(ctx context.Context) (deleted int64, err error) {
	policy := s.policy()
	ctx, span := tracing.StartSpan(ctx, "retention.PrunePrompts", attribute.String("policy", policy.Name()))
	defer func() { tracing.EndSpan(span, err) }()

	ids, err := policy.Select(ctx, s.Prompts, s.now())
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	for chunk := range chunks(ids, s.chunkSize()) {
		n, err := s.Prompts.DeleteMany(ctx, chunk)
		deleted += n
		if err != nil {
			metrics.RecordPromptsPruned(policy.Name(), deleted)
			return deleted, fmt.Errorf("%w: prompts: %w", ErrDelete, err)
		}
	}

	metrics.RecordPromptsPruned(policy.Name(), deleted)
	logging.FromContext(ctx).Info("stale prompts pruned",
		slog.String("policy", policy.Name()),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

func chunks(ids []string, size int) func(yield func([]string) bool) {
	return func(yield func([]string) bool) {
		for start := 0; start < len(ids); start += size {
			end := min(start+size, len(ids))
			if !yield(ids[start:end]) {
				return
			}
		}
	}
}

func (s *Service) ceiling() int {
	if s.Ceiling <= 0 {
		return DefaultCeiling
	}
	return s.Ceiling
}

func (s *Service) chunkSize() int {
	if s.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return s.ChunkSize
}

func (s *Service) policy() PromptPolicy {
	if s.Policy == nil {
		return NoopPolicy{}
	}
	return s.Policy
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
