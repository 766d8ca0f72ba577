package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/observability/tracing"
	"lesnouvelles-feed/internal/repository"
)

// Service runs enrichment passes over prompts and then articles.
// OGP and Banner are optional.
type Service struct {
	Prompts  repository.PromptRepository
	Articles repository.ArticleRepository
	Analyzer Analyzer
	OGP      OGPFetcher
	Banner   BannerRenderer
	Pacer    Pacer

	BatchSize int
	// MaxRetry is the highest retry count still selected. It is used as
	// given: 0 allows a single attempt.
	MaxRetry int
	Now      func() time.Time
}

// KindStats counts the items of one kind handled by a pass.
type KindStats struct {
	Selected int
	// Enriched items left the pass with everything they need.
	Enriched int
	// Incomplete items were written but an analyzer returned an empty
	// result, so they will be selected again.
	Incomplete int
	// Failed items hit an extraction error. Whatever was extracted is
	// still written together with the incremented retry count.
	Failed      int
	StoreErrors int
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Prompts  KindStats
	Articles KindStats
	Duration time.Duration
}

type outcome int

const (
	outcomeEnriched outcome = iota
	outcomeIncomplete
	outcomeFailed
	outcomeStoreError
)

func (o outcome) label() string {
	switch o {
	case outcomeEnriched:
		return metrics.OutcomeEnriched
	case outcomeIncomplete:
		return metrics.OutcomeIncomplete
	case outcomeFailed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeStoreError
	}
}

func (k *KindStats) add(o outcome) {
	switch o {
	case outcomeEnriched:
		k.Enriched++
	case outcomeIncomplete:
		k.Incomplete++
	case outcomeFailed:
		k.Failed++
	case outcomeStoreError:
		k.StoreErrors++
	}
}

// Run processes one batch of prompts and one batch of articles. An item
// failure never stops the pass; a listing failure skips that kind and is
// returned once the other kind is done. Context cancellation stops the
// pass between items.
func (s *Service) Run(ctx context.Context) (stats *Stats, err error) {
	ctx, span := tracing.StartSpan(ctx, "enrich.Run")
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	stats = &Stats{}
	logger := logging.FromContext(ctx)
	first := true
	var selectErrs []error

	prompts, err := s.Prompts.ListForEnrichment(ctx, s.MaxRetry, s.batchSize())
	if err != nil {
		selectErrs = append(selectErrs, fmt.Errorf("%w: prompts: %w", ErrSelection, err))
	}
	stats.Prompts.Selected = len(prompts)
	metrics.SetEnrichmentBacklog(string(entity.KindPrompt), len(prompts))
	for _, p := range prompts {
		if err := s.wait(ctx, &first); err != nil {
			return stats, err
		}
		stats.Prompts.add(s.enrichPrompt(ctx, p))
	}

	articles, err := s.Articles.ListForEnrichment(ctx, s.MaxRetry, s.batchSize())
	if err != nil {
		selectErrs = append(selectErrs, fmt.Errorf("%w: articles: %w", ErrSelection, err))
	}
	stats.Articles.Selected = len(articles)
	metrics.SetEnrichmentBacklog(string(entity.KindArticle), len(articles))
	for _, a := range articles {
		if err := s.wait(ctx, &first); err != nil {
			return stats, err
		}
		stats.Articles.add(s.enrichArticle(ctx, a))
	}

	stats.Duration = time.Since(start)
	logger.Info("enrichment pass completed",
		slog.Int("prompts_selected", stats.Prompts.Selected),
		slog.Int("prompts_enriched", stats.Prompts.Enriched),
		slog.Int("articles_selected", stats.Articles.Selected),
		slog.Int("articles_enriched", stats.Articles.Enriched),
		slog.Int("articles_incomplete", stats.Articles.Incomplete),
		slog.Int("failed", stats.Prompts.Failed+stats.Articles.Failed),
		slog.Int("store_errors", stats.Prompts.StoreErrors+stats.Articles.StoreErrors),
		slog.Duration("duration", stats.Duration))

	return stats, errors.Join(selectErrs...)
}

func (s *Service) enrichPrompt(ctx context.Context, p *entity.Prompt) outcome {
	return s.process(ctx, p,
		func() string { return PromptEntityText(p) },
		func([]entity.Tag) string { return PromptEmbeddingText(p) },
		nil,
		s.Prompts.UpdateEnrichment)
}

func (s *Service) enrichArticle(ctx context.Context, a *entity.Article) outcome {
	return s.process(ctx, a,
		func() string { return ArticleEntityText(a) },
		func(tags []entity.Tag) string { return ArticleEmbeddingText(a, tags) },
		func(ctx context.Context, u *entity.EnrichmentUpdate) { s.decorate(ctx, a, u) },
		s.Articles.UpdateEnrichment)
}

// process runs the shared steps for one item: entities, embedding, the
// optional kind-specific extras, then one write carrying the incremented
// retry count. Every attempt that reaches the store counts toward the
// ceiling, including failed ones. Extras never decide completeness.
func (s *Service) process(
	ctx context.Context,
	item entity.Enrichable,
	entityText func() string,
	embeddingText func([]entity.Tag) string,
	extras func(context.Context, *entity.EnrichmentUpdate),
	save func(context.Context, string, entity.EnrichmentUpdate) error,
) (o outcome) {
	kind := string(item.Kind())
	ctx, span := tracing.StartSpan(ctx, "enrich.item",
		attribute.String("kind", kind),
		attribute.String("id", item.EntityID()),
		attribute.Int("retry_count", item.Attempts()))
	logger := logging.FromContext(ctx).With(slog.String("kind", kind), slog.String("id", item.EntityID()))
	defer func() {
		metrics.RecordEnrichment(kind, o.label())
		span.SetAttributes(attribute.String("outcome", o.label()))
		span.End()
	}()

	update := entity.EnrichmentUpdate{
		Tags:      item.EnrichmentTags(),
		Embedding: item.EnrichmentEmbedding(),
	}
	failed := false

	if len(update.Tags) == 0 {
		tags, err := s.Analyzer.ExtractEntities(ctx, entityText())
		if err != nil {
			failed = true
			metrics.RecordExtractionFailure(kind, "entities")
			logger.Warn("entity extraction failed", logging.Err(err))
		} else {
			update.Tags = tags
		}
	}

	// the article embedding text carries the tags, so wait for them
	if !failed && len(update.Embedding) == 0 {
		vec, err := s.Analyzer.Embed(ctx, embeddingText(update.Tags))
		if err != nil {
			failed = true
			metrics.RecordExtractionFailure(kind, "embedding")
			logger.Warn("embedding failed", logging.Err(err))
		} else {
			update.Embedding = vec
		}
	}

	complete := len(update.Tags) > 0 && len(update.Embedding) > 0
	if extras != nil {
		extras(ctx, &update)
	}

	update.RetryCount = item.Attempts() + 1
	if err := save(ctx, item.EntityID(), update); err != nil {
		logger.Error("failed to save enrichment", logging.Err(err))
		return outcomeStoreError
	}

	switch {
	case failed:
		return outcomeFailed
	case !complete:
		logger.Info("item saved incomplete", slog.Int("retry_count", update.RetryCount))
		return outcomeIncomplete
	default:
		return outcomeEnriched
	}
}

// decorate fetches missing open-graph metadata and derives the banner while
// the article is being enriched. Failures are logged and leave the stored
// values untouched; a page without og tags is not retried.
func (s *Service) decorate(ctx context.Context, a *entity.Article, u *entity.EnrichmentUpdate) {
	logger := logging.FromContext(ctx)
	ogp := a.OGP

	if ogp.IsEmpty() && s.OGP != nil {
		fetched, err := s.OGP.FetchOGP(ctx, a.Link)
		switch {
		case err != nil:
			metrics.RecordExtractionFailure(string(entity.KindArticle), "ogp")
			logger.Warn("open-graph fetch failed",
				slog.String("article_id", a.ID),
				slog.String("link", a.Link),
				logging.Err(err))
		case !fetched.IsEmpty():
			u.OGP = fetched
			ogp = fetched
		}
	}

	if a.Image == "" && s.Banner != nil && ogp != nil && ogp.Image != "" {
		img, err := s.Banner.Render(ctx, ogp.Image, BannerCaption(a.Source, s.now().Year()))
		if err != nil {
			metrics.RecordExtractionFailure(string(entity.KindArticle), "banner")
			logger.Warn("banner derivation failed",
				slog.String("article_id", a.ID),
				logging.Err(err))
		} else {
			u.Image = &img
		}
	}
}

func (s *Service) wait(ctx context.Context, first *bool) error {
	if *first {
		*first = false
		return ctx.Err()
	}
	if s.Pacer == nil {
		return ctx.Err()
	}
	return s.Pacer.Wait(ctx)
}

func (s *Service) batchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
