package score

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/observability/tracing"
	"lesnouvelles-feed/internal/repository"
)

// DefaultSimilarTopN is the number of related articles kept per article.
const DefaultSimilarTopN = 5

// SimilarService caches, for every enriched article, the most related other
// articles. It compares articles with SymmetricTagOverlap so the relation
// does not depend on which article is visited first. The pass only reads
// and writes the store, so it is not paced.
type SimilarService struct {
	Articles repository.ArticleRepository
	// Threshold is used as given, 0 included.
	Threshold float64
	// TopN caps each list; 0 means DefaultSimilarTopN.
	TopN int
}

// SimilarStats summarizes one similar-articles pass.
type SimilarStats struct {
	Articles int
	Updated  int
	Failed   int
	Duration time.Duration
}

// RelatedTo returns the topN candidates most similar to a whose total score
// exceeds threshold. a itself is never included.
func RelatedTo(a *entity.Article, candidates []*entity.Article, threshold float64, topN int) []entity.SimilarRef {
	refs := make([]entity.SimilarRef, 0)
	byID := make(map[string]time.Time, len(candidates))
	for _, c := range candidates {
		if c.ID == a.ID {
			continue
		}
		b := Score(a, c, SymmetricTagOverlap)
		if b.Total > threshold {
			refs = append(refs, entity.SimilarRef{ArticleID: c.ID, Score: b.Total})
			byID[c.ID] = c.PublishedAt
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Score != refs[j].Score {
			return refs[i].Score > refs[j].Score
		}
		ti, tj := byID[refs[i].ArticleID], byID[refs[j].ArticleID]
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return refs[i].ArticleID < refs[j].ArticleID
	})
	if topN > 0 && len(refs) > topN {
		refs = refs[:topN]
	}
	return refs
}

// Run rewrites the similar list of every enriched article.
func (s *SimilarService) Run(ctx context.Context) (stats *SimilarStats, err error) {
	ctx, span := tracing.StartSpan(ctx, "score.Similar")
	defer func() { tracing.EndSpan(span, err) }()

	logger := logging.FromContext(ctx)
	start := time.Now()
	stats = &SimilarStats{}

	articles, err := s.Articles.ListEnriched(ctx, repository.ArticleFilter{})
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrListCandidates, err)
	}
	stats.Articles = len(articles)

	topN := s.TopN
	if topN == 0 {
		topN = DefaultSimilarTopN
	}

	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		refs := RelatedTo(a, articles, s.Threshold, topN)
		if err := s.Articles.UpdateSimilar(ctx, a.ID, refs); err != nil {
			stats.Failed++
			logger.Warn("failed to update similar articles",
				slog.String("article_id", a.ID),
				logging.Err(err))
			continue
		}
		stats.Updated++
		metrics.RecordSimilarUpdated()
	}

	stats.Duration = time.Since(start)
	logger.Info("similar articles rebuilt",
		slog.Int("articles", stats.Articles),
		slog.Int("updated", stats.Updated),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}
