package frontpage

import (
	"context"
	"fmt"
	"time"

	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/repository"
)

// Ranks maps a curated link list to 1-based positions. Empty links are
// ignored and a repeated link keeps its first position.
func Ranks(links []string) []repository.LinkRank {
	seen := make(map[string]struct{}, len(links))
	ranks := make([]repository.LinkRank, 0, len(links))
	for i, link := range links {
		if link == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		ranks = append(ranks, repository.LinkRank{Link: link, Rank: i + 1})
	}
	return ranks
}

// Ranker writes frontpage ranks for one source at a time.
type Ranker struct {
	Articles repository.ArticleRepository
}

// RankSource resets every article of source and ranks those whose link
// appears in links. It only touches articles of source and returns the
// number of ranked articles.
func (r Ranker) RankSource(ctx context.Context, source string, links []string) (int64, error) {
	start := time.Now()
	n, err := r.Articles.RankFrontpage(ctx, source, Ranks(links))
	metrics.RecordDBQuery("rank_frontpage", time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRank, source, err)
	}
	metrics.SetFrontpageRanked(source, n)
	return n, nil
}
