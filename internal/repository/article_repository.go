package repository

import (
	"context"

	"lesnouvelles-feed/internal/domain/entity"
)

// ArticleFilter narrows the set of enriched articles considered for scoring.
// Empty slices mean no restriction.
type ArticleFilter struct {
	Categories []string
	Sources    []string
}

// LinkRank is the frontpage position of one curated link.
type LinkRank struct {
	Link string
	Rank int
}

// ArticleRepository is the content store port for articles.
type ArticleRepository interface {
	// Get returns entity.ErrNotFound when id does not resolve to a living article.
	Get(ctx context.Context, id string) (*entity.Article, error)
	// GetMany returns the articles that still exist, in no particular order.
	// Missing ids are silently absent from the result.
	GetMany(ctx context.Context, ids []string) ([]*entity.Article, error)
	// Create inserts a new article. Returns entity.ErrConflict on a duplicate link.
	Create(ctx context.Context, article *entity.Article) error
	// ExistsByLinkBatch reports which of links are already stored.
	ExistsByLinkBatch(ctx context.Context, links []string) (map[string]bool, error)

	// ListForEnrichment selects articles missing tags or embedding whose
	// retry_count is <= maxRetry, oldest published first.
	ListForEnrichment(ctx context.Context, maxRetry, limit int) ([]*entity.Article, error)
	// ListEnriched returns every article with both tags and embedding set.
	ListEnriched(ctx context.Context, filter ArticleFilter) ([]*entity.Article, error)

	// UpdateEnrichment persists one enrichment pass in a single statement.
	UpdateEnrichment(ctx context.Context, id string, update entity.EnrichmentUpdate) error
	UpdateSimilar(ctx context.Context, id string, similar []entity.SimilarRef) error
	// RankFrontpage resets every article of source to rank 0 and then assigns
	// each LinkRank to the matching article, atomically. Returns the number of ranked articles.
	RankFrontpage(ctx context.Context, source string, ranks []LinkRank) (int64, error)

	Count(ctx context.Context) (int64, error)
	// ListOldest returns the ids of the limit oldest articles by publish date, oldest first.
	ListOldest(ctx context.Context, limit int) ([]string, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}
