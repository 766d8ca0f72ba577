// Package frontpage applies publisher-curated orderings to articles.
// A featured article carries its 1-based position in the curated feed;
// every other article of the same source carries rank 0.
package frontpage

import (
	"context"
	"errors"

	"lesnouvelles-feed/internal/domain/entity"
)

// ErrRank indicates the ranks of a source could not be written.
var ErrRank = errors.New("rank frontpage")

// FeedFetcher reads a curated feed. Item order is the curated order.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.FeedItem, error)
}

// Catalog lists the configured sources.
type Catalog interface {
	Sources() []entity.Source
}

// Pacer spaces out feed fetches. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}
