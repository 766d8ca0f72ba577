// Package ingest harvests the catalog's RSS feeds into new articles.
// Items are cleaned to plain text, old items are skipped and links
// already stored count as duplicates.
package ingest

import (
	"context"
	"errors"
	"time"

	"lesnouvelles-feed/internal/domain/entity"
)

const (
	// DefaultMaxAge skips items published earlier than this.
	DefaultMaxAge = 48 * time.Hour
	// DefaultBackfillThreshold is the description length, in characters,
	// under which the article page is read to get a longer one.
	DefaultBackfillThreshold = 160
	// MaxDescriptionLength caps stored descriptions, in characters.
	MaxDescriptionLength = 2000
	// DefaultParallelism is the number of sources harvested at once.
	DefaultParallelism = 4
)

// ErrFetchFeed indicates a feed could not be fetched or parsed.
var ErrFetchFeed = errors.New("fetch feed")

// FeedFetcher reads and parses one RSS or Atom feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.FeedItem, error)
}

// ContentFetcher extracts the readable text of an article page.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Catalog lists the configured sources.
type Catalog interface {
	Sources() []entity.Source
}

// Pacer spaces out feed fetches. It is shared by every source goroutine,
// so it must be safe for concurrent use like *rate.Limiter.
type Pacer interface {
	Wait(ctx context.Context) error
}
