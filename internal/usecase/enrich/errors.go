// Package enrich fills in the derived state of articles and prompts: named
// entity tags, an embedding, and for articles the open-graph metadata and
// banner image. Each selected item gets one attempt per pass; its retry
// count grows with every attempt that reaches the store, so an item that
// keeps failing falls out of selection once it passes the ceiling.
package enrich

import (
	"context"
	"errors"

	"lesnouvelles-feed/internal/domain/entity"
)

const (
	// DefaultBatchSize is the number of items of each kind selected per pass.
	DefaultBatchSize = 10
	// DefaultMaxRetry is the highest retry count still selected.
	DefaultMaxRetry = 3
)

// ErrSelection indicates a kind could not be listed for enrichment.
var ErrSelection = errors.New("select items for enrichment")

// EntityExtractor returns the named entities found in text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]entity.Tag, error)
}

// Embedder returns a vector representation of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Analyzer is the text-analysis capability the pipeline depends on.
type Analyzer interface {
	EntityExtractor
	Embedder
}

// OGPFetcher reads the open-graph metadata of a page.
type OGPFetcher interface {
	FetchOGP(ctx context.Context, link string) (*entity.OGP, error)
}

// BannerRenderer derives a captioned banner from an image URL and returns
// it as a data URL.
type BannerRenderer interface {
	Render(ctx context.Context, imageURL, caption string) (string, error)
}

// Pacer spaces out the items of a pass. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}
