package textanalysis

import (
	"context"
	"crypto/sha256"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/metrics"
)

type cacheKey [sha256.Size]byte

// Cached memoises successful answers of an extractor and an embedder by
// text digest. Failures are never cached. Re-enriching a prompt whose text
// did not change, or an article syndicated by two sources, then costs no
// provider call.
type Cached struct {
	extractor EntityExtractor
	embedder  Embedder
	tags      *lru.Cache[cacheKey, []entity.Tag]
	vectors   *lru.Cache[cacheKey, []float32]
}

// NewCached wraps extractor and embedder with LRU caches of size entries each.
func NewCached(extractor EntityExtractor, embedder Embedder, size int) (*Cached, error) {
	tags, err := lru.New[cacheKey, []entity.Tag](size)
	if err != nil {
		return nil, err
	}
	vectors, err := lru.New[cacheKey, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Cached{extractor: extractor, embedder: embedder, tags: tags, vectors: vectors}, nil
}

// ExtractEntities returns the cached tags for text or asks the extractor.
func (c *Cached) ExtractEntities(ctx context.Context, text string) ([]entity.Tag, error) {
	key := cacheKey(sha256.Sum256([]byte(text)))
	if tags, ok := c.tags.Get(key); ok {
		metrics.RecordCacheLookup("entities", true)
		return slices.Clone(tags), nil
	}
	metrics.RecordCacheLookup("entities", false)

	tags, err := c.extractor.ExtractEntities(ctx, text)
	if err != nil {
		return nil, err
	}
	c.tags.Add(key, slices.Clone(tags))
	return tags, nil
}

// Embed returns the cached vector for text or asks the embedder.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(sha256.Sum256([]byte(text)))
	if vec, ok := c.vectors.Get(key); ok {
		metrics.RecordCacheLookup("embed", true)
		return slices.Clone(vec), nil
	}
	metrics.RecordCacheLookup("embed", false)

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.vectors.Add(key, slices.Clone(vec))
	return vec, nil
}

// Len reports the number of cached entries per operation.
func (c *Cached) Len() (tags, vectors int) {
	return c.tags.Len(), c.vectors.Len()
}
