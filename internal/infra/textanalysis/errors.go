// Package textanalysis adapts named-entity recognition and embedding
// providers to the enrichment pipeline: OpenAI, Anthropic Claude, and a
// self-hosted model server reached over HTTP. Every adapter goes through
// retry and a per-provider circuit breaker; Cached adds an LRU response
// cache in front of any of them.
package textanalysis

import (
	"context"
	"errors"

	"lesnouvelles-feed/internal/domain/entity"
)

// Provider names accepted by TEXT_ANALYSIS_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderRemote = "remote"
)

var (
	// ErrEmptyResponse indicates the provider answered without content.
	ErrEmptyResponse = errors.New("text analysis: empty response")
	// ErrMalformedResponse indicates the answer could not be decoded.
	ErrMalformedResponse = errors.New("text analysis: malformed response")
	// ErrUnsupported indicates the provider lacks the requested operation.
	ErrUnsupported = errors.New("text analysis: operation not supported by provider")
)

// EntityExtractor returns the named entities found in a text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]entity.Tag, error)
}

// Embedder returns the embedding of a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
