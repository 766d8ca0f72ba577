package textanalysis

import (
	"context"
	"fmt"

	"lesnouvelles-feed/internal/domain/entity"
)

// Analyzer pairs an entity extractor with an embedder, which may come from
// different providers.
type Analyzer struct {
	Extractor EntityExtractor
	Embedder  Embedder
}

// ExtractEntities delegates to the extractor.
func (a *Analyzer) ExtractEntities(ctx context.Context, text string) ([]entity.Tag, error) {
	return a.Extractor.ExtractEntities(ctx, text)
}

// Embed delegates to the embedder.
func (a *Analyzer) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.Embedder.Embed(ctx, text)
}

// New builds the analyzer cfg describes, behind a cache when
// cfg.CacheSize is positive.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var a Analyzer
	switch cfg.Provider {
	case ProviderOpenAI:
		o := NewOpenAI(cfg)
		a = Analyzer{Extractor: o, Embedder: o}
	case ProviderClaude:
		a = Analyzer{Extractor: NewClaude(cfg), Embedder: NewOpenAI(cfg)}
	case ProviderRemote:
		r := NewRemote(cfg, nil)
		a = Analyzer{Extractor: r, Embedder: r}
	default:
		return nil, fmt.Errorf("unknown text analysis provider %q", cfg.Provider)
	}

	if cfg.CacheSize == 0 {
		return &a, nil
	}
	cached, err := NewCached(a.Extractor, a.Embedder, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Analyzer{Extractor: cached, Embedder: cached}, nil
}
