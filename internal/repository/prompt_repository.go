package repository

import (
	"context"
	"time"

	"lesnouvelles-feed/internal/domain/entity"
)

// PromptRepository is the content store port for prompts.
type PromptRepository interface {
	// Get returns entity.ErrNotFound when id does not resolve to a living prompt.
	Get(ctx context.Context, id string) (*entity.Prompt, error)
	// GetWithKey returns entity.ErrNotFound unless both id and key match.
	GetWithKey(ctx context.Context, id, key string) (*entity.Prompt, error)
	Create(ctx context.Context, prompt *entity.Prompt) error

	// ListForEnrichment selects prompts missing tags or embedding whose
	// retry_count is <= maxRetry, oldest created first.
	ListForEnrichment(ctx context.Context, maxRetry, limit int) ([]*entity.Prompt, error)
	// ListScorable returns enabled prompts with both tags and embedding set.
	ListScorable(ctx context.Context) ([]*entity.Prompt, error)

	UpdateEnrichment(ctx context.Context, id string, update entity.EnrichmentUpdate) error
	// UpdateFeed overwrites the feed and sets last_used_at.
	UpdateFeed(ctx context.Context, id string, feed []entity.FeedEntry, lastUsed time.Time) error
	// UpdateText replaces the text and clears every derived field in the same statement.
	UpdateText(ctx context.Context, id, text string) error
	UpdateSettings(ctx context.Context, id string, settings entity.PromptSettings) error
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// ListStale returns the ids of prompts last used before the given instant, stalest first.
	ListStale(ctx context.Context, before time.Time, limit int) ([]string, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}
