package retention

import (
	"context"
	"fmt"
	"time"

	"lesnouvelles-feed/internal/repository"
)

// PromptPolicy decides which prompts are stale.
type PromptPolicy interface {
	Name() string
	Select(ctx context.Context, prompts repository.PromptRepository, now time.Time) ([]string, error)
}

// NoopPolicy never selects anything. It is used when no idle limit is configured.
type NoopPolicy struct{}

func (NoopPolicy) Name() string { return "noop" }

func (NoopPolicy) Select(context.Context, repository.PromptRepository, time.Time) ([]string, error) {
	return nil, nil
}

// LastUsedPolicy selects prompts whose feed was last built more than
// MaxIdle ago, at most BatchSize per pass (0 means DefaultChunkSize).
type LastUsedPolicy struct {
	MaxIdle   time.Duration
	BatchSize int
}

func (LastUsedPolicy) Name() string { return "last_used" }

func (p LastUsedPolicy) Select(ctx context.Context, prompts repository.PromptRepository, now time.Time) ([]string, error) {
	if p.MaxIdle <= 0 {
		return nil, nil
	}
	limit := p.BatchSize
	if limit <= 0 {
		limit = DefaultChunkSize
	}
	ids, err := prompts.ListStale(ctx, now.Add(-p.MaxIdle), limit)
	if err != nil {
		return nil, fmt.Errorf("ListStale: %w", err)
	}
	return ids, nil
}

// PolicyFor returns LastUsedPolicy when maxIdle is positive and NoopPolicy otherwise.
func PolicyFor(maxIdle time.Duration) PromptPolicy {
	if maxIdle > 0 {
		return LastUsedPolicy{MaxIdle: maxIdle}
	}
	return NoopPolicy{}
}
