package prompt

import (
	"context"
	"fmt"
	"log/slog"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/repository"
	"lesnouvelles-feed/internal/usecase/score"
)

// Service manages prompts. Every mutation requires the prompt key.
type Service struct {
	Prompts  repository.PromptRepository
	Articles repository.ArticleRepository
	// Threshold is used by Search for prompts without their own threshold.
	Threshold float64
}

// ResolvedEntry is one feed entry whose article still exists.
type ResolvedEntry struct {
	Article *entity.Article
	Score   float64
}

// Create stores a new enabled prompt with a fresh id and key. The
// enrichment pass picks it up on its next run.
func (s *Service) Create(ctx context.Context, text string, settings entity.PromptSettings) (*entity.Prompt, error) {
	if err := entity.ValidatePromptText(text); err != nil {
		return nil, err
	}
	if err := entity.ValidateSettings(settings); err != nil {
		return nil, err
	}

	p := &entity.Prompt{
		ID:       entity.NewID(),
		Key:      entity.NewKey(),
		Text:     text,
		Settings: settings,
		Enabled:  true,
	}
	if err := s.Prompts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}
	return p, nil
}

// Get returns the prompt with id.
func (s *Service) Get(ctx context.Context, id string) (*entity.Prompt, error) {
	p, err := s.Prompts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return p, nil
}

// EditText replaces the text and clears tags, embedding, feed and retry
// count so the prompt is enriched and scored again.
func (s *Service) EditText(ctx context.Context, id, key, text string) error {
	if err := entity.ValidatePromptText(text); err != nil {
		return err
	}
	if _, err := s.Prompts.GetWithKey(ctx, id, key); err != nil {
		return fmt.Errorf("get prompt: %w", err)
	}
	if err := s.Prompts.UpdateText(ctx, id, text); err != nil {
		return fmt.Errorf("update prompt text: %w", err)
	}
	return nil
}

// EditSettings replaces the scoring filters. Derived state is kept; the
// next scoring pass applies the new settings.
func (s *Service) EditSettings(ctx context.Context, id, key string, settings entity.PromptSettings) error {
	if err := entity.ValidateSettings(settings); err != nil {
		return err
	}
	if _, err := s.Prompts.GetWithKey(ctx, id, key); err != nil {
		return fmt.Errorf("get prompt: %w", err)
	}
	if err := s.Prompts.UpdateSettings(ctx, id, settings); err != nil {
		return fmt.Errorf("update prompt settings: %w", err)
	}
	return nil
}

// SetEnabled toggles whether the prompt takes part in scoring.
func (s *Service) SetEnabled(ctx context.Context, id, key string, enabled bool) error {
	if _, err := s.Prompts.GetWithKey(ctx, id, key); err != nil {
		return fmt.Errorf("get prompt: %w", err)
	}
	if err := s.Prompts.SetEnabled(ctx, id, enabled); err != nil {
		return fmt.Errorf("set prompt enabled: %w", err)
	}
	return nil
}

// Feed resolves the stored feed of a prompt in feed order. Entries whose
// article was deleted since the feed was built are dropped.
func (s *Service) Feed(ctx context.Context, id string) ([]ResolvedEntry, error) {
	p, err := s.Prompts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	if len(p.Feed) == 0 {
		return []ResolvedEntry{}, nil
	}

	ids := make([]string, len(p.Feed))
	for i, e := range p.Feed {
		ids[i] = e.ArticleID
	}
	articles, err := s.Articles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve feed: %w", err)
	}
	byID := make(map[string]*entity.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	out := make([]ResolvedEntry, 0, len(p.Feed))
	for _, e := range p.Feed {
		a, ok := byID[e.ArticleID]
		if !ok {
			continue
		}
		out = append(out, ResolvedEntry{Article: a, Score: e.Score})
	}
	if dropped := len(p.Feed) - len(out); dropped > 0 {
		logging.FromContext(ctx).Debug("feed entries no longer available",
			slog.String("prompt_id", id),
			slog.Int("dropped", dropped))
	}
	return out, nil
}

// Search scores the prompt against the current articles without storing
// the result. It returns ErrNotScorable until the prompt is enriched.
func (s *Service) Search(ctx context.Context, id string) ([]entity.FeedEntry, error) {
	p, err := s.Prompts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	if !p.IsEnriched() {
		return nil, ErrNotScorable
	}
	candidates, err := s.Articles.ListEnriched(ctx, repository.ArticleFilter{
		Categories: p.Settings.Categories,
		Sources:    p.Settings.Sources,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", score.ErrListCandidates, err)
	}
	return score.BuildFeed(p, candidates, s.Threshold), nil
}
