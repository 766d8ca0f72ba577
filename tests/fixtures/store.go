package fixtures

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/repository"
)

// ArticleStore is an in-memory repository.ArticleRepository with the same
// selection and ordering rules as the Postgres adapter. Err* fields inject
// failures into the matching method.
type ArticleStore struct {
	mu       sync.Mutex
	articles map[string]*entity.Article

	ErrList             error
	ErrUpdateEnrichment error
	ErrRank             error
	ErrDelete           error
	ErrExists           error

	UpdateCalls int
}

var _ repository.ArticleRepository = (*ArticleStore)(nil)

// NewArticleStore seeds the store with copies of articles.
func NewArticleStore(articles ...*entity.Article) *ArticleStore {
	s := &ArticleStore{articles: make(map[string]*entity.Article)}
	for _, a := range articles {
		cp := *a
		s.articles[a.ID] = &cp
	}
	return s
}

// Snapshot returns a copy of the stored article, or nil.
func (s *ArticleStore) Snapshot(id string) *entity.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Len returns the number of stored articles.
func (s *ArticleStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

func (s *ArticleStore) sorted(less func(a, b *entity.Article) bool) []*entity.Article {
	out := make([]*entity.Article, 0, len(s.articles))
	for _, a := range s.articles {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func oldestFirst(a, b *entity.Article) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	return a.ID < b.ID
}

func (s *ArticleStore) Get(_ context.Context, id string) (*entity.Article, error) {
	if a := s.Snapshot(id); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("Get: %w", entity.ErrNotFound)
}

func (s *ArticleStore) GetMany(_ context.Context, ids []string) ([]*entity.Article, error) {
	out := make([]*entity.Article, 0, len(ids))
	for _, id := range ids {
		if a := s.Snapshot(id); a != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *ArticleStore) Create(_ context.Context, article *entity.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.Link == article.Link {
			return fmt.Errorf("Create: %w", entity.ErrConflict)
		}
	}
	if article.ID == "" {
		article.ID = entity.NewID()
	}
	article.CreatedAt = time.Now().UTC()
	cp := *article
	s.articles[article.ID] = &cp
	return nil
}

func (s *ArticleStore) ListForEnrichment(_ context.Context, maxRetry, limit int) ([]*entity.Article, error) {
	if s.ErrList != nil {
		return nil, s.ErrList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Article
	for _, a := range s.sorted(oldestFirst) {
		if a.NeedsEnrichment() && a.RetryCount <= maxRetry {
			out = append(out, a)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *ArticleStore) ListEnriched(_ context.Context, filter repository.ArticleFilter) ([]*entity.Article, error) {
	if s.ErrList != nil {
		return nil, s.ErrList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	newestFirst := func(a, b *entity.Article) bool { return oldestFirst(b, a) }
	var out []*entity.Article
	for _, a := range s.sorted(newestFirst) {
		if !a.IsEnriched() {
			continue
		}
		if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, a.Category) {
			continue
		}
		if len(filter.Sources) > 0 && !slices.Contains(filter.Sources, a.Source) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *ArticleStore) ExistsByLinkBatch(_ context.Context, links []string) (map[string]bool, error) {
	if s.ErrExists != nil {
		return nil, s.ErrExists
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exists := make(map[string]bool, len(links))
	for _, a := range s.articles {
		if slices.Contains(links, a.Link) {
			exists[a.Link] = true
		}
	}
	return exists, nil
}

// OfSource returns the articles of source, oldest first.
func (s *ArticleStore) OfSource(source string) []*entity.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Article
	for _, a := range s.sorted(oldestFirst) {
		if a.Source == source {
			out = append(out, a)
		}
	}
	return out
}

func (s *ArticleStore) UpdateEnrichment(_ context.Context, id string, u entity.EnrichmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateCalls++
	if s.ErrUpdateEnrichment != nil {
		return s.ErrUpdateEnrichment
	}
	a, ok := s.articles[id]
	if !ok {
		return fmt.Errorf("UpdateEnrichment: %w", entity.ErrNotFound)
	}
	a.Tags = u.Tags
	a.Embedding = u.Embedding
	a.RetryCount = u.RetryCount
	if u.OGP != nil {
		a.OGP = u.OGP
	}
	if u.Image != nil {
		a.Image = *u.Image
	}
	return nil
}

func (s *ArticleStore) UpdateSimilar(_ context.Context, id string, similar []entity.SimilarRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return fmt.Errorf("UpdateSimilar: %w", entity.ErrNotFound)
	}
	a.Similar = similar
	return nil
}

func (s *ArticleStore) RankFrontpage(_ context.Context, source string, ranks []repository.LinkRank) (int64, error) {
	if s.ErrRank != nil {
		return 0, s.ErrRank
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.Source == source {
			a.FrontpageRank = 0
		}
	}
	var ranked int64
	for _, r := range ranks {
		for _, a := range s.articles {
			if a.Source == source && a.Link == r.Link {
				a.FrontpageRank = r.Rank
				ranked++
			}
		}
	}
	return ranked, nil
}

func (s *ArticleStore) Count(_ context.Context) (int64, error) {
	return int64(s.Len()), nil
}

func (s *ArticleStore) ListOldest(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, limit)
	for _, a := range s.sorted(oldestFirst) {
		if len(ids) == limit {
			break
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *ArticleStore) Delete(_ context.Context, id string) error {
	n, err := s.DeleteMany(context.Background(), []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (s *ArticleStore) DeleteMany(_ context.Context, ids []string) (int64, error) {
	if s.ErrDelete != nil {
		return 0, s.ErrDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.articles[id]; ok {
			delete(s.articles, id)
			n++
		}
	}
	return n, nil
}

// PromptStore is an in-memory repository.PromptRepository.
type PromptStore struct {
	mu      sync.Mutex
	prompts map[string]*entity.Prompt

	ErrList             error
	ErrUpdateEnrichment error
	ErrUpdateFeed       error

	UpdateCalls int
}

var _ repository.PromptRepository = (*PromptStore)(nil)

// NewPromptStore seeds the store with copies of prompts.
func NewPromptStore(prompts ...*entity.Prompt) *PromptStore {
	s := &PromptStore{prompts: make(map[string]*entity.Prompt)}
	for _, p := range prompts {
		cp := *p
		s.prompts[p.ID] = &cp
	}
	return s
}

// Snapshot returns a copy of the stored prompt, or nil.
func (s *PromptStore) Snapshot(id string) *entity.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (s *PromptStore) byCreation() []*entity.Prompt {
	out := make([]*entity.Prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *PromptStore) Get(_ context.Context, id string) (*entity.Prompt, error) {
	if p := s.Snapshot(id); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("Get: %w", entity.ErrNotFound)
}

func (s *PromptStore) GetWithKey(_ context.Context, id, key string) (*entity.Prompt, error) {
	if p := s.Snapshot(id); p != nil && p.Key == key {
		return p, nil
	}
	return nil, fmt.Errorf("GetWithKey: %w", entity.ErrNotFound)
}

func (s *PromptStore) Create(_ context.Context, prompt *entity.Prompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prompts[prompt.ID]; ok {
		return fmt.Errorf("Create: %w", entity.ErrConflict)
	}
	now := time.Now().UTC()
	prompt.CreatedAt, prompt.LastUsedAt = now, now
	cp := *prompt
	s.prompts[prompt.ID] = &cp
	return nil
}

func (s *PromptStore) ListForEnrichment(_ context.Context, maxRetry, limit int) ([]*entity.Prompt, error) {
	if s.ErrList != nil {
		return nil, s.ErrList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Prompt
	for _, p := range s.byCreation() {
		if p.NeedsEnrichment() && p.RetryCount <= maxRetry {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *PromptStore) ListScorable(_ context.Context) ([]*entity.Prompt, error) {
	if s.ErrList != nil {
		return nil, s.ErrList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Prompt
	for _, p := range s.byCreation() {
		if p.Enabled && p.IsEnriched() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PromptStore) update(op, id string, fn func(p *entity.Prompt)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrNotFound)
	}
	fn(p)
	return nil
}

func (s *PromptStore) UpdateEnrichment(_ context.Context, id string, u entity.EnrichmentUpdate) error {
	s.mu.Lock()
	s.UpdateCalls++
	err := s.ErrUpdateEnrichment
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.update("UpdateEnrichment", id, func(p *entity.Prompt) {
		p.Tags, p.Embedding, p.RetryCount = u.Tags, u.Embedding, u.RetryCount
	})
}

func (s *PromptStore) UpdateFeed(_ context.Context, id string, feed []entity.FeedEntry, lastUsed time.Time) error {
	if s.ErrUpdateFeed != nil {
		return s.ErrUpdateFeed
	}
	return s.update("UpdateFeed", id, func(p *entity.Prompt) {
		p.Feed, p.LastUsedAt = feed, lastUsed
	})
}

func (s *PromptStore) UpdateText(_ context.Context, id, text string) error {
	return s.update("UpdateText", id, func(p *entity.Prompt) {
		p.Text = text
		p.ResetDerived()
	})
}

func (s *PromptStore) UpdateSettings(_ context.Context, id string, settings entity.PromptSettings) error {
	return s.update("UpdateSettings", id, func(p *entity.Prompt) { p.Settings = settings })
}

func (s *PromptStore) SetEnabled(_ context.Context, id string, enabled bool) error {
	return s.update("SetEnabled", id, func(p *entity.Prompt) { p.Enabled = enabled })
}

func (s *PromptStore) ListStale(_ context.Context, before time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.byCreation()
	sort.SliceStable(all, func(i, j int) bool { return all[i].LastUsedAt.Before(all[j].LastUsedAt) })
	var ids []string
	for _, p := range all {
		if len(ids) == limit {
			break
		}
		if p.LastUsedAt.Before(before) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *PromptStore) Delete(_ context.Context, id string) error {
	n, _ := s.DeleteMany(context.Background(), []string{id})
	if n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (s *PromptStore) DeleteMany(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.prompts[id]; ok {
			delete(s.prompts, id)
			n++
		}
	}
	return n, nil
}
