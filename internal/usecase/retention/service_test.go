package retention_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/usecase/retention"
	"lesnouvelles-feed/tests/fixtures"
)

func articles(n int) []*entity.Article {
	out := make([]*entity.Article, n)
	for i := range out {
		// a0000 is the oldest
		out[i] = fixtures.NewArticle(fmt.Sprintf("a%04d", i), fixtures.WithPublishedAt(time.Duration(i)*time.Minute))
	}
	return out
}

func TestPruneArticles_DeletesOldestAboveCeiling(t *testing.T) {
	store := fixtures.NewArticleStore(articles(1050)...)
	svc := &retention.Service{Articles: store, ChunkSize: 20}

	stats, err := svc.PruneArticles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &retention.ArticleStats{Before: 1050, Deleted: 50}, stats)
	assert.Equal(t, 1000, store.Len())
	for i := 0; i < 50; i++ {
		assert.Nil(t, store.Snapshot(fmt.Sprintf("a%04d", i)))
	}
	assert.NotNil(t, store.Snapshot("a0050"))
	assert.NotNil(t, store.Snapshot("a1049"))
}

func TestPruneArticles_UnderCeiling(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		ceiling int
	}{
		{name: "empty store", count: 0, ceiling: 10},
		{name: "below", count: 5, ceiling: 10},
		{name: "exactly at ceiling", count: 10, ceiling: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := fixtures.NewArticleStore(articles(tt.count)...)
			svc := &retention.Service{Articles: store, Ceiling: tt.ceiling}

			stats, err := svc.PruneArticles(context.Background())
			require.NoError(t, err)
			assert.Zero(t, stats.Deleted)
			assert.Equal(t, tt.count, store.Len())
		})
	}
}

func TestPruneArticles_DeleteError(t *testing.T) {
	store := fixtures.NewArticleStore(articles(12)...)
	store.ErrDelete = errors.New("lock timeout")
	svc := &retention.Service{Articles: store, Ceiling: 10}

	stats, err := svc.PruneArticles(context.Background())
	assert.ErrorIs(t, err, retention.ErrDelete)
	assert.Zero(t, stats.Deleted)
	assert.Equal(t, 12, store.Len())
}

func TestPrunePrompts(t *testing.T) {
	now := fixtures.BaseTime.Add(30 * 24 * time.Hour)
	seed := func() *fixtures.PromptStore {
		return fixtures.NewPromptStore(
			fixtures.NewPrompt("fresh", "a", fixtures.PromptLastUsed(29*24*time.Hour)),
			fixtures.NewPrompt("idle", "b", fixtures.PromptLastUsed(time.Hour)),
			fixtures.NewPrompt("idler", "c"),
		)
	}

	tests := []struct {
		name      string
		policy    retention.PromptPolicy
		wantLeft  []string
		wantGone  []string
		wantCount int64
	}{
		{
			name:     "nil policy keeps everything",
			policy:   nil,
			wantLeft: []string{"fresh", "idle", "idler"},
		},
		{
			name:      "last used older than a week",
			policy:    retention.LastUsedPolicy{MaxIdle: 7 * 24 * time.Hour},
			wantLeft:  []string{"fresh"},
			wantGone:  []string{"idle", "idler"},
			wantCount: 2,
		},
		{
			name:      "batch size bounds one pass, stalest first",
			policy:    retention.LastUsedPolicy{MaxIdle: 7 * 24 * time.Hour, BatchSize: 1},
			wantLeft:  []string{"fresh", "idle"},
			wantGone:  []string{"idler"},
			wantCount: 1,
		},
		{
			name:     "zero idle behaves like noop",
			policy:   retention.PolicyFor(0),
			wantLeft: []string{"fresh", "idle", "idler"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seed()
			svc := &retention.Service{
				Prompts: store,
				Policy:  tt.policy,
				Now:     func() time.Time { return now },
			}

			n, err := svc.PrunePrompts(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
			for _, id := range tt.wantLeft {
				assert.NotNil(t, store.Snapshot(id), id)
			}
			for _, id := range tt.wantGone {
				assert.Nil(t, store.Snapshot(id), id)
			}
		})
	}
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, "noop", retention.PolicyFor(-time.Hour).Name())
	assert.Equal(t, retention.LastUsedPolicy{MaxIdle: time.Hour}, retention.PolicyFor(time.Hour))
}
