package fixtures

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/repository"
)

func TestArticleStore_ListForEnrichment_OldestFirstAndCeiling(t *testing.T) {
	store := NewArticleStore(
		NewArticle("new", WithPublishedAt(time.Hour)),
		NewArticle("old", WithPublishedAt(-time.Hour)),
		NewArticle("exhausted", WithRetryCount(4)),
		NewArticle("done", Enriched(UnitVector(2, 0), "x")),
		NewArticle("no-ogp", WithTags("y"), WithEmbedding(UnitVector(2, 1))),
	)

	got, err := store.ListForEnrichment(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "old", got[0].ID)
	assert.Equal(t, "new", got[1].ID)
}

func TestArticleStore_CreateConflict(t *testing.T) {
	store := NewArticleStore(NewArticle("a"))
	err := store.Create(context.Background(), NewArticle("b", WithLink("https://news.example.com/a")))
	assert.True(t, errors.Is(err, entity.ErrConflict))
}

func TestArticleStore_ListEnrichedFilter(t *testing.T) {
	store := NewArticleStore(
		NewArticle("a", Enriched(UnitVector(2, 0), "x"), WithSource("lemonde", "tech")),
		NewArticle("b", Enriched(UnitVector(2, 0), "x"), WithSource("ledevoir", "tech")),
	)
	got, err := store.ListEnriched(context.Background(), repository.ArticleFilter{Sources: []string{"ledevoir"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestPromptStore_UpdateTextResetsDerivedState(t *testing.T) {
	store := NewPromptStore(NewPrompt("p", "old", PromptTags("x"), PromptEmbedding(UnitVector(2, 0)), PromptRetryCount(2)))

	require.NoError(t, store.UpdateText(context.Background(), "p", "new"))

	p := store.Snapshot("p")
	assert.Equal(t, "new", p.Text)
	assert.Empty(t, p.Tags)
	assert.Empty(t, p.Embedding)
	assert.Zero(t, p.RetryCount)
}

func TestAngleVector(t *testing.T) {
	v := AngleVector(math.Pi / 3)
	assert.InDelta(t, 0.5, v[0], 1e-6)
	assert.InDelta(t, 1.0, float64(v[0]*v[0]+v[1]*v[1]), 1e-6)
}
