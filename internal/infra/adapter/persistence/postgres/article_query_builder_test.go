package postgres_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/infra/adapter/persistence/postgres"
	"lesnouvelles-feed/internal/repository"
)

/* ──────────────────────────── Enriched ──────────────────────────── */

func TestArticleQueryBuilder_Enriched_NoFilter(t *testing.T) {
	qb := postgres.NewArticleQueryBuilder()
	query, args, err := qb.Enriched(repository.ArticleFilter{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "SELECT id, link, title"))
	assert.Contains(t, query, "FROM articles")
	assert.Contains(t, query, "jsonb_array_length(tags) > 0")
	assert.Contains(t, query, "embedding IS NOT NULL")
	assert.True(t, strings.HasSuffix(query, "ORDER BY published_at DESC"))
	assert.NotContains(t, query, "category")
	assert.Empty(t, args)
}

func TestArticleQueryBuilder_Enriched_AllFilters(t *testing.T) {
	qb := postgres.NewArticleQueryBuilder()
	query, args, err := qb.Enriched(repository.ArticleFilter{
		Categories: []string{"tech", "science"},
		Sources:    []string{"lemonde"},
	})
	require.NoError(t, err)

	assert.Contains(t, query, "category IN ($1,$2)")
	assert.Contains(t, query, "source IN ($3)")
	assert.Equal(t, []interface{}{"tech", "science", "lemonde"}, args)
}

func TestArticleQueryBuilder_LinksIn(t *testing.T) {
	qb := postgres.NewArticleQueryBuilder()
	query, args, err := qb.LinksIn([]string{"https://a.example/1", "https://a.example/2"})
	require.NoError(t, err)

	assert.Equal(t, "SELECT link FROM articles WHERE link IN ($1,$2)", query)
	assert.Equal(t, []interface{}{"https://a.example/1", "https://a.example/2"}, args)
}

/* ──────────────────────────── ByIDs / DeleteByIDs ──────────────────────────── */

func TestArticleQueryBuilder_ByIDs(t *testing.T) {
	qb := postgres.NewArticleQueryBuilder()
	query, args, err := qb.ByIDs([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Contains(t, query, "FROM articles WHERE id IN ($1,$2,$3)")
	assert.Len(t, args, 3)
}

func TestArticleQueryBuilder_DeleteByIDs(t *testing.T) {
	qb := postgres.NewArticleQueryBuilder()
	query, args, err := qb.DeleteByIDs("prompts", []string{"p1", "p2"})
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM prompts WHERE id IN ($1,$2)", query)
	assert.Equal(t, []interface{}{"p1", "p2"}, args)
}
