package postgres

import (
	sq "github.com/Masterminds/squirrel"

	"lesnouvelles-feed/internal/repository"
)

// articleColumns is the column list shared by every article SELECT.
var articleColumns = []string{
	"id", "link", "title", "description", "source", "category", "published_at",
	"tags", "embedding", "retry_count", "ogp", "image",
	"frontpage_rank", "similar", "created_at",
}

// ArticleQueryBuilder builds the article queries whose shape depends on input.
type ArticleQueryBuilder struct {
	psql sq.StatementBuilderType
}

// NewArticleQueryBuilder creates a query builder using Postgres placeholders.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Enriched builds the SELECT for fully enriched articles matching filter,
// newest first.
func (qb *ArticleQueryBuilder) Enriched(filter repository.ArticleFilter) (string, []interface{}, error) {
	q := qb.psql.Select(articleColumns...).
		From("articles").
		Where("jsonb_array_length(tags) > 0").
		Where("embedding IS NOT NULL")

	if len(filter.Categories) > 0 {
		q = q.Where(sq.Eq{"category": filter.Categories})
	}
	if len(filter.Sources) > 0 {
		q = q.Where(sq.Eq{"source": filter.Sources})
	}

	return q.OrderBy("published_at DESC").ToSql()
}

// ByIDs builds the SELECT for a set of article ids.
func (qb *ArticleQueryBuilder) ByIDs(ids []string) (string, []interface{}, error) {
	return qb.psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": ids}).
		ToSql()
}

// LinksIn builds the SELECT of the stored links among links.
func (qb *ArticleQueryBuilder) LinksIn(links []string) (string, []interface{}, error) {
	return qb.psql.Select("link").
		From("articles").
		Where(sq.Eq{"link": links}).
		ToSql()
}

// DeleteByIDs builds a DELETE for a set of ids in table.
func (qb *ArticleQueryBuilder) DeleteByIDs(table string, ids []string) (string, []interface{}, error) {
	return qb.psql.Delete(table).
		Where(sq.Eq{"id": ids}).
		ToSql()
}
