package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/repository"
)

type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{
		db:           db,
		queryBuilder: NewArticleQueryBuilder(),
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(s scanner) (*entity.Article, error) {
	var (
		a                  entity.Article
		tags, ogp, similar []byte
		embedding          *pgvector.Vector
		image              sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Link, &a.Title, &a.Description, &a.Source, &a.Category, &a.PublishedAt,
		&tags, &embedding, &a.RetryCount, &ogp, &image,
		&a.FrontpageRank, &similar, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := decodeJSON(similar, &a.Similar); err != nil {
		return nil, fmt.Errorf("decode similar: %w", err)
	}
	o, err := decodeOGP(ogp)
	if err != nil {
		return nil, fmt.Errorf("decode ogp: %w", err)
	}
	a.OGP = o
	a.Embedding = decodeVector(embedding)
	a.Image = nullString(image)
	return &a, nil
}

func (repo *ArticleRepo) queryArticles(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Article, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 16)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return articles, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id string) (*entity.Article, error) {
	query := `SELECT ` + strings.Join(articleColumns, ", ") + `
FROM articles
WHERE id = $1
LIMIT 1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Get: %w", entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) GetMany(ctx context.Context, ids []string) ([]*entity.Article, error) {
	if len(ids) == 0 {
		return []*entity.Article{}, nil
	}
	query, args, err := repo.queryBuilder.ByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("GetMany: build: %w", err)
	}
	return repo.queryArticles(ctx, "GetMany", query, args...)
}

func (repo *ArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	const query = `
INSERT INTO articles (id, link, title, description, source, category, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`
	if article.ID == "" {
		article.ID = entity.NewID()
	}
	err := repo.db.QueryRowContext(ctx, query,
		article.ID, article.Link, article.Title, article.Description,
		article.Source, article.Category, article.PublishedAt.UTC(),
	).Scan(&article.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("Create: link %q: %w", article.Link, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) ListForEnrichment(ctx context.Context, maxRetry, limit int) ([]*entity.Article, error) {
	query := `SELECT ` + strings.Join(articleColumns, ", ") + `
FROM articles
WHERE (jsonb_array_length(tags) = 0 OR embedding IS NULL)
  AND retry_count <= $1
ORDER BY published_at ASC
LIMIT $2`
	return repo.queryArticles(ctx, "ListForEnrichment", query, maxRetry, limit)
}

func (repo *ArticleRepo) ListEnriched(ctx context.Context, filter repository.ArticleFilter) ([]*entity.Article, error) {
	query, args, err := repo.queryBuilder.Enriched(filter)
	if err != nil {
		return nil, fmt.Errorf("ListEnriched: build: %w", err)
	}
	return repo.queryArticles(ctx, "ListEnriched", query, args...)
}

func (repo *ArticleRepo) ExistsByLinkBatch(ctx context.Context, links []string) (map[string]bool, error) {
	exists := make(map[string]bool, len(links))
	if len(links) == 0 {
		return exists, nil
	}
	query, args, err := repo.queryBuilder.LinksIn(links)
	if err != nil {
		return nil, fmt.Errorf("ExistsByLinkBatch: build: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistsByLinkBatch: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("ExistsByLinkBatch: Scan: %w", err)
		}
		exists[link] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistsByLinkBatch: rows.Err: %w", err)
	}
	return exists, nil
}

func (repo *ArticleRepo) UpdateEnrichment(ctx context.Context, id string, update entity.EnrichmentUpdate) error {
	const query = `
UPDATE articles SET
	tags        = $1,
	embedding   = $2,
	ogp         = COALESCE($3, ogp),
	image       = COALESCE($4, image),
	retry_count = $5
WHERE id = $6`
	tags, err := encodeJSON(update.Tags)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: encode tags: %w", err)
	}
	ogp, err := encodeOGP(update.OGP)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: encode ogp: %w", err)
	}
	var image interface{}
	if update.Image != nil {
		image = *update.Image
	}

	res, err := repo.db.ExecContext(ctx, query,
		tags, encodeVector(update.Embedding), ogp, image, update.RetryCount, id)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: %w", err)
	}
	return checkAffected("UpdateEnrichment", res)
}

func (repo *ArticleRepo) UpdateSimilar(ctx context.Context, id string, similar []entity.SimilarRef) error {
	const query = `UPDATE articles SET similar = $1 WHERE id = $2`
	payload, err := encodeJSON(similar)
	if err != nil {
		return fmt.Errorf("UpdateSimilar: encode: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, query, payload, id)
	if err != nil {
		return fmt.Errorf("UpdateSimilar: %w", err)
	}
	return checkAffected("UpdateSimilar", res)
}

func (repo *ArticleRepo) RankFrontpage(ctx context.Context, source string, ranks []repository.LinkRank) (ranked int64, err error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("RankFrontpage: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const reset = `UPDATE articles SET frontpage_rank = 0 WHERE source = $1 AND frontpage_rank <> 0`
	if _, err = tx.ExecContext(ctx, reset, source); err != nil {
		return 0, fmt.Errorf("RankFrontpage: reset: %w", err)
	}

	const assign = `UPDATE articles SET frontpage_rank = $1 WHERE source = $2 AND link = $3`
	for _, r := range ranks {
		res, execErr := tx.ExecContext(ctx, assign, r.Rank, source, r.Link)
		if execErr != nil {
			err = execErr
			return 0, fmt.Errorf("RankFrontpage: assign: %w", err)
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			err = raErr
			return 0, fmt.Errorf("RankFrontpage: RowsAffected: %w", err)
		}
		ranked += n
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("RankFrontpage: commit: %w", err)
	}
	return ranked, nil
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM articles`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) ListOldest(ctx context.Context, limit int) ([]string, error) {
	const query = `
SELECT id
FROM articles
ORDER BY published_at ASC, id ASC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListOldest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListOldest: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repo *ArticleRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM articles WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return checkAffected("Delete", res)
}

func (repo *ArticleRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := repo.queryBuilder.DeleteByIDs("articles", ids)
	if err != nil {
		return 0, fmt.Errorf("DeleteMany: build: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("DeleteMany: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteMany: RowsAffected: %w", err)
	}
	return n, nil
}
