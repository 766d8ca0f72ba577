package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/repository"
)

const promptColumns = `id, key, text, text_improved, settings, enabled,
	tags, embedding, retry_count, feed, last_used_at, created_at`

type PromptRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

func NewPromptRepo(db *sql.DB) repository.PromptRepository {
	return &PromptRepo{db: db, queryBuilder: NewArticleQueryBuilder()}
}

func scanPrompt(s scanner) (*entity.Prompt, error) {
	var (
		p                    entity.Prompt
		settings, tags, feed []byte
		embedding            *pgvector.Vector
		improved             sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Key, &p.Text, &improved, &settings, &p.Enabled,
		&tags, &embedding, &p.RetryCount, &feed, &p.LastUsedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(settings, &p.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := decodeJSON(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := decodeJSON(feed, &p.Feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	p.Embedding = decodeVector(embedding)
	p.TextImproved = nullString(improved)
	return &p, nil
}

func (repo *PromptRepo) queryPrompts(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Prompt, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	prompts := make([]*entity.Prompt, 0, 16)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return prompts, nil
}

func (repo *PromptRepo) Get(ctx context.Context, id string) (*entity.Prompt, error) {
	const query = `SELECT ` + promptColumns + ` FROM prompts WHERE id = $1 LIMIT 1`
	p, err := scanPrompt(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Get: %w", entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (repo *PromptRepo) GetWithKey(ctx context.Context, id, key string) (*entity.Prompt, error) {
	const query = `SELECT ` + promptColumns + ` FROM prompts WHERE id = $1 AND key = $2 LIMIT 1`
	p, err := scanPrompt(repo.db.QueryRowContext(ctx, query, id, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetWithKey: %w", entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetWithKey: %w", err)
	}
	return p, nil
}

func (repo *PromptRepo) Create(ctx context.Context, prompt *entity.Prompt) error {
	const query = `
INSERT INTO prompts (id, key, text, settings, enabled)
VALUES ($1, $2, $3, $4, $5)
RETURNING last_used_at, created_at`
	settings, err := json.Marshal(prompt.Settings)
	if err != nil {
		return fmt.Errorf("Create: encode settings: %w", err)
	}
	err = repo.db.QueryRowContext(ctx, query,
		prompt.ID, prompt.Key, prompt.Text, string(settings), prompt.Enabled,
	).Scan(&prompt.LastUsedAt, &prompt.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("Create: %w", entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *PromptRepo) ListForEnrichment(ctx context.Context, maxRetry, limit int) ([]*entity.Prompt, error) {
	const query = `SELECT ` + promptColumns + `
FROM prompts
WHERE (jsonb_array_length(tags) = 0 OR embedding IS NULL)
  AND retry_count <= $1
ORDER BY created_at ASC
LIMIT $2`
	return repo.queryPrompts(ctx, "ListForEnrichment", query, maxRetry, limit)
}

func (repo *PromptRepo) ListScorable(ctx context.Context) ([]*entity.Prompt, error) {
	const query = `SELECT ` + promptColumns + `
FROM prompts
WHERE enabled
  AND jsonb_array_length(tags) > 0
  AND embedding IS NOT NULL
ORDER BY created_at ASC`
	return repo.queryPrompts(ctx, "ListScorable", query)
}

func (repo *PromptRepo) UpdateEnrichment(ctx context.Context, id string, update entity.EnrichmentUpdate) error {
	const query = `
UPDATE prompts SET
	tags        = $1,
	embedding   = $2,
	retry_count = $3
WHERE id = $4`
	tags, err := encodeJSON(update.Tags)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: encode tags: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, query, tags, encodeVector(update.Embedding), update.RetryCount, id)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: %w", err)
	}
	return checkAffected("UpdateEnrichment", res)
}

func (repo *PromptRepo) UpdateFeed(ctx context.Context, id string, feed []entity.FeedEntry, lastUsed time.Time) error {
	const query = `UPDATE prompts SET feed = $1, last_used_at = $2 WHERE id = $3`
	payload, err := encodeJSON(feed)
	if err != nil {
		return fmt.Errorf("UpdateFeed: encode: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, query, payload, lastUsed.UTC(), id)
	if err != nil {
		return fmt.Errorf("UpdateFeed: %w", err)
	}
	return checkAffected("UpdateFeed", res)
}

func (repo *PromptRepo) UpdateText(ctx context.Context, id, text string) error {
	const query = `
UPDATE prompts SET
	text          = $1,
	text_improved = NULL,
	tags          = '[]'::jsonb,
	embedding     = NULL,
	feed          = '[]'::jsonb,
	retry_count   = 0
WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, text, id)
	if err != nil {
		return fmt.Errorf("UpdateText: %w", err)
	}
	return checkAffected("UpdateText", res)
}

func (repo *PromptRepo) UpdateSettings(ctx context.Context, id string, settings entity.PromptSettings) error {
	const query = `UPDATE prompts SET settings = $1 WHERE id = $2`
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("UpdateSettings: encode: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, query, string(payload), id)
	if err != nil {
		return fmt.Errorf("UpdateSettings: %w", err)
	}
	return checkAffected("UpdateSettings", res)
}

func (repo *PromptRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	const query = `UPDATE prompts SET enabled = $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, enabled, id)
	if err != nil {
		return fmt.Errorf("SetEnabled: %w", err)
	}
	return checkAffected("SetEnabled", res)
}

func (repo *PromptRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]string, error) {
	const query = `
SELECT id
FROM prompts
WHERE last_used_at < $1
ORDER BY last_used_at ASC, id ASC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, before.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("ListStale: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListStale: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repo *PromptRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM prompts WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return checkAffected("Delete", res)
}

func (repo *PromptRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := repo.queryBuilder.DeleteByIDs("prompts", ids)
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
