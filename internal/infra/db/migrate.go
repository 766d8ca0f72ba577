package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Embeddings are stored as dimensionless vectors: the width depends on the
// configured text-analysis provider and similarity is computed in process.
const createArticles = `
CREATE TABLE IF NOT EXISTS articles (
    id             TEXT PRIMARY KEY,
    link           TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    source         TEXT NOT NULL,
    category       TEXT NOT NULL DEFAULT '',
    published_at   TIMESTAMPTZ NOT NULL,
    tags           JSONB NOT NULL DEFAULT '[]'::jsonb,
    embedding      vector,
    retry_count    INTEGER NOT NULL DEFAULT 0,
    ogp            JSONB,
    image          TEXT,
    frontpage_rank INTEGER NOT NULL DEFAULT 0,
    similar        JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createPrompts = `
CREATE TABLE IF NOT EXISTS prompts (
    id            TEXT PRIMARY KEY,
    key           TEXT NOT NULL,
    text          TEXT NOT NULL,
    text_improved TEXT,
    settings      JSONB NOT NULL DEFAULT '{}'::jsonb,
    enabled       BOOLEAN NOT NULL DEFAULT TRUE,
    tags          JSONB NOT NULL DEFAULT '[]'::jsonb,
    embedding     vector,
    retry_count   INTEGER NOT NULL DEFAULT 0,
    feed          JSONB NOT NULL DEFAULT '[]'::jsonb,
    last_used_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var indexes = []string{
	// enrichment selection and retention both walk articles by publish date
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_frontpage ON articles(source, frontpage_rank) WHERE frontpage_rank > 0`,
	`CREATE INDEX IF NOT EXISTS idx_prompts_created_at ON prompts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_prompts_last_used_at ON prompts(last_used_at)`,
}

// MigrateUp creates the schema. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	// pgvector may already exist or require a superuser; the table DDL below
	// fails loudly if the type is really missing.
	_, _ = db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)

	if _, err := db.ExecContext(ctx, createArticles); err != nil {
		return fmt.Errorf("create articles: %w", err)
	}
	if _, err := db.ExecContext(ctx, createPrompts); err != nil {
		return fmt.Errorf("create prompts: %w", err)
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// MigrateDown drops every table created by MigrateUp. All data is lost.
// The vector extension is left in place.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS prompts`,
		`DROP TABLE IF EXISTS articles`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SchemaReady reports whether both tables exist. Workers poll it while the
// migration runs in another process.
func SchemaReady(ctx context.Context, db *sql.DB) (bool, error) {
	const query = `
SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name IN ('articles', 'prompts')`
	var n int
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, err
	}
	return n == 2, nil
}
