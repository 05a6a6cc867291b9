package db

import (
	"context"
	"database/sql"
	"fmt"
)

const createArticlesTable = `
CREATE TABLE IF NOT EXISTS news_articles (
    id           BIGSERIAL PRIMARY KEY,
    title        TEXT NOT NULL,
    summary      TEXT,
    content      TEXT,
    source_url   TEXT NOT NULL UNIQUE,
    source_name  TEXT NOT NULL,
    category     VARCHAR(32) NOT NULL,
    image_url    TEXT,
    published_at TIMESTAMPTZ,
    fetched_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var articleIndexes = []string{
	// 一覧表示の ORDER BY published_at DESC 用
	`CREATE INDEX IF NOT EXISTS idx_news_articles_published_at ON news_articles(published_at DESC)`,
	// カテゴリ別一覧用
	`CREATE INDEX IF NOT EXISTS idx_news_articles_category ON news_articles(category, published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_news_articles_source_name ON news_articles(source_name)`,
}

// MigrateUp creates the news_articles table and its indexes. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createArticlesTable); err != nil {
		return fmt.Errorf("create news_articles: %w", err)
	}
	for _, idx := range articleIndexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
