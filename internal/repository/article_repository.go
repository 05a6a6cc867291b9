// Package repository defines the persistence ports of the ingestion core.
package repository

import (
	"context"

	"newsdesk/internal/domain/entity"
)

// ArticleFilter narrows ListRecent. Zero values mean "no filter".
type ArticleFilter struct {
	Category entity.Category
	// Keywords are AND-ed; each matches title or summary case-insensitively.
	Keywords []string
	Limit    int
}

// ArticleRepository is the article store.
type ArticleRepository interface {
	// UpsertIgnore inserts articles in one statement, silently skipping rows
	// whose source_url already exists. It returns the number of rows inserted.
	UpsertIgnore(ctx context.Context, articles []entity.Article) (int64, error)
	// ListRecent returns articles ordered by published_at DESC.
	ListRecent(ctx context.Context, filter ArticleFilter) ([]entity.Article, error)
	// Count returns the total number of stored articles.
	Count(ctx context.Context) (int64, error)
	// ExistsByURLBatch はバッチでURL存在チェックを行う
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
}
