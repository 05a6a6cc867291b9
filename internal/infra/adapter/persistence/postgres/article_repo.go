package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/repository"
)

// DefaultListLimit applies when ArticleFilter.Limit is zero.
const DefaultListLimit = 50

// DBTX is the query surface the repository needs. Both *sql.DB and
// *circuitbreaker.DB satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ArticleRepo struct {
	db           DBTX
	queryBuilder *ArticleQueryBuilder
}

func NewArticleRepo(db DBTX) repository.ArticleRepository {
	return &ArticleRepo{
		db:           db,
		queryBuilder: NewArticleQueryBuilder(),
	}
}

// UpsertIgnore inserts all articles in one statement.
// Duplicate source URLs, both against stored rows and within the batch, are skipped.
func (repo *ArticleRepo) UpsertIgnore(ctx context.Context, articles []entity.Article) (int64, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert_articles", time.Since(start)) }()

	args := make([]any, 0, len(articles)*len(insertColumns))
	for _, a := range articles {
		args = append(args,
			a.Title,
			nullString(a.Summary),
			nullString(a.Content),
			a.SourceURL,
			a.SourceName,
			string(a.Category),
			nullString(a.ImageURL),
			a.PublishedAt,
			fetchedAt(a),
		)
	}

	res, err := repo.db.ExecContext(ctx, repo.queryBuilder.BuildInsert(len(articles)), args...)
	if err != nil {
		return 0, fmt.Errorf("UpsertIgnore: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpsertIgnore: RowsAffected: %w", err)
	}
	return n, nil
}

func (repo *ArticleRepo) ListRecent(ctx context.Context, filter repository.ArticleFilter) ([]entity.Article, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_recent", time.Since(start)) }()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	where, args := repo.queryBuilder.BuildWhereClause(filter)
	args = append(args, limit)
	query := fmt.Sprintf(`
SELECT %s
FROM news_articles
%s
ORDER BY published_at DESC NULLS LAST, id DESC
LIMIT $%d`, articleColumns, where, len(args))

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]entity.Article, 0, limit)
	for rows.Next() {
		var (
			a        entity.Article
			category string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.SourceURL, &a.SourceName,
			&category, &a.ImageURL, &a.PublishedAt, &a.FetchedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListRecent: Scan: %w", err)
		}
		a.Category = entity.Category(category)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM news_articles`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

// ExistsByURLBatch returns, for each URL, whether it is already stored.
func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(urls))
	args := make([]any, len(urls))
	for i, u := range urls {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = u
		result[u] = false
	}
	query := "SELECT source_url FROM news_articles WHERE source_url IN (" + strings.Join(placeholders, ", ") + ")"

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: Scan: %w", err)
		}
		result[u] = true
	}
	return result, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func fetchedAt(a entity.Article) time.Time {
	if a.FetchedAt.IsZero() {
		return time.Now()
	}
	return a.FetchedAt
}
