// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"fmt"
	"strings"

	"newsdesk/internal/repository"
)

// articleColumns is the column list shared by every article SELECT.
const articleColumns = `id, title, COALESCE(summary, ''), COALESCE(content, ''), source_url, source_name,
       category, COALESCE(image_url, ''), published_at, fetched_at, created_at`

// insertColumns are bound per row by the multi-row INSERT.
var insertColumns = []string{
	"title", "summary", "content", "source_url", "source_name",
	"category", "image_url", "published_at", "fetched_at",
}

// ArticleQueryBuilder builds WHERE clauses for article listing.
// It uses PostgreSQL-specific ILIKE and numbered placeholders ($1, $2, ...).
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// BuildWhereClause returns the WHERE clause and its arguments for filter.
// Returns an empty clause if no conditions apply.
func (qb *ArticleQueryBuilder) BuildWhereClause(filter repository.ArticleFilter) (clause string, args []any) {
	var conditions []string
	paramIndex := 1

	for _, keyword := range filter.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR summary ILIKE $%d)", paramIndex, paramIndex))
		args = append(args, "%"+escapeILIKE(keyword)+"%")
		paramIndex++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", paramIndex))
		args = append(args, string(filter.Category))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// BuildInsert builds a multi-row INSERT ... ON CONFLICT (source_url) DO NOTHING
// statement for n rows.
func (qb *ArticleQueryBuilder) BuildInsert(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO news_articles (")
	b.WriteString(strings.Join(insertColumns, ", "))
	b.WriteString(") VALUES ")

	width := len(insertColumns)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < width; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*width+j+1)
		}
		b.WriteByte(')')
	}
	b.WriteString(" ON CONFLICT (source_url) DO NOTHING")
	return b.String()
}

// escapeILIKE escapes the ILIKE wildcards % and _ and the escape character itself.
func escapeILIKE(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
