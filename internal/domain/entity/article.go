// Package entity defines the core domain entities and validation logic for the application.
// It contains the harvested Article, the static Source registry entry, the Category tag
// and the ephemeral crawl/translation value types, along with their validation rules
// and domain-specific errors.
package entity

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Title length window (inclusive, counted in runes).
// Candidates outside this window are never emitted as articles.
const (
	MinTitleLength = 10
	MaxTitleLength = 300
)

// Article represents a harvested news article.
// SourceURL is the sole de-duplication key: storing an article whose SourceURL
// already exists is a no-op.
type Article struct {
	ID          int64
	Title       string
	Summary     string
	Content     string
	SourceURL   string
	SourceName  string
	Category    Category
	ImageURL    string
	PublishedAt *time.Time
	FetchedAt   time.Time
	CreatedAt   time.Time
}

// ValidTitleLength reports whether title lies within [MinTitleLength, MaxTitleLength] runes.
func ValidTitleLength(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= MinTitleLength && n <= MaxTitleLength
}

// Validate checks that the article can be written to the article store.
func (a *Article) Validate() error {
	if !ValidTitleLength(a.Title) {
		return &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("title must be between %d and %d characters", MinTitleLength, MaxTitleLength),
		}
	}
	if err := ValidateURL(a.SourceURL); err != nil {
		return err
	}
	if a.SourceName == "" {
		return &ValidationError{Field: "source_name", Message: "source name is required"}
	}
	if !a.Category.IsValid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", a.Category)}
	}
	return nil
}
