package entity

import (
	"fmt"
	"strings"
)

// SourceKind selects the harvesting strategy for a Source.
type SourceKind string

const (
	// KindGeneric is a one-shot scrape of the source URL.
	KindGeneric SourceKind = "generic"
	// KindDeepCrawl maps the site, submits a crawl job and polls it.
	KindDeepCrawl SourceKind = "deep_crawl"
	// KindResourceDirectory is a deep crawl over a partner's resource directory.
	KindResourceDirectory SourceKind = "resource_directory"
	// KindFeed is an RSS/Atom feed parsed without the scraping vendor.
	KindFeed SourceKind = "feed"
)

// IsValid reports whether k is a known source kind.
func (k SourceKind) IsValid() bool {
	switch k {
	case KindGeneric, KindDeepCrawl, KindResourceDirectory, KindFeed:
		return true
	}
	return false
}

// IsSpecial reports whether sources of this kind are taken out of the generic
// batch and run sequentially ahead of it.
func (k SourceKind) IsSpecial() bool {
	return k == KindDeepCrawl || k == KindResourceDirectory
}

// Source is a static registry entry describing one external site.
// Sources are defined at deploy time and never mutated at runtime.
type Source struct {
	Name     string     `yaml:"name" json:"name"`
	URL      string     `yaml:"url" json:"url"`
	Category Category   `yaml:"category" json:"category"`
	Kind     SourceKind `yaml:"kind" json:"kind"`
}

// Validate validates the Source entry.
// An empty Kind is treated as KindGeneric.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := ValidateURL(s.URL); err != nil {
		return fmt.Errorf("source %s: %w", s.Name, err)
	}
	if !s.Category.IsValid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", s.Category)}
	}
	// 空の場合は generic とみなす
	if s.Kind == "" {
		s.Kind = KindGeneric
	}
	if !s.Kind.IsValid() {
		return &ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid kind %q (must be generic, deep_crawl, resource_directory or feed)", s.Kind),
		}
	}
	return nil
}
