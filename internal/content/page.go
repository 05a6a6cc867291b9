package content

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"newsdesk/internal/domain/entity"
)

// Page is one vendor-rendered page: main-content markdown, the outbound links
// discovered on it and its metadata.
type Page struct {
	URL      string
	Markdown string
	Links    []string
	Metadata Metadata
}

// Metadata is the subset of page metadata the extractors consume.
type Metadata struct {
	Title         string
	Description   string
	OGImage       string
	SourceURL     string
	PublishedTime string
}

// Candidate is an extracted article candidate that already passed the filters.
type Candidate struct {
	Title    string
	Summary  string
	URL      string
	ImageURL string
	// PublishedTime is the page's own publish time (RFC 3339), if it reports one.
	PublishedTime string
	// Category overrides the source category when set.
	Category entity.Category
}

// ArticleExtractor turns one page into article candidates for a source.
// Implementations must only emit candidates whose title lies in the length window
// and whose title and URL pass the deny-lists.
type ArticleExtractor interface {
	Extract(page Page, src entity.Source) []Candidate
}

// ToArticle converts c into an Article attributed to src.
// PublishedAt is the page's publish time when it parses as RFC 3339 and the
// fetch time otherwise; listing pages rarely carry a date.
func (c Candidate) ToArticle(src entity.Source, fetchedAt time.Time) entity.Article {
	cat := src.Category
	if c.Category != "" {
		cat = c.Category
	}
	published := fetchedAt
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(c.PublishedTime)); err == nil {
		published = t.UTC()
	}
	return entity.Article{
		Title:       c.Title,
		Summary:     c.Summary,
		SourceURL:   c.URL,
		SourceName:  src.Name,
		Category:    cat,
		ImageURL:    c.ImageURL,
		PublishedAt: &published,
		FetchedAt:   fetchedAt,
	}
}

var (
	headingPattern      = regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`)
	markdownLinkPattern = regexp.MustCompile(`\]\((https?://[^)\s]+)(?:\s+"[^"]*")?\)`)
)

// Headings returns the text of level 1-3 markdown headings, trimmed and
// de-duplicated, in document order.
func Headings(markdown string) []string {
	matches := headingPattern.FindAllStringSubmatch(markdown, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[1]), "#"))
		title = strings.TrimSpace(title)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
	}
	return out
}

// MarkdownLinks returns every absolute http(s) link target in markdown,
// de-duplicated, in document order.
func MarkdownLinks(markdown string) []string {
	matches := markdownLinkPattern.FindAllStringSubmatch(markdown, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}

// MatchLink returns the first link that contains a significant word of title
// (a space-separated word longer than three characters), compared
// case-insensitively. ok is false when no link matches.
func MatchLink(title string, links []string) (link string, ok bool) {
	var words []string
	for _, w := range strings.Split(strings.ToLower(title), " ") {
		if utf8.RuneCountInString(w) > 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return "", false
	}
	for _, l := range links {
		lower := strings.ToLower(l)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return l, true
			}
		}
	}
	return "", false
}

// acceptTitle applies the length window and the title deny-list.
func acceptTitle(title string) bool {
	return entity.ValidTitleLength(title) && !IsExcludedTitle(title)
}

// Accept reports whether a title/URL pair passes the length window and both
// deny-lists. Scrapers that do not go through an ArticleExtractor use it
// directly.
func Accept(title, rawURL string) bool {
	return acceptTitle(title) && rawURL != "" && !IsExcludedURL(rawURL)
}
