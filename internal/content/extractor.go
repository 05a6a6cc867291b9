package content

import "newsdesk/internal/domain/entity"

const (
	// DefaultPageHeadingLimit caps heading candidates on a single scraped page.
	DefaultPageHeadingLimit = 10
	// DefaultCrawlHeadingLimit caps heading candidates per crawled page body.
	DefaultCrawlHeadingLimit = 3
)

// HeadingExtractor derives candidates from markdown headings.
//
// The first Limit unique headings are considered. Each is rejected when outside
// the length window or deny-listed; otherwise it is paired with an outbound link
// sharing a significant word with the title, falling back to the page URL, and
// the final URL is checked against the URL deny-list.
type HeadingExtractor struct {
	Limit int
}

// NewHeadingExtractor returns a HeadingExtractor with the single-page cap.
func NewHeadingExtractor() *HeadingExtractor {
	return &HeadingExtractor{Limit: DefaultPageHeadingLimit}
}

// Extract implements ArticleExtractor.
func (e *HeadingExtractor) Extract(page Page, src entity.Source) []Candidate {
	headings := Headings(page.Markdown)
	limit := e.Limit
	if limit <= 0 {
		limit = DefaultPageHeadingLimit
	}
	if len(headings) > limit {
		headings = headings[:limit]
	}

	links := page.Links
	if len(links) == 0 {
		links = MarkdownLinks(page.Markdown)
	}
	fallback := page.URL
	if fallback == "" {
		fallback = src.URL
	}

	candidates := make([]Candidate, 0, len(headings))
	for _, title := range headings {
		if !acceptTitle(title) {
			continue
		}
		articleURL, ok := MatchLink(title, links)
		if !ok {
			articleURL = fallback
		}
		if IsExcludedURL(articleURL) {
			continue
		}
		candidates = append(candidates, Candidate{
			Title:    title,
			URL:      articleURL,
			ImageURL: page.Metadata.OGImage,
		})
	}
	return candidates
}

// CrawlPageExtractor derives candidates from one crawled page: its metadata
// title (when present, in range and not deny-listed) plus up to Headings.Limit
// heading titles from the body.
type CrawlPageExtractor struct {
	Headings HeadingExtractor
}

// NewCrawlPageExtractor returns a CrawlPageExtractor with the per-page heading cap.
func NewCrawlPageExtractor() *CrawlPageExtractor {
	return &CrawlPageExtractor{Headings: HeadingExtractor{Limit: DefaultCrawlHeadingLimit}}
}

// Extract implements ArticleExtractor.
func (e *CrawlPageExtractor) Extract(page Page, src entity.Source) []Candidate {
	var out []Candidate

	pageURL := page.Metadata.SourceURL
	if pageURL == "" {
		pageURL = page.URL
	}
	if title := page.Metadata.Title; title != "" && acceptTitle(title) && pageURL != "" && !IsExcludedURL(pageURL) {
		out = append(out, Candidate{
			Title:         title,
			Summary:       page.Metadata.Description,
			URL:           pageURL,
			ImageURL:      page.Metadata.OGImage,
			PublishedTime: page.Metadata.PublishedTime,
		})
	}

	body := page
	body.URL = pageURL
	for _, c := range e.Headings.Extract(body, src) {
		c.PublishedTime = page.Metadata.PublishedTime
		out = append(out, c)
	}
	return out
}

// DedupeByTitle keeps the first candidate for each exact title.
func DedupeByTitle(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		if seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		out = append(out, c)
	}
	return out
}
