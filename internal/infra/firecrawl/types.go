package firecrawl

import (
	"encoding/json"

	"newsdesk/internal/content"
)

// flexString accepts a JSON string or an array of strings (first element);
// the vendor reports some metadata keys either way depending on the page.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		// 想定外の型は空として扱う
		*f = ""
		return nil
	}
	if len(list) > 0 {
		*f = flexString(list[0])
	}
	return nil
}

type metadataDTO struct {
	Title         flexString `json:"title"`
	Description   flexString `json:"description"`
	OGImage       flexString `json:"ogImage"`
	SourceURL     flexString `json:"sourceURL"`
	URL           flexString `json:"url"`
	PublishedTime flexString `json:"publishedTime"`
	ArticleTime   flexString `json:"article:published_time"`
}

type documentDTO struct {
	Markdown string      `json:"markdown"`
	Links    []string    `json:"links"`
	Metadata metadataDTO `json:"metadata"`
}

func (d documentDTO) toPage(fallbackURL string) content.Page {
	src := string(d.Metadata.SourceURL)
	if src == "" {
		src = string(d.Metadata.URL)
	}
	pageURL := src
	if pageURL == "" {
		pageURL = fallbackURL
	}
	published := string(d.Metadata.PublishedTime)
	if published == "" {
		published = string(d.Metadata.ArticleTime)
	}
	return content.Page{
		URL:      pageURL,
		Markdown: d.Markdown,
		Links:    d.Links,
		Metadata: content.Metadata{
			Title:         string(d.Metadata.Title),
			Description:   string(d.Metadata.Description),
			OGImage:       string(d.Metadata.OGImage),
			SourceURL:     src,
			PublishedTime: published,
		},
	}
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

// scrapeResponse tolerates the document either under "data" or at the top level.
type scrapeResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Data    *documentDTO `json:"data"`
	documentDTO
}

type mapRequest struct {
	URL   string `json:"url"`
	Limit int    `json:"limit,omitempty"`
}

type mapResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Links   json.RawMessage `json:"links"`
}

type scrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type crawlRequest struct {
	URL           string        `json:"url"`
	Limit         int           `json:"limit,omitempty"`
	MaxDepth      int           `json:"maxDepth,omitempty"`
	IncludePaths  []string      `json:"includePaths,omitempty"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type crawlSubmitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type crawlStatusResponse struct {
	Status    string        `json:"status"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Data      []documentDTO `json:"data"`
	Error     string        `json:"error"`
}

// CrawlRequest describes an asynchronous crawl job submission.
type CrawlRequest struct {
	URL          string
	Limit        int
	MaxDepth     int
	IncludePaths []string
}

// CrawlStatus is one poll result for a crawl job.
type CrawlStatus struct {
	// Status is the raw vendor status string; see MapStatus.
	Status    string
	Total     int
	Completed int
	Pages     []content.Page
}
