// Package scraper turns configured sources into article lists.
// Listing pages go through the scraping vendor, feed sources through gofeed.
// Every scraper isolates its own failures: a broken source yields an empty
// list and an error flag, never a panic or a partial write.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/content"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/firecrawl"
	"newsdesk/internal/observability/metrics"
)

// PageVendor renders a single page into markdown, links and metadata.
type PageVendor interface {
	Scrape(ctx context.Context, pageURL string) (*content.Page, error)
}

// CrawlVendor adds site mapping and asynchronous crawl jobs to PageVendor.
type CrawlVendor interface {
	PageVendor
	Map(ctx context.Context, siteURL string, limit int) ([]string, error)
	SubmitCrawl(ctx context.Context, req firecrawl.CrawlRequest) (string, error)
	CrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatus, error)
}

// PageScraper scrapes one listing page per source and extracts articles from it.
type PageScraper struct {
	vendor    PageVendor
	extractor content.ArticleExtractor
	now       func() time.Time
}

// NewPageScraper creates a PageScraper. A nil extractor defaults to the
// heading extractor used for generic news sites.
func NewPageScraper(vendor PageVendor, extractor content.ArticleExtractor) *PageScraper {
	if extractor == nil {
		extractor = content.NewHeadingExtractor()
	}
	return &PageScraper{vendor: vendor, extractor: extractor, now: time.Now}
}

// Scrape fetches src.URL and returns the extracted articles.
// On failure it returns an empty list together with the error so the caller
// can flag the source without aborting the run.
func (s *PageScraper) Scrape(ctx context.Context, src entity.Source) ([]entity.Article, error) {
	start := time.Now()
	articles, err := s.ScrapeWith(ctx, src, src.URL, s.extractor)
	metrics.RecordSourceScrape(src.Name, string(src.Kind), len(articles), time.Since(start), err)
	return articles, err
}

// ScrapeWith scrapes pageURL on behalf of src using extractor.
// The deep crawler uses it for its single-page fallback.
func (s *PageScraper) ScrapeWith(ctx context.Context, src entity.Source, pageURL string, extractor content.ArticleExtractor) ([]entity.Article, error) {
	page, err := s.vendor.Scrape(ctx, pageURL)
	if err != nil {
		slog.Warn("page scrape failed",
			slog.String("source", src.Name),
			slog.String("url", pageURL),
			slog.Any("error", err))
		return []entity.Article{}, fmt.Errorf("scrape %s: %w", src.Name, err)
	}

	fetchedAt := s.now()
	candidates := extractor.Extract(*page, src)
	articles := make([]entity.Article, 0, len(candidates))
	for _, c := range candidates {
		articles = append(articles, c.ToArticle(src, fetchedAt))
	}

	slog.Info("page scraped",
		slog.String("source", src.Name),
		slog.String("url", pageURL),
		slog.Int("articles", len(articles)))
	return articles, nil
}
