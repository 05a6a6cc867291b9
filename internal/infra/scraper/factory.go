package scraper

import (
	"net/http"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/usecase/ingest"
)

// Factory creates one scraper per source kind.
// All vendor-backed scrapers share the vendor client so they also share its
// rate limiter and circuit breaker.
type Factory struct {
	vendor CrawlVendor
	client *http.Client
	crawl  CrawlConfig
}

// NewFactory creates a Factory. client is used for feed sources only.
func NewFactory(vendor CrawlVendor, client *http.Client, crawl CrawlConfig) *Factory {
	return &Factory{vendor: vendor, client: client, crawl: crawl}
}

// CreateScrapers returns the scraper registry keyed by source kind.
// The ingestion service routes each source by its Kind.
func (f *Factory) CreateScrapers() map[entity.SourceKind]ingest.Scraper {
	return map[entity.SourceKind]ingest.Scraper{
		entity.KindGeneric:           NewPageScraper(f.vendor, nil),
		entity.KindDeepCrawl:         NewDeepCrawler(f.vendor, f.crawl),
		entity.KindResourceDirectory: NewResourceDirectoryCrawler(f.vendor, f.crawl),
		entity.KindFeed:              NewFeedScraper(f.client),
	}
}
