package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsdesk/internal/content"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
	"newsdesk/internal/utils/text"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

const (
	feedUserAgent    = "NewsdeskBot/1.0"
	feedSummaryRunes = 200
)

// FeedScraper reads RSS/Atom sources with gofeed.
// Fetches go through a circuit breaker inside a retry loop.
type FeedScraper struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	now            func() time.Time
}

// NewFeedScraper creates a FeedScraper with the given HTTP client.
func NewFeedScraper(client *http.Client) *FeedScraper {
	return &FeedScraper{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		now:            time.Now,
	}
}

// Scrape fetches the feed at src.URL and converts accepted items to articles.
func (f *FeedScraper) Scrape(ctx context.Context, src entity.Source) ([]entity.Article, error) {
	start := time.Now()
	var feed *gofeed.Feed

	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		fd, err := circuitbreaker.Do(f.circuitBreaker, func() (*gofeed.Feed, error) {
			return f.doFetch(ctx, src.URL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("source", src.Name),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		feed = fd
		return nil
	})
	if err != nil {
		metrics.RecordSourceScrape(src.Name, string(src.Kind), 0, time.Since(start), err)
		slog.Warn("feed fetch failed",
			slog.String("source", src.Name),
			slog.String("url", src.URL),
			slog.Any("error", err))
		return []entity.Article{}, fmt.Errorf("feed %s: %w", src.Name, err)
	}

	fetchedAt := f.now()
	articles := make([]entity.Article, 0, len(feed.Items))
	for _, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if !content.Accept(title, link) {
			continue
		}

		// Description優先、なければContent
		body := it.Description
		if body == "" {
			body = it.Content
		}

		published := fetchedAt
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		}

		a := entity.Article{
			Title:       title,
			Summary:     plainText(body, feedSummaryRunes),
			SourceURL:   link,
			SourceName:  src.Name,
			Category:    src.Category,
			PublishedAt: &published,
			FetchedAt:   fetchedAt,
		}
		if it.Image != nil {
			a.ImageURL = it.Image.URL
		}
		articles = append(articles, a)
	}

	metrics.RecordSourceScrape(src.Name, string(src.Kind), len(articles), time.Since(start), nil)
	return articles, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *FeedScraper) doFetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = feedUserAgent
	fp.Client = f.client
	return fp.ParseURLWithContext(feedURL, ctx)
}

// plainText strips markup from an HTML fragment and truncates it to n runes.
func plainText(fragment string, n int) string {
	if fragment == "" {
		return ""
	}
	plain := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		plain = doc.Text()
	}
	return text.Truncate(strings.Join(strings.Fields(plain), " "), n)
}
