package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
)

// PageDetails is what enrichment learns from an article page.
type PageDetails struct {
	Description string
	ImageURL    string
	PublishedAt *time.Time
	Text        string
}

// Enricher fills summary, content excerpt, image and publish time of harvested
// articles from their own pages. Meta tags are read with goquery and the body
// text is extracted with go-readability.
//
// Thread safety: Enricher is safe for concurrent use.
type Enricher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         ContentFetchConfig
}

// NewEnricher creates an Enricher. Every redirect target is re-validated.
func NewEnricher(config ContentFetchConfig) *Enricher {
	e := &Enricher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		config:         config,
	}
	e.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), e.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return e
}

// Enrich fetches the pages of articles that have no summary, at most
// Parallelism at a time, and returns the updated slice. Failures leave the
// article unchanged.
func (e *Enricher) Enrich(ctx context.Context, articles []entity.Article) []entity.Article {
	if !e.config.Enabled || len(articles) == 0 {
		return articles
	}

	out := make([]entity.Article, len(articles))
	copy(out, articles)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.config.Parallelism)

	for i := range out {
		if out[i].Summary != "" {
			continue
		}
		eg.Go(func() error {
			details, err := e.FetchPage(egCtx, out[i].SourceURL)
			if err != nil {
				metrics.RecordEnrichment(false)
				slog.Debug("enrichment skipped",
					slog.String("url", out[i].SourceURL),
					slog.Any("error", err))
				return nil
			}
			metrics.RecordEnrichment(true)
			e.apply(&out[i], details)
			return nil
		})
	}
	_ = eg.Wait()

	return out
}

func (e *Enricher) apply(a *entity.Article, d *PageDetails) {
	if a.ImageURL == "" {
		a.ImageURL = d.ImageURL
	}
	if d.PublishedAt != nil {
		a.PublishedAt = d.PublishedAt
	}
	if d.Text != "" {
		a.Content = truncateRunes(d.Text, e.config.ContentLength)
	}
	switch {
	case d.Description != "":
		a.Summary = truncateRunes(d.Description, e.config.SummaryLength)
	case d.Text != "":
		a.Summary = truncateRunes(d.Text, e.config.SummaryLength)
	}
}

// FetchPage fetches urlStr through the circuit breaker and extracts its details.
func (e *Enricher) FetchPage(ctx context.Context, urlStr string) (*PageDetails, error) {
	if err := validateURL(urlStr, e.config.DenyPrivateIPs); err != nil {
		return nil, err
	}
	return circuitbreaker.Do(e.circuitBreaker, func() (*PageDetails, error) {
		return e.doFetch(ctx, urlStr)
	})
}

func (e *Enricher) doFetch(ctx context.Context, urlStr string) (*PageDetails, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "NewsdeskBot/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, e.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > e.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrBodyTooLarge, e.config.MaxBodySize)
	}

	pageURL := resp.Request.URL
	details, err := parseMeta(htmlBytes)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err == nil {
		details.Text = strings.Join(strings.Fields(article.TextContent), " ")
		if details.Description == "" {
			details.Description = strings.TrimSpace(article.Excerpt)
		}
		if details.ImageURL == "" {
			details.ImageURL = article.Image
		}
	} else {
		slog.Debug("readability failed, using meta tags only",
			slog.String("url", urlStr),
			slog.Any("error", err))
	}

	if details.Text == "" && details.Description == "" {
		return nil, fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
	}
	return details, nil
}

// parseMeta reads OpenGraph/article meta tags.
func parseMeta(html []byte) (*PageDetails, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	meta := func(selectors ...string) string {
		for _, sel := range selectors {
			if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	d := &PageDetails{
		Description: meta(`meta[property="og:description"]`, `meta[name="description"]`, `meta[name="twitter:description"]`),
		ImageURL:    meta(`meta[property="og:image"]`, `meta[name="twitter:image"]`),
	}
	if raw := meta(`meta[property="article:published_time"]`, `meta[name="pubdate"]`); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			d.PublishedAt = &t
		}
	}
	return d, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
