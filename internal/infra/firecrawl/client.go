// Package firecrawl adapts the scraping vendor's HTTP API: single-page scrape,
// site map, and asynchronous crawl (submit plus poll-by-id). It is the only
// package that knows the vendor's wire format.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"newsdesk/internal/content"
	"newsdesk/internal/infra/fetcher"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
)

var (
	// ErrNotConfigured indicates no API key was provided.
	ErrNotConfigured = errors.New("firecrawl not configured")

	// ErrUnavailable indicates every attempt failed; the source is unavailable this run.
	ErrUnavailable = errors.New("firecrawl unavailable")

	// ErrBadResponse indicates a malformed or unsuccessful vendor response.
	ErrBadResponse = errors.New("firecrawl bad response")

	// ErrNoJobID indicates a crawl submission returned no job identifier.
	ErrNoJobID = errors.New("firecrawl crawl submission returned no job id")
)

// Client calls the vendor API. Every attempt goes through the rate limiter,
// every call through the circuit breaker and the resilient fetcher.
type Client struct {
	cfg     Config
	http    *fetcher.Client
	cb      *circuitbreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewClient creates a Client. A nil hc uses a default resilient fetcher.
func NewClient(cfg Config, hc *fetcher.Client) *Client {
	if hc == nil {
		hc = fetcher.NewClient(nil)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		cfg:     cfg,
		http:    hc,
		cb:      circuitbreaker.New(circuitbreaker.FirecrawlConfig()),
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// Breaker exposes the vendor circuit breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.cb
}

// Scrape renders url once and returns its main-content markdown, outbound
// links and metadata.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*content.Page, error) {
	var resp scrapeResponse
	err := c.call(ctx, c.standard(), "scrape", http.MethodPost, "/v1/scrape", scrapeRequest{
		URL:             pageURL,
		Formats:         []string{"markdown", "links"},
		OnlyMainContent: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	doc := resp.documentDTO
	if resp.Data != nil {
		doc = *resp.Data
	}
	if resp.Data == nil && !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, resp.Error)
	}
	page := doc.toPage(pageURL)
	// メタデータの URL はリダイレクト後のものなので、フォールバック用には元の URL を使う
	page.URL = pageURL
	return &page, nil
}

// Map enumerates up to limit URLs of the site rooted at siteURL.
func (c *Client) Map(ctx context.Context, siteURL string, limit int) ([]string, error) {
	var resp mapResponse
	if err := c.call(ctx, c.standard(), "map", http.MethodPost, "/v1/map", mapRequest{URL: siteURL, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, resp.Error)
	}

	links, err := decodeLinks(resp.Links)
	if err != nil {
		return nil, fmt.Errorf("%w: links: %v", ErrBadResponse, err)
	}
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

// decodeLinks accepts ["url", ...] or [{"url": "..."}, ...].
func decodeLinks(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}
	var objs []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		if o.URL != "" {
			out = append(out, o.URL)
		}
	}
	return out, nil
}

// SubmitCrawl submits an asynchronous crawl job extracting main-content
// markdown and returns the job id.
func (c *Client) SubmitCrawl(ctx context.Context, req CrawlRequest) (string, error) {
	var resp crawlSubmitResponse
	err := c.call(ctx, c.standard(), "crawl_submit", http.MethodPost, "/v1/crawl", crawlRequest{
		URL:          req.URL,
		Limit:        req.Limit,
		MaxDepth:     req.MaxDepth,
		IncludePaths: req.IncludePaths,
		ScrapeOptions: scrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.ID) == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoJobID, resp.Error)
		}
		return "", ErrNoJobID
	}
	return resp.ID, nil
}

// CrawlStatus polls a crawl job once: a single attempt bounded by
// StatusTimeout, so a slow vendor costs the poller one attempt at most.
func (c *Client) CrawlStatus(ctx context.Context, id string) (*CrawlStatus, error) {
	var resp crawlStatusResponse
	once := attempts{retries: 0, timeout: c.cfg.StatusTimeout}
	if once.timeout <= 0 || once.timeout > c.cfg.Timeout {
		once.timeout = c.cfg.Timeout
	}
	if err := c.call(ctx, once, "crawl_status", http.MethodGet, "/v1/crawl/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "" && resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, resp.Error)
	}

	pages := make([]content.Page, 0, len(resp.Data))
	for _, d := range resp.Data {
		pages = append(pages, d.toPage(""))
	}
	return &CrawlStatus{
		Status:    resp.Status,
		Total:     resp.Total,
		Completed: resp.Completed,
		Pages:     pages,
	}, nil
}

// attempts is the retry budget of one logical call.
type attempts struct {
	retries int
	timeout time.Duration
}

func (c *Client) standard() attempts {
	return attempts{retries: c.cfg.MaxRetries, timeout: c.cfg.Timeout}
}

// call performs one vendor request and decodes the JSON body into out.
func (c *Client) call(ctx context.Context, budget attempts, endpoint, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordVendorRequest(endpoint, time.Since(start), err) }()

	if c.cfg.APIKey == "" {
		return ErrNotConfigured
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
	}

	target := strings.TrimRight(c.cfg.BaseURL, "/") + path
	build := func(ctx context.Context) (*http.Request, error) {
		// 再試行も 1 リクエストとして数える
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rdr)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := circuitbreaker.Do(c.cb, func() (*fetcher.Response, error) {
		resp := c.http.FetchWithRetry(ctx, build, budget.retries, budget.timeout)
		if resp == nil {
			return nil, ErrUnavailable
		}
		return resp, nil
	})
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			slog.Warn("firecrawl request rejected",
				slog.String("endpoint", endpoint),
				slog.String("circuit", c.cb.Name()),
				slog.String("state", c.cb.State().String()),
				slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", endpoint, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%s: %w", endpoint, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(resp.Body), 200),
		})
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadResponse, endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
