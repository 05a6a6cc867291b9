package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"newsdesk/internal/infra/fetcher"
	"newsdesk/internal/resilience/retry"
)

/* ───────────────────────── ヘルパ ───────────────────────── */

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "fc-test-key"
	cfg.BaseURL = srv.URL
	cfg.Timeout = time.Second
	cfg.RateLimit = 1000
	return NewClient(cfg, fetcher.NewClient(nil, fetcher.WithBackoffUnit(time.Millisecond)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

/* ───────────────────────── テスト ───────────────────────── */

func TestClient_Scrape(t *testing.T) {
	var gotBody scrapeRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer fc-test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"markdown": "## Headline one for the test",
				"links":    []string{"https://news.example.com/a"},
				"metadata": map[string]any{
					"title":     "Front page",
					"ogImage":   []string{"https://cdn.example.com/og.png"},
					"sourceURL": "https://news.example.com/?ref=redirect",
				},
			},
		})
	}))

	page, err := c.Scrape(context.Background(), "https://news.example.com/")
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com/", gotBody.URL)
	assert.Equal(t, []string{"markdown", "links"}, gotBody.Formats)
	assert.True(t, gotBody.OnlyMainContent)

	assert.Equal(t, "https://news.example.com/", page.URL)
	assert.Equal(t, "## Headline one for the test", page.Markdown)
	assert.Equal(t, []string{"https://news.example.com/a"}, page.Links)
	assert.Equal(t, "https://cdn.example.com/og.png", page.Metadata.OGImage)
	assert.Equal(t, "Front page", page.Metadata.Title)
}

func TestClient_Scrape_TopLevelDocument(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"markdown": "# Top level markdown here", "links": []string{"https://x/a"}})
	}))

	page, err := c.Scrape(context.Background(), "https://x/")
	require.NoError(t, err)
	assert.Equal(t, "# Top level markdown here", page.Markdown)
	assert.Equal(t, []string{"https://x/a"}, page.Links)
}

func TestClient_Scrape_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"success":false,"error":"Insufficient credits"}`))
	}))

	_, err := c.Scrape(context.Background(), "https://x/")
	require.Error(t, err)
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusPaymentRequired, httpErr.StatusCode)
	assert.EqualValues(t, 1, hits.Load())
}

func TestClient_Scrape_ServerErrorsExhaustRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Scrape(context.Background(), "https://x/")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, DefaultConfig().MaxRetries+1, hits.Load())
}

func TestClient_Scrape_MalformedJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))

	_, err := c.Scrape(context.Background(), "https://x/")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(DefaultConfig(), nil)
	_, err := c.Scrape(context.Background(), "https://x/")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Map(t *testing.T) {
	var got mapRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/map", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, map[string]any{
			"success": true,
			"links":   []string{"https://s/news/1", "https://s/news/2", "https://s/news/3"},
		})
	}))

	links, err := c.Map(context.Background(), "https://s/", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Limit)
	assert.Equal(t, []string{"https://s/news/1", "https://s/news/2"}, links)
}

func TestClient_Map_ObjectLinks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"links":[{"url":"https://s/a","title":"A"},{"url":""}]}`))
	}))

	links, err := c.Map(context.Background(), "https://s/", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://s/a"}, links)
}

func TestClient_SubmitCrawl(t *testing.T) {
	var got crawlRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/crawl", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, map[string]any{"success": true, "id": "job-123"})
	}))

	id, err := c.SubmitCrawl(context.Background(), CrawlRequest{
		URL: "https://s/", Limit: 20, MaxDepth: 2, IncludePaths: []string{"/news/.*"},
	})
	require.NoError(t, err)
	assert.Equal(t, "job-123", id)
	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, 2, got.MaxDepth)
	assert.Equal(t, []string{"/news/.*"}, got.IncludePaths)
	assert.Equal(t, []string{"markdown"}, got.ScrapeOptions.Formats)
	assert.True(t, got.ScrapeOptions.OnlyMainContent)
}

func TestClient_SubmitCrawl_NoJobID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true})
	}))

	_, err := c.SubmitCrawl(context.Background(), CrawlRequest{URL: "https://s/"})
	assert.ErrorIs(t, err, ErrNoJobID)
}

func TestClient_CrawlStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/crawl/job-123", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, map[string]any{
			"status":    "completed",
			"total":     1,
			"completed": 1,
			"data": []map[string]any{{
				"markdown": "# Body heading text",
				"metadata": map[string]any{"title": "Crawled article title", "sourceURL": "https://s/news/1"},
			}},
		})
	}))

	st, err := c.CrawlStatus(context.Background(), "job-123")
	require.NoError(t, err)
	assert.Equal(t, "completed", st.Status)
	require.Len(t, st.Pages, 1)
	assert.Equal(t, "https://s/news/1", st.Pages[0].URL)
	assert.Equal(t, "Crawled article title", st.Pages[0].Metadata.Title)
}

func TestClient_CrawlStatus_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	c.cfg.StatusTimeout = 30 * time.Millisecond

	start := time.Now()
	_, err := c.CrawlStatus(context.Background(), "job-slow")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 1, hits.Load(), "status checks are not retried")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestClient_RetriesWaitOnRateLimiter(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	// 1 トークン / 50ms、バーストなし
	c.limiter = rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

	start := time.Now()
	_, err := c.Scrape(context.Background(), "https://news.example.com/")
	elapsed := time.Since(start)

	require.Error(t, err)
	tries := DefaultConfig().MaxRetries + 1
	assert.EqualValues(t, tries, hits.Load())
	assert.GreaterOrEqual(t, elapsed, time.Duration(tries-1)*50*time.Millisecond-5*time.Millisecond,
		"every retry takes a limiter token")
}

func TestFlexString(t *testing.T) {
	var m struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
		C flexString `json:"c"`
		D flexString `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":["y","z"],"c":[],"d":42}`), &m))
	assert.Equal(t, flexString("x"), m.A)
	assert.Equal(t, flexString("y"), m.B)
	assert.Equal(t, flexString(""), m.C)
	assert.Equal(t, flexString(""), m.D)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, errors.Is(cfg.Validate(), ErrNotConfigured))

	cfg.APIKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.StatusTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.APIKey = "k"
	cfg.BaseURL = "ftp://x"
	assert.Error(t, cfg.Validate())
}
