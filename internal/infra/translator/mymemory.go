package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"newsdesk/internal/config"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/fetcher"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
	"newsdesk/internal/usecase/translate"
)

// MyMemory translates through the free MyMemory API, one GET per field.
type MyMemory struct {
	http           *fetcher.Client
	baseURL        string
	email          string
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewMyMemory creates a MyMemory backend. A nil hc uses a default client.
func NewMyMemory(cfg config.MyMemoryConfig, timeout time.Duration, hc *http.Client) *MyMemory {
	return &MyMemory{
		http:           fetcher.NewClient(hc),
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		email:          cfg.Email,
		timeout:        timeout,
		circuitBreaker: newBreaker(circuitbreaker.MyMemoryConfig()),
		retryConfig:    retry.TranslatorConfig(),
	}
}

// Name implements translate.Translator.
func (m *MyMemory) Name() string { return config.TranslatorMyMemory }

// Translate translates the title and, when present, the summary in parallel.
func (m *MyMemory) Translate(ctx context.Context, in translate.Input) (entity.TranslationResult, error) {
	pair := in.Source + "|" + in.Target
	var res entity.TranslationResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := m.translateText(gctx, in.Title, pair)
		res.TranslatedTitle = t
		return err
	})
	if in.Summary != nil && *in.Summary != "" {
		g.Go(func() error {
			s, err := m.translateText(gctx, *in.Summary, pair)
			res.TranslatedSummary = &s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return entity.TranslationResult{}, err
	}
	return res, nil
}

func (m *MyMemory) translateText(ctx context.Context, q, pair string) (string, error) {
	return call(ctx, "mymemory", m.circuitBreaker, m.retryConfig, func() (string, error) {
		return m.doTranslate(ctx, q, pair)
	})
}

// myMemoryResponse is the subset of the API reply we use. responseStatus is
// a number on success but a quoted string on some errors.
type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.RawMessage `json:"responseStatus"`
	ResponseDetails string          `json:"responseDetails"`
}

func (r myMemoryResponse) status() int {
	raw := strings.Trim(string(r.ResponseStatus), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// doTranslate performs one API call without retry or circuit breaker.
func (m *MyMemory) doTranslate(ctx context.Context, q, pair string) (string, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("langpair", pair)
	if m.email != "" {
		params.Set("de", m.email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/get?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := m.http.FetchWithTimeout(ctx, req, m.timeout)
	metrics.RecordVendorRequest("mymemory.get", time.Since(start), err)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", statusError(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var body myMemoryResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("%w: %v", translate.ErrMalformedReply, err)
	}
	if st := body.status(); st != http.StatusOK {
		slog.WarnContext(ctx, "mymemory rejected request",
			slog.Int("status", st),
			slog.String("details", body.ResponseDetails),
			slog.String("langpair", pair))
		return "", statusError(st, body.ResponseDetails)
	}
	if body.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("%w: empty translatedText", translate.ErrMalformedReply)
	}
	return body.ResponseData.TranslatedText, nil
}
