package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"newsdesk/internal/resilience/retry"
)

// defaultMaxBodySize bounds every buffered response body.
const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// Response is a fully buffered HTTP response.
// The body is read inside the timeout so callers never block on a slow stream.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RequestBuilder creates a fresh request for every attempt, since a request
// body can only be read once.
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Client is the resilient HTTP client shared by every vendor adapter.
//
// FetchWithTimeout bounds a single call. FetchWithRetry repeats it with linear
// backoff, never retries a 4xx response, and returns nil once every attempt has
// failed: a nil response means "source unavailable this run", not a fatal error.
type Client struct {
	http        *http.Client
	maxBodySize int64
	backoffUnit time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithMaxBodySize overrides the buffered body limit.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBodySize = n }
}

// WithBackoffUnit overrides the 1s linear backoff step.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Client) { c.backoffUnit = d }
}

// NewClient wraps hc. A nil hc uses a client without a global timeout; every
// call is bounded by its own timeout instead.
func NewClient(hc *http.Client, opts ...Option) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{http: hc, maxBodySize: defaultMaxBodySize, backoffUnit: time.Second}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchWithTimeout performs req and buffers the body, aborting the request
// when it exceeds timeout. A timeout fails with ErrTimeout. Non-2xx responses
// are returned as-is; classifying them is the caller's job.
func (c *Client) FetchWithTimeout(ctx context.Context, req *http.Request, timeout time.Duration) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(reqCtx))
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s %s exceeded %v", ErrTimeout, req.Method, req.URL.Redacted(), timeout)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: reading body of %s exceeded %v", ErrTimeout, req.URL.Redacted(), timeout)
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, c.maxBodySize)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// FetchWithRetry makes up to maxRetries+1 timed attempts with a delay of
// attempt × 1s between them. A 4xx response is returned immediately without
// retry. When every attempt fails it logs and returns nil.
func (c *Client) FetchWithRetry(ctx context.Context, build RequestBuilder, maxRetries int, timeout time.Duration) *Response {
	cfg := retry.VendorConfig(maxRetries)
	cfg.InitialDelay = c.backoffUnit
	return c.fetchWithConfig(ctx, build, cfg, timeout)
}

func (c *Client) fetchWithConfig(ctx context.Context, build RequestBuilder, cfg retry.Config, timeout time.Duration) *Response {
	var out *Response
	var target string

	err := retry.WithBackoff(ctx, cfg, func() error {
		req, err := build(ctx)
		if err != nil {
			// リクエストを組み立てられない場合は再試行しても無駄
			return &retry.HTTPError{StatusCode: http.StatusBadRequest, Message: err.Error()}
		}
		target = req.URL.Redacted()

		resp, err := c.FetchWithTimeout(ctx, req, timeout)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			out = resp
			return &retry.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		if !resp.OK() {
			return &retry.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		out = resp
		return nil
	})

	if err != nil && out == nil {
		slog.Warn("fetch failed after retries, treating source as unavailable",
			slog.String("url", target),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Any("error", err))
		return nil
	}
	return out
}
