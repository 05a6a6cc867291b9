// Package translator provides the translation backends: the free MyMemory
// API and prompt-driven Claude and OpenAI models. Every backend runs its
// upstream calls through a circuit breaker inside a retry loop and maps
// upstream quota and billing rejections onto translate.ErrRateLimited and
// translate.ErrPaymentRequired.
package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker"

	"newsdesk/internal/config"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
	"newsdesk/internal/usecase/translate"
)

// New builds the backend selected by cfg.Type.
func New(cfg *config.TranslatorConfig, hc *http.Client) (translate.Translator, error) {
	switch cfg.Type {
	case config.TranslatorMyMemory:
		return NewMyMemory(cfg.MyMemory, cfg.Timeout, hc), nil
	case config.TranslatorClaude:
		return NewClaude(cfg.Claude, cfg.Timeout), nil
	case config.TranslatorOpenAI:
		return NewOpenAI(cfg.OpenAI, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown translator type %q", cfg.Type)
	}
}

// newBreaker creates a breaker that does not count quota and billing
// rejections as failures: the upstream is healthy, the account is not.
func newBreaker(cfg circuitbreaker.Config) *circuitbreaker.CircuitBreaker {
	cfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, translate.ErrRateLimited) ||
			errors.Is(err, translate.ErrPaymentRequired)
	}
	return circuitbreaker.New(cfg)
}

// statusError converts an upstream HTTP status into an error. 429 and 402
// wrap the translate sentinels; everything else stays a retry.HTTPError so
// the retry policy can classify it.
func statusError(status int, msg string) error {
	httpErr := &retry.HTTPError{StatusCode: status, Message: msg}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", translate.ErrRateLimited, httpErr)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", translate.ErrPaymentRequired, httpErr)
	default:
		return httpErr
	}
}

// call runs fn through cb inside the retry loop.
func call[T any](ctx context.Context, name string, cb *circuitbreaker.CircuitBreaker, cfg retry.Config, fn func() (T, error)) (T, error) {
	var out T
	err := retry.WithBackoff(ctx, cfg, func() error {
		v, err := circuitbreaker.Do(cb, fn)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("translator circuit breaker open, request rejected",
					slog.String("service", name),
					slog.String("state", cb.State().String()))
				return fmt.Errorf("%s unavailable: %w", name, err)
			}
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s translate: %w", name, err)
	}
	return out, nil
}

var languageNames = map[string]string{
	translate.LangZhCN: "Simplified Chinese",
	translate.LangZhTW: "Traditional Chinese",
	translate.LangEN:   "English",
	translate.LangJA:   "Japanese",
	translate.LangKO:   "Korean",
}

func languageName(code string) string {
	if n, ok := languageNames[code]; ok {
		return n
	}
	return code
}

// Breaker exposes the backend's circuit breaker for health reporting.
func (m *MyMemory) Breaker() *circuitbreaker.CircuitBreaker { return m.circuitBreaker }

// Breaker exposes the backend's circuit breaker for health reporting.
func (c *Claude) Breaker() *circuitbreaker.CircuitBreaker { return c.circuitBreaker }

// Breaker exposes the backend's circuit breaker for health reporting.
func (o *OpenAI) Breaker() *circuitbreaker.CircuitBreaker { return o.circuitBreaker }
