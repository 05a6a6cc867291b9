package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"newsdesk/internal/config"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
	"newsdesk/internal/usecase/translate"
)

// Claude translates with Anthropic's Messages API and a JSON-only prompt.
type Claude struct {
	client         anthropic.Client
	model          string
	maxTokens      int
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClaude creates a Claude backend. opts are appended after the API key,
// so callers can point the client at another base URL.
func NewClaude(cfg config.LLMConfig, timeout time.Duration, opts ...option.RequestOption) *Claude {
	// SDK 側のリトライは無効にし、retry パッケージに一本化する
	all := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	slog.Info("initialized claude translator", slog.String("model", cfg.Model))

	return &Claude{
		client:         anthropic.NewClient(all...),
		model:          cfg.Model,
		maxTokens:      cfg.MaxTokens,
		timeout:        timeout,
		circuitBreaker: newBreaker(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.TranslatorConfig(),
	}
}

// Name implements translate.Translator.
func (c *Claude) Name() string { return config.TranslatorClaude }

// Translate implements translate.Translator.
func (c *Claude) Translate(ctx context.Context, in translate.Input) (entity.TranslationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return call(ctx, "claude", c.circuitBreaker, c.retryConfig, func() (entity.TranslationResult, error) {
		return c.doTranslate(ctx, in)
	})
}

func (c *Claude) doTranslate(ctx context.Context, in translate.Input) (entity.TranslationResult, error) {
	requestID := uuid.NewString()
	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(in))),
		},
	})
	duration := time.Since(start)
	metrics.RecordVendorRequest("claude.messages", duration, err)

	if err != nil {
		slog.ErrorContext(ctx, "claude translation failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return entity.TranslationResult{}, statusError(apiErr.StatusCode, "claude api error")
		}
		return entity.TranslationResult{}, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return entity.TranslationResult{}, fmt.Errorf("%w: claude returned empty response", translate.ErrMalformedReply)
	}
	block, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return entity.TranslationResult{}, fmt.Errorf("%w: claude returned unexpected content type", translate.ErrMalformedReply)
	}

	res, err := translate.ParseJSONReply(block.Text)
	if err != nil {
		slog.WarnContext(ctx, "claude reply could not be parsed",
			slog.String("request_id", requestID),
			slog.Int("reply_length", len(block.Text)))
		return entity.TranslationResult{}, err
	}

	slog.DebugContext(ctx, "claude translation completed",
		slog.String("request_id", requestID),
		slog.String("target", in.Target),
		slog.Duration("duration", duration))
	return res, nil
}
