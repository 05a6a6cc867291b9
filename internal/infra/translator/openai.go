package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"newsdesk/internal/config"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
	"newsdesk/internal/usecase/translate"
)

// OpenAI translates with the chat completions API in JSON mode.
type OpenAI struct {
	client         *openai.Client
	model          string
	maxTokens      int
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewOpenAI creates an OpenAI backend against the public API.
func NewOpenAI(cfg config.LLMConfig, timeout time.Duration) *OpenAI {
	return NewOpenAIWithClientConfig(cfg, timeout, openai.DefaultConfig(cfg.APIKey))
}

// NewOpenAIWithClientConfig creates an OpenAI backend with a custom client
// configuration, e.g. another BaseURL.
func NewOpenAIWithClientConfig(cfg config.LLMConfig, timeout time.Duration, clientCfg openai.ClientConfig) *OpenAI {
	slog.Info("initialized openai translator", slog.String("model", cfg.Model))
	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		maxTokens:      cfg.MaxTokens,
		timeout:        timeout,
		circuitBreaker: newBreaker(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.TranslatorConfig(),
	}
}

// Name implements translate.Translator.
func (o *OpenAI) Name() string { return config.TranslatorOpenAI }

// Translate implements translate.Translator.
func (o *OpenAI) Translate(ctx context.Context, in translate.Input) (entity.TranslationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	return call(ctx, "openai", o.circuitBreaker, o.retryConfig, func() (entity.TranslationResult, error) {
		return o.doTranslate(ctx, in)
	})
}

func (o *OpenAI) doTranslate(ctx context.Context, in translate.Input) (entity.TranslationResult, error) {
	requestID := uuid.NewString()
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(in)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	duration := time.Since(start)
	metrics.RecordVendorRequest("openai.chat", duration, err)

	if err != nil {
		slog.ErrorContext(ctx, "openai translation failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		if status := openAIStatus(err); status != 0 {
			return entity.TranslationResult{}, statusError(status, "openai api error")
		}
		return entity.TranslationResult{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return entity.TranslationResult{}, fmt.Errorf("%w: openai returned no choices", translate.ErrMalformedReply)
	}

	res, err := translate.ParseJSONReply(resp.Choices[0].Message.Content)
	if err != nil {
		slog.WarnContext(ctx, "openai reply could not be parsed",
			slog.String("request_id", requestID),
			slog.Int("reply_length", len(resp.Choices[0].Message.Content)))
		return entity.TranslationResult{}, err
	}

	slog.DebugContext(ctx, "openai translation completed",
		slog.String("request_id", requestID),
		slog.String("target", in.Target),
		slog.Duration("duration", duration))
	return res, nil
}

// openAIStatus extracts the HTTP status from a go-openai error, or 0.
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
