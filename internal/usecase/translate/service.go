package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
)

// Input is what a backend is asked to translate. Source and Target are
// already normalized language codes and never equal.
type Input struct {
	Title   string
	Summary *string
	Source  string
	Target  string
}

// Translator is a translation backend.
// Implementations report upstream quota and billing rejections by wrapping
// ErrRateLimited and ErrPaymentRequired.
type Translator interface {
	Name() string
	Translate(ctx context.Context, in Input) (entity.TranslationResult, error)
}

// Request is a reader's translation request.
type Request struct {
	Title      string  `json:"title"`
	Summary    *string `json:"summary,omitempty"`
	TargetLang string  `json:"targetLang,omitempty"`
}

// Service provides the translation use case.
type Service struct {
	backend Translator
	now     func() time.Time
}

// NewService creates a translation Service on top of backend.
func NewService(backend Translator) *Service {
	return &Service{backend: backend, now: time.Now}
}

// Translate translates req into its target language.
//
// When the detected source language equals the target the input is returned
// as-is without contacting the backend. Backend failures degrade to the
// original text with a nil error, except upstream rate limit and billing
// rejections: those return the original text together with ErrRateLimited or
// ErrPaymentRequired so the caller can surface the status.
func (s *Service) Translate(ctx context.Context, req Request) (entity.TranslationResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return entity.TranslationResult{}, ErrTitleRequired
	}

	original := entity.TranslationResult{
		TranslatedTitle:   req.Title,
		TranslatedSummary: req.Summary,
	}
	target := NormalizeTarget(req.TargetLang)
	source := DetectSource(req.Title)
	backend := s.backend.Name()

	if source == target {
		metrics.RecordTranslation(backend, "passthrough", 0)
		return original, nil
	}

	start := s.now()
	res, err := s.backend.Translate(ctx, Input{
		Title:   req.Title,
		Summary: req.Summary,
		Source:  source,
		Target:  target,
	})
	elapsed := s.now().Sub(start)

	if err == nil && res.TranslatedTitle == "" {
		err = ErrMalformedReply
	}
	if err != nil {
		outcome := "fallback"
		switch {
		case errors.Is(err, ErrRateLimited):
			outcome = "rate_limited"
		case errors.Is(err, ErrPaymentRequired):
			outcome = "payment_required"
		}
		metrics.RecordTranslation(backend, outcome, elapsed)
		slog.Warn("translation failed, returning original text",
			slog.String("backend", backend),
			slog.String("source_lang", source),
			slog.String("target_lang", target),
			slog.String("outcome", outcome),
			slog.Any("error", err))

		if outcome != "fallback" {
			return original, err
		}
		return original, nil
	}

	// 要約なし・空の要約は null で返す
	if req.Summary == nil || *req.Summary == "" {
		res.TranslatedSummary = nil
	}

	metrics.RecordTranslation(backend, "success", elapsed)
	slog.Debug("translation completed",
		slog.String("backend", backend),
		slog.String("source_lang", source),
		slog.String("target_lang", target),
		slog.Duration("duration", elapsed))
	return res, nil
}
