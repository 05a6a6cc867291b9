package translate_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/usecase/translate"
)

/* ─── ヘルパ ─── */

func ptr(s string) *string { return &s }

// stubBackend は呼び出しを記録し、固定の結果を返す
type stubBackend struct {
	calls []translate.Input
	res   entity.TranslationResult
	err   error
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Translate(_ context.Context, in translate.Input) (entity.TranslationResult, error) {
	b.calls = append(b.calls, in)
	return b.res, b.err
}

/* ─── テスト ─── */

func TestTranslate_TitleRequired(t *testing.T) {
	backend := &stubBackend{}
	svc := translate.NewService(backend)

	_, err := svc.Translate(context.Background(), translate.Request{Title: "  ", TargetLang: "en"})
	assert.ErrorIs(t, err, translate.ErrTitleRequired)
	assert.Empty(t, backend.calls)
}

func TestTranslate_ShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		req  translate.Request
	}{
		{"chinese to default", translate.Request{Title: "国防部发布会", Summary: ptr("摘要")}},
		{"english to en", translate.Request{Title: "Navy news", Summary: ptr("Summary"), TargetLang: "en"}},
		{"no summary", translate.Request{Title: "Navy news", TargetLang: "EN"}},
		{"empty summary", translate.Request{Title: "Navy news", Summary: ptr(""), TargetLang: "en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{err: errors.New("must not be called")}
			svc := translate.NewService(backend)

			got, err := svc.Translate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Empty(t, backend.calls)
			assert.Equal(t, tt.req.Title, got.TranslatedTitle)
			assert.Equal(t, tt.req.Summary, got.TranslatedSummary)
		})
	}
}

func TestTranslate_Success(t *testing.T) {
	backend := &stubBackend{res: entity.TranslationResult{
		TranslatedTitle:   "海军新闻",
		TranslatedSummary: ptr("摘要"),
	}}
	svc := translate.NewService(backend)

	got, err := svc.Translate(context.Background(), translate.Request{
		Title:   "Navy news",
		Summary: ptr("Summary"),
	})
	require.NoError(t, err)
	assert.Equal(t, "海军新闻", got.TranslatedTitle)
	assert.Equal(t, ptr("摘要"), got.TranslatedSummary)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, translate.Input{
		Title:   "Navy news",
		Summary: ptr("Summary"),
		Source:  "en",
		Target:  "zh-CN",
	}, backend.calls[0])
}

func TestTranslate_NoSummaryStaysNull(t *testing.T) {
	backend := &stubBackend{res: entity.TranslationResult{
		TranslatedTitle:   "海军新闻",
		TranslatedSummary: ptr("hallucinated"),
	}}
	svc := translate.NewService(backend)

	got, err := svc.Translate(context.Background(), translate.Request{Title: "Navy news", TargetLang: "zh-TW"})
	require.NoError(t, err)
	assert.Nil(t, got.TranslatedSummary)
	assert.Equal(t, "zh-TW", backend.calls[0].Target)
}

func TestTranslate_EmptySummaryBecomesNull(t *testing.T) {
	backend := &stubBackend{res: entity.TranslationResult{
		TranslatedTitle:   "海军新闻",
		TranslatedSummary: ptr(""),
	}}
	svc := translate.NewService(backend)

	got, err := svc.Translate(context.Background(), translate.Request{Title: "Navy news", Summary: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "海军新闻", got.TranslatedTitle)
	assert.Nil(t, got.TranslatedSummary)
}

func TestTranslate_Degradation(t *testing.T) {
	tests := []struct {
		name    string
		res     entity.TranslationResult
		err     error
		wantErr error
	}{
		{name: "network error", err: errors.New("dial tcp: connection refused")},
		{name: "malformed reply", err: fmt.Errorf("claude: %w", translate.ErrMalformedReply)},
		{name: "empty title", res: entity.TranslationResult{}},
		{name: "rate limited", err: fmt.Errorf("mymemory: %w", translate.ErrRateLimited), wantErr: translate.ErrRateLimited},
		{name: "payment required", err: fmt.Errorf("openai: %w", translate.ErrPaymentRequired), wantErr: translate.ErrPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := translate.NewService(&stubBackend{res: tt.res, err: tt.err})
			req := translate.Request{Title: "Navy news", Summary: ptr("Summary"), TargetLang: "ja"}

			got, err := svc.Translate(context.Background(), req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, "Navy news", got.TranslatedTitle)
			assert.Equal(t, ptr("Summary"), got.TranslatedSummary)
		})
	}
}
