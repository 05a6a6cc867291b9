package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"
)

/* ───────── ヘルパ ───────── */

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   5 * time.Millisecond,
		MaxDelay:       20 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// failFirst は最初の n 回だけ err を返す
func failFirst(n int, err error, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return err
		}
		return nil
	}
}

/* ───────── テスト ───────── */

func TestWithBackoff(t *testing.T) {
	unavailable := &HTTPError{StatusCode: 503, Message: "vendor unavailable"}
	badRequest := &HTTPError{StatusCode: 400, Message: "unknown url"}

	tests := []struct {
		name      string
		attempts  int
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt succeeds", attempts: 3, failures: 0, err: unavailable, wantCalls: 1},
		{name: "recovers on last attempt", attempts: 3, failures: 2, err: unavailable, wantCalls: 3},
		{name: "exhausted", attempts: 3, failures: 10, err: unavailable, wantCalls: 3, wantErr: unavailable},
		{name: "4xx is not retried", attempts: 3, failures: 10, err: badRequest, wantCalls: 1, wantErr: badRequest},
		{name: "zero attempts still runs once", attempts: 0, failures: 10, err: unavailable, wantCalls: 1, wantErr: unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fastConfig(tt.attempts), failFirst(tt.failures, tt.err, &calls))

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want wrapping %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond

	calls := 0
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return &HTTPError{StatusCode: 502, Message: "bad gateway"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "nil error",
			err:       nil,
			retryable: false,
		},
		{
			name:      "context canceled",
			err:       context.Canceled,
			retryable: false,
		},
		{
			name:      "context deadline exceeded",
			err:       context.DeadlineExceeded,
			retryable: false,
		},
		{
			name:      "HTTP 500 error",
			err:       &HTTPError{StatusCode: 500, Message: "Internal Server Error"},
			retryable: true,
		},
		{
			name:      "HTTP 502 error",
			err:       &HTTPError{StatusCode: 502, Message: "Bad Gateway"},
			retryable: true,
		},
		{
			name:      "HTTP 503 error",
			err:       &HTTPError{StatusCode: 503, Message: "Service Unavailable"},
			retryable: true,
		},
		{
			name:      "HTTP 429 error",
			err:       &HTTPError{StatusCode: 429, Message: "Too Many Requests"},
			retryable: true,
		},
		{
			name:      "HTTP 408 error",
			err:       &HTTPError{StatusCode: 408, Message: "Request Timeout"},
			retryable: true,
		},
		{
			name:      "HTTP 400 error",
			err:       &HTTPError{StatusCode: 400, Message: "Bad Request"},
			retryable: false,
		},
		{
			name:      "HTTP 404 error",
			err:       &HTTPError{StatusCode: 404, Message: "Not Found"},
			retryable: false,
		},
		{
			name:      "ECONNREFUSED",
			err:       syscall.ECONNREFUSED,
			retryable: true,
		},
		{
			name:      "ECONNRESET",
			err:       syscall.ECONNRESET,
			retryable: true,
		},
		{
			name:      "ETIMEDOUT",
			err:       syscall.ETIMEDOUT,
			retryable: true,
		},
		{
			name:      "ENETUNREACH",
			err:       syscall.ENETUNREACH,
			retryable: true,
		},
		{
			name:      "generic error",
			err:       errors.New("some error"),
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryable(tt.err)
			if result != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", result, tt.retryable)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.MaxAttempts)
	}
	if cfg.Strategy != Exponential {
		t.Errorf("expected exponential strategy, got %v", cfg.Strategy)
	}
	if cfg.Retryable != nil {
		t.Error("expected default classifier")
	}
}

func TestVendorConfig(t *testing.T) {
	cfg := VendorConfig(2)

	if cfg.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=maxRetries+1=3, got %d", cfg.MaxAttempts)
	}
	if cfg.Strategy != Linear {
		t.Errorf("expected linear strategy, got %v", cfg.Strategy)
	}
	if cfg.InitialDelay != time.Second {
		t.Errorf("expected InitialDelay=1s, got %v", cfg.InitialDelay)
	}
	if got := VendorConfig(-1).MaxAttempts; got != 1 {
		t.Errorf("negative retries should clamp to one attempt, got %d", got)
	}
}

func TestTranslatorConfig_DoesNotRetryRateLimit(t *testing.T) {
	cfg := TranslatorConfig()
	cfg.InitialDelay = time.Millisecond

	attempts := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		return &HTTPError{StatusCode: 429, Message: "Too Many Requests"}
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDBConfig(t *testing.T) {
	cfg := DBConfig()

	if cfg.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
}

func TestWithBackoff_LinearDelays(t *testing.T) {
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		Strategy:     Linear,
		Retryable:    RetryUnlessClientError,
	}

	var stamps []time.Time
	err := WithBackoff(context.Background(), cfg, func() error {
		stamps = append(stamps, time.Now())
		return errors.New("connection dropped")
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	// attempt × InitialDelay: 20ms then 40ms
	if gap := stamps[1].Sub(stamps[0]); gap < 20*time.Millisecond {
		t.Errorf("first gap too short: %v", gap)
	}
	if gap := stamps[2].Sub(stamps[1]); gap < 40*time.Millisecond {
		t.Errorf("second gap too short: %v", gap)
	}
}

func TestWithBackoff_ClientErrorShortCircuits(t *testing.T) {
	cfg := VendorConfig(3)
	cfg.InitialDelay = time.Millisecond

	for _, code := range []int{400, 401, 403, 404, 429} {
		attempts := 0
		err := WithBackoff(context.Background(), cfg, func() error {
			attempts++
			return &HTTPError{StatusCode: code, Message: "client error"}
		})
		if err == nil {
			t.Fatalf("status %d: expected error", code)
		}
		if attempts != 1 {
			t.Errorf("status %d: expected 1 attempt, got %d", code, attempts)
		}
	}
}

func TestRetryUnlessClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"per-attempt deadline", context.DeadlineExceeded, true},
		{"generic", errors.New("boom"), true},
		{"5xx", &HTTPError{StatusCode: 503}, true},
		{"4xx", &HTTPError{StatusCode: 404}, false},
		{"wrapped 4xx", fmt.Errorf("scrape: %w", &HTTPError{StatusCode: 402}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryUnlessClientError(tt.err); got != tt.want {
				t.Errorf("RetryUnlessClientError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 500, Message: "Internal Server Error"}
	expected := "HTTP 500: Internal Server Error"

	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestAddJitter(t *testing.T) {
	duration := 100 * time.Millisecond
	jitterFraction := 0.2

	// Run multiple times to check jitter is random
	results := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		result := addJitter(duration, jitterFraction)

		// Result should be between duration and duration*(1+jitterFraction)
		minDuration := duration
		maxDuration := time.Duration(float64(duration) * 1.2)

		if result < minDuration || result > maxDuration {
			t.Errorf("expected result between %v and %v, got %v", minDuration, maxDuration, result)
		}

		results[result] = true
	}

	// Should have some variation (not all the same)
	if len(results) < 2 {
		t.Error("expected jitter to produce varied results")
	}
}

func TestAddJitter_ZeroFraction(t *testing.T) {
	duration := 100 * time.Millisecond
	result := addJitter(duration, 0.0)

	if result != duration {
		t.Errorf("expected no jitter with fraction=0, got %v instead of %v", result, duration)
	}
}
