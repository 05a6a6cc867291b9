package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/observability/metrics"
	pkgconfig "newsdesk/internal/pkg/config"
)

// IPRateLimiterConfig bounds how often one client address may call a route.
type IPRateLimiterConfig struct {
	// Limit is the number of requests allowed per Window. It is also the burst.
	Limit  int
	Window time.Duration
	// Enabled switches the limiter off entirely when false.
	Enabled bool
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL time.Duration
}

// DefaultIPRateLimiterConfig allows 20 translations per minute per client.
func DefaultIPRateLimiterConfig() IPRateLimiterConfig {
	return IPRateLimiterConfig{
		Limit:   20,
		Window:  time.Minute,
		Enabled: true,
		IdleTTL: 10 * time.Minute,
	}
}

// LoadIPRateLimiterConfig reads TRANSLATE_RATE_LIMIT, TRANSLATE_RATE_WINDOW
// and TRANSLATE_RATE_LIMIT_ENABLED. Invalid values keep the defaults.
func LoadIPRateLimiterConfig() IPRateLimiterConfig {
	d := DefaultIPRateLimiterConfig()
	m := pkgconfig.NewConfigMetrics("ratelimit")
	defer m.RecordLoadTimestamp()

	return IPRateLimiterConfig{
		Limit: pkgconfig.LoadEnvInt("TRANSLATE_RATE_LIMIT", d.Limit, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 10000)
		}).Report(nil, m, "translate_rate_limit"),
		Window: pkgconfig.LoadEnvDuration("TRANSLATE_RATE_WINDOW", d.Window, func(v time.Duration) error {
			return pkgconfig.ValidateDuration(v, time.Second, 24*time.Hour)
		}).Report(nil, m, "translate_rate_window"),
		Enabled: pkgconfig.LoadEnvBool("TRANSLATE_RATE_LIMIT_ENABLED", d.Enabled).Report(nil, m, "translate_rate_limit_enabled"),
		IdleTTL: d.IdleTTL,
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address. Tokens refill at
// Limit per Window.
type IPRateLimiter struct {
	name      string
	cfg       IPRateLimiterConfig
	extractor IPExtractor
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewIPRateLimiter creates a limiter labelled name in metrics and logs.
// Non-positive limits fall back to the defaults; a nil extractor uses
// RemoteAddrExtractor.
func NewIPRateLimiter(name string, cfg IPRateLimiterConfig, extractor IPExtractor) *IPRateLimiter {
	d := DefaultIPRateLimiterConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = d.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = d.Window
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = d.IdleTTL
	}
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}
	return &IPRateLimiter{
		name:      name,
		cfg:       cfg,
		extractor: extractor,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
	}
}

// Middleware answers 429 with Retry-After once a client has spent its
// budget. X-RateLimit-Limit and X-RateLimit-Remaining are set on every
// checked response. An address that cannot be resolved is let through.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.cfg.Enabled || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ip, err := l.extractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter could not resolve client, allowing request",
				slog.String("limiter", l.name),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Any("error", err))
			metrics.RecordRateLimit(l.name, "unresolved")
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, retryAfter := l.allow(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			metrics.RecordRateLimit(l.name, "denied")
			slog.Warn("rate limit exceeded",
				slog.String("limiter", l.name),
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after", secs))
			respond.Error(w, http.StatusTooManyRequests, "Rate limit exceeded, please try again later")
			return
		}

		metrics.RecordRateLimit(l.name, "allowed")
		next.ServeHTTP(w, r)
	})
}

// allow takes one token for ip. When none is left it reports how long until
// the next token.
func (l *IPRateLimiter) allow(ip string) (bool, int, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		every := l.cfg.Window / time.Duration(l.cfg.Limit)
		b = &bucket{lim: rate.NewLimiter(rate.Every(every), l.cfg.Limit)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int(b.lim.TokensAt(now)), 0
}

// Prune drops buckets idle for longer than IdleTTL and returns how many
// remain.
func (l *IPRateLimiter) Prune() int {
	cutoff := l.now().Add(-l.cfg.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
	return len(l.buckets)
}

// StartCleanup prunes idle buckets every interval until ctx is done.
func (l *IPRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := l.Prune()
				slog.Debug("rate limiter buckets pruned",
					slog.String("limiter", l.name),
					slog.Int("remaining", n))
			}
		}
	}()
}
