package fetcher

import (
	"fmt"
	"time"

	envconfig "newsdesk/internal/pkg/config"
)

// ContentFetchConfig controls optional article-page enrichment.
//
// Security settings:
//   - DenyPrivateIPs: blocks URLs resolving to private addresses (SSRF)
//   - MaxBodySize: bounds memory per page
//   - MaxRedirects: bounds redirect chains; every hop is re-validated
//   - Timeout: bounds every page fetch
type ContentFetchConfig struct {
	// Enabled turns enrichment on. Listing pages rarely carry summaries, so
	// enrichment fills them from the article page itself.
	// Default: false
	Enabled bool

	// Timeout is the maximum duration for a single page fetch.
	// Default: 10s
	Timeout time.Duration

	// Parallelism bounds concurrent page fetches.
	// Default: 5
	Parallelism int

	// MaxBodySize is the maximum HTML size in bytes.
	// Default: 5MB
	MaxBodySize int64

	// MaxRedirects is the maximum number of redirects to follow.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs blocks private, loopback and link-local targets.
	// Default: true
	DenyPrivateIPs bool

	// SummaryLength caps a summary derived from the article text, in runes.
	// Default: 200
	SummaryLength int

	// ContentLength caps the stored content excerpt, in runes.
	// Default: 1000
	ContentLength int
}

// DefaultConfig returns the default enrichment configuration.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Enabled:        false,
		Timeout:        10 * time.Second,
		Parallelism:    5,
		MaxBodySize:    5 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		SummaryLength:  200,
		ContentLength:  1000,
	}
}

// Validate checks that the configuration is usable.
func (c *ContentFetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Parallelism < 1 || c.Parallelism > 20 {
		return fmt.Errorf("parallelism must be between 1 and 20, got %d", c.Parallelism)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 50*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 50MB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	if c.SummaryLength < 1 || c.ContentLength < c.SummaryLength {
		return fmt.Errorf("content length (%d) must be >= summary length (%d) > 0", c.ContentLength, c.SummaryLength)
	}
	return nil
}

// LoadConfigFromEnv loads the enrichment configuration.
//
// Environment variables:
//   - CONTENT_FETCH_ENABLED (default: false)
//   - CONTENT_FETCH_TIMEOUT (default: 10s)
//   - CONTENT_FETCH_PARALLELISM (default: 5)
//   - CONTENT_FETCH_MAX_BODY_SIZE (default: 5242880)
//   - CONTENT_FETCH_MAX_REDIRECTS (default: 5)
//   - CONTENT_FETCH_DENY_PRIVATE_IPS (default: true)
//
// Unparseable values fall back to defaults with a warning; an out-of-range
// result is returned as an error.
func LoadConfigFromEnv() (ContentFetchConfig, error) {
	d := DefaultConfig()
	cfg := ContentFetchConfig{
		Enabled:        envconfig.LoadEnvBool("CONTENT_FETCH_ENABLED", d.Enabled).Report(nil, nil, "content_fetch_enabled"),
		Timeout:        envconfig.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", d.Timeout, nil).Report(nil, nil, "content_fetch_timeout"),
		Parallelism:    envconfig.LoadEnvInt("CONTENT_FETCH_PARALLELISM", d.Parallelism, nil).Report(nil, nil, "content_fetch_parallelism"),
		MaxBodySize:    int64(envconfig.LoadEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(d.MaxBodySize), nil).Report(nil, nil, "content_fetch_max_body_size")),
		MaxRedirects:   envconfig.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", d.MaxRedirects, nil).Report(nil, nil, "content_fetch_max_redirects"),
		DenyPrivateIPs: envconfig.LoadEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", d.DenyPrivateIPs).Report(nil, nil, "content_fetch_deny_private_ips"),
		SummaryLength:  d.SummaryLength,
		ContentLength:  d.ContentLength,
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
