package firecrawl

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	envconfig "newsdesk/internal/pkg/config"
)

// DefaultBaseURL is the hosted vendor API.
const DefaultBaseURL = "https://api.firecrawl.dev"

// Config holds the vendor adapter configuration.
type Config struct {
	// APIKey is sent as a bearer token (FIRECRAWL_API_KEY).
	APIKey string
	// BaseURL is the API root (FIRECRAWL_BASE_URL).
	BaseURL string
	// Timeout bounds every single attempt (SCRAPE_TIMEOUT).
	Timeout time.Duration
	// StatusTimeout bounds a crawl status check (CRAWL_STATUS_TIMEOUT). Status
	// checks are never retried; the next poll attempt is the retry.
	StatusTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt (SCRAPE_MAX_RETRIES).
	MaxRetries int
	// RateLimit is the sustained request rate in requests per second (FIRECRAWL_RATE_LIMIT).
	RateLimit float64
	// Burst is the limiter burst size.
	Burst int
}

// DefaultConfig returns the vendor defaults: 30s per attempt, 2 retries,
// 2 requests per second, 5s per crawl status check.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       30 * time.Second,
		StatusTimeout: 5 * time.Second,
		MaxRetries:    2,
		RateLimit:     2,
		Burst:         3,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.StatusTimeout <= 0 {
		return errors.New("status timeout must be positive")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 5 {
		return fmt.Errorf("max retries must be between 0 and 5, got %d", c.MaxRetries)
	}
	if c.RateLimit <= 0 || c.Burst < 1 {
		return fmt.Errorf("rate limit must be positive with burst >= 1, got %v/%d", c.RateLimit, c.Burst)
	}
	return nil
}

// LoadConfigFromEnv reads the vendor configuration from the environment.
// Unparseable numbers fall back to the defaults with a warning. The
// assembled configuration is then validated as a whole.
func LoadConfigFromEnv() (Config, error) {
	d := DefaultConfig()
	cfg := Config{
		APIKey:        envconfig.LoadEnvString("FIRECRAWL_API_KEY", ""),
		BaseURL:       envconfig.LoadEnvString("FIRECRAWL_BASE_URL", d.BaseURL),
		Timeout:       envconfig.LoadEnvDuration("SCRAPE_TIMEOUT", d.Timeout, envconfig.ValidatePositiveDuration).Report(nil, nil, "scrape_timeout"),
		StatusTimeout: envconfig.LoadEnvDuration("CRAWL_STATUS_TIMEOUT", d.StatusTimeout, envconfig.ValidatePositiveDuration).Report(nil, nil, "crawl_status_timeout"),
		MaxRetries:    envconfig.LoadEnvInt("SCRAPE_MAX_RETRIES", d.MaxRetries, nil).Report(nil, nil, "scrape_max_retries"),
		RateLimit:     envconfig.LoadEnvFloat("FIRECRAWL_RATE_LIMIT", d.RateLimit, nil).Report(nil, nil, "firecrawl_rate_limit"),
		Burst:         d.Burst,
	}
	return cfg, cfg.Validate()
}
