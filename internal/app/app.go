// Package app assembles the ingestion and translation services from the
// environment. The API server, the worker and newsctl share it so that all
// three run the same pipeline with the same configuration.
package app

import (
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsdesk/internal/config"
	pgRepo "newsdesk/internal/infra/adapter/persistence/postgres"
	"newsdesk/internal/infra/fetcher"
	"newsdesk/internal/infra/firecrawl"
	"newsdesk/internal/infra/scraper"
	"newsdesk/internal/infra/translator"
	"newsdesk/internal/repository"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/usecase/ingest"
	"newsdesk/internal/usecase/translate"
)

// Ingestion is the assembled ingestion pipeline.
type Ingestion struct {
	// Service is nil when FIRECRAWL_API_KEY is not set.
	Service  *ingest.Service
	Registry *config.Registry
	Articles repository.ArticleRepository
	// Breakers are the article store breaker and, when configured, the vendor breaker.
	Breakers []*circuitbreaker.CircuitBreaker
}

// NewIngestion builds the pipeline on top of database. A missing vendor API
// key is not an error: the returned Ingestion then has a nil Service.
func NewIngestion(database *sql.DB, logger *slog.Logger) (*Ingestion, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	guarded := circuitbreaker.NewDB(database)
	out := &Ingestion{
		Registry: registry,
		Articles: pgRepo.NewArticleRepo(guarded),
		Breakers: []*circuitbreaker.CircuitBreaker{guarded.Breaker()},
	}

	vendorCfg, err := firecrawl.LoadConfigFromEnv()
	if errors.Is(err, firecrawl.ErrNotConfigured) {
		logger.Warn("FIRECRAWL_API_KEY not set, ingestion disabled")
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scraping vendor configuration: %w", err)
	}
	vendor := firecrawl.NewClient(vendorCfg, fetcher.NewClient(NewHTTPClient(vendorCfg.Timeout+5*time.Second)))

	crawlCfg := scraper.LoadCrawlConfigFromEnv()
	if err := crawlCfg.Validate(); err != nil {
		return nil, fmt.Errorf("crawl configuration: %w", err)
	}
	scrapers := scraper.NewFactory(vendor, NewHTTPClient(30*time.Second), crawlCfg).CreateScrapers()

	var enricher ingest.Enricher
	enrichCfg, err := fetcher.LoadConfigFromEnv()
	switch {
	case err != nil:
		logger.Warn("content enrichment disabled due to configuration error", slog.Any("error", err))
	case enrichCfg.Enabled:
		enricher = fetcher.NewEnricher(enrichCfg)
		logger.Info("content enrichment enabled",
			slog.Int("parallelism", enrichCfg.Parallelism),
			slog.Duration("timeout", enrichCfg.Timeout))
	}

	ingestCfg := ingest.LoadConfigFromEnv()
	out.Service = ingest.NewService(registry, scrapers, out.Articles, enricher, ingestCfg)
	out.Breakers = append(out.Breakers, vendor.Breaker())

	logger.Info("ingestion pipeline ready",
		slog.Int("sources", len(registry.All())),
		slog.Int("batch_size", ingestCfg.BatchSize),
		slog.Int("upsert_chunk", ingestCfg.UpsertChunk),
		slog.Int("crawl_poll_attempts", crawlCfg.PollAttempts))
	return out, nil
}

// Translation is the assembled translation service.
type Translation struct {
	Service *translate.Service
	Backend string
	Breaker *circuitbreaker.CircuitBreaker
}

// NewTranslation builds the backend selected by TRANSLATOR_TYPE.
func NewTranslation(logger *slog.Logger) (*Translation, error) {
	cfg, err := config.LoadTranslatorConfig()
	if err != nil {
		return nil, fmt.Errorf("translator configuration: %w", err)
	}
	backend, err := translator.New(cfg, NewHTTPClient(cfg.Timeout+5*time.Second))
	if err != nil {
		return nil, err
	}
	out := &Translation{Service: translate.NewService(backend), Backend: backend.Name()}
	if b, ok := backend.(interface {
		Breaker() *circuitbreaker.CircuitBreaker
	}); ok {
		out.Breaker = b.Breaker()
	}
	logger.Info("translation backend ready",
		slog.String("backend", out.Backend),
		slog.Duration("timeout", cfg.Timeout))
	return out, nil
}

// NewHTTPClient returns a client with TLS 1.2+ and the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}
