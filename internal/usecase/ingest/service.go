package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/repository"
)

var tracer = otel.Tracer("newsdesk/ingest")

// Scraper harvests articles from one source. Implementations return an empty
// list together with a non-nil error when the source could not be scraped.
type Scraper interface {
	Scrape(ctx context.Context, src entity.Source) ([]entity.Article, error)
}

// SourceRegistry narrows the configured sources for a run.
type SourceRegistry interface {
	Filter(names []string, category string) []entity.Source
}

// Enricher fills in missing article details. It never fails: articles it
// cannot enrich are returned unchanged.
type Enricher interface {
	Enrich(ctx context.Context, articles []entity.Article) []entity.Article
}

// Request narrows a run. Empty fields select everything.
type Request struct {
	Sources  []string `json:"sources,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Summary is the outcome of one run.
type Summary struct {
	// Scraped counts articles returned by scrapers before deduplication.
	Scraped  int
	Inserted int64
	// Errors lists the names of sources whose scraper reported an error.
	Errors   []string
	Duration time.Duration
}

// Service provides the ingestion use case.
type Service struct {
	registry SourceRegistry
	scrapers map[entity.SourceKind]Scraper
	repo     repository.ArticleRepository
	enricher Enricher
	cfg      Config
}

// NewService creates an ingestion Service. enricher may be nil to disable
// enrichment.
func NewService(
	registry SourceRegistry,
	scrapers map[entity.SourceKind]Scraper,
	repo repository.ArticleRepository,
	enricher Enricher,
	cfg Config,
) *Service {
	return &Service{
		registry: registry,
		scrapers: scrapers,
		repo:     repo,
		enricher: enricher,
		cfg:      cfg,
	}
}

// sourceResult is the outcome of scraping one source.
type sourceResult struct {
	source   entity.Source
	articles []entity.Article
	err      error
}

// Run performs one ingestion pass.
//
// deep_crawl and resource_directory sources run first, one at a time. The
// remaining sources run in fixed batches of BatchSize; a batch finishes before
// the next one starts. A failing source only adds its name to Summary.Errors.
// A non-nil error means the run was aborted; the returned Summary then holds
// what was processed so far.
func (s *Service) Run(ctx context.Context, req Request) (summary *Summary, err error) {
	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()

	logger := slog.Default()
	start := time.Now()
	summary = &Summary{Errors: []string{}}
	defer func() {
		summary.Duration = time.Since(start)
		outcome := "success"
		switch {
		case err != nil:
			outcome = "aborted"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case len(summary.Errors) > 0:
			outcome = "partial"
		}
		metrics.RecordIngestRun(outcome, summary.Duration)
		span.SetAttributes(
			attribute.Int("scraped", summary.Scraped),
			attribute.Int64("inserted", summary.Inserted),
			attribute.Int("errors", len(summary.Errors)),
		)
	}()

	sources := s.registry.Filter(req.Sources, req.Category)
	span.SetAttributes(attribute.Int("sources", len(sources)))
	if len(sources) == 0 {
		logger.Info("no sources selected",
			slog.Any("names", req.Sources),
			slog.String("category", req.Category))
		return summary, nil
	}

	var special, generic []entity.Source
	for _, src := range sources {
		if src.Kind.IsSpecial() {
			special = append(special, src)
		} else {
			generic = append(generic, src)
		}
	}
	logger.Info("ingestion run started",
		slog.Int("special_sources", len(special)),
		slog.Int("generic_sources", len(generic)),
		slog.Int("batch_size", s.cfg.BatchSize))

	results := make([]sourceResult, 0, len(sources))

	for _, src := range special {
		if err := ctx.Err(); err != nil {
			s.collect(results, summary)
			return summary, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}
		results = append(results, s.scrapeSource(ctx, src))
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for i := 0; i < len(generic); i += batchSize {
		if err := ctx.Err(); err != nil {
			s.collect(results, summary)
			return summary, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}
		batch := generic[i:min(i+batchSize, len(generic))]
		results = append(results, s.scrapeBatch(ctx, batch)...)
	}

	articles := s.collect(results, summary)
	logger.Info("scraping completed",
		slog.Int("scraped", summary.Scraped),
		slog.Int("unique", len(articles)),
		slog.Int("failed_sources", len(summary.Errors)))

	if s.enricher != nil && len(articles) > 0 {
		articles = s.dropStored(ctx, articles)
		if len(articles) > 0 {
			articles = s.enricher.Enrich(ctx, articles)
		}
	}

	summary.Inserted = s.store(ctx, articles)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrRunAborted, err)
	}

	if total, err := s.repo.Count(ctx); err == nil {
		metrics.UpdateArticlesTotal(total)
	}

	logger.Info("ingestion run completed",
		slog.Int("scraped", summary.Scraped),
		slog.Int64("inserted", summary.Inserted),
		slog.Any("errors", summary.Errors),
		slog.Duration("duration", time.Since(start)))
	return summary, nil
}

// scrapeBatch scrapes one batch concurrently and returns results in input order.
func (s *Service) scrapeBatch(ctx context.Context, batch []entity.Source) []sourceResult {
	out := make([]sourceResult, len(batch))
	var g errgroup.Group
	for i, src := range batch {
		g.Go(func() error {
			out[i] = s.scrapeSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// scrapeSource runs the scraper for src and contains its failures.
func (s *Service) scrapeSource(ctx context.Context, src entity.Source) (res sourceResult) {
	ctx, span := tracer.Start(ctx, "ingest.Source")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", src.Name),
		attribute.String("kind", string(src.Kind)),
	)

	res.source = src
	defer func() {
		if r := recover(); r != nil {
			res.articles = nil
			res.err = fmt.Errorf("%w: %v", ErrScraperPanic, r)
			slog.Error("scraper panicked",
				slog.String("source", src.Name),
				slog.Any("panic", r))
		}
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
		}
		span.SetAttributes(attribute.Int("articles", len(res.articles)))
	}()

	scraper, ok := s.scrapers[src.Kind]
	if !ok {
		res.err = fmt.Errorf("%w: %s", ErrNoScraper, src.Kind)
		slog.Error("no scraper for source",
			slog.String("source", src.Name),
			slog.String("kind", string(src.Kind)))
		return res
	}

	res.articles, res.err = scraper.Scrape(ctx, src)
	if res.err != nil {
		slog.Warn("source failed",
			slog.String("source", src.Name),
			slog.String("kind", string(src.Kind)),
			slog.Int("articles", len(res.articles)),
			slog.Any("error", res.err))
	}
	return res
}

// collect aggregates results into summary and returns the articles
// deduplicated by source URL, keeping the first occurrence.
func (s *Service) collect(results []sourceResult, summary *Summary) []entity.Article {
	seen := make(map[string]bool)
	var out []entity.Article
	summary.Scraped = 0
	summary.Errors = summary.Errors[:0]

	for _, r := range results {
		if r.err != nil {
			summary.Errors = append(summary.Errors, r.source.Name)
		}
		summary.Scraped += len(r.articles)
		for _, a := range r.articles {
			if seen[a.SourceURL] {
				continue
			}
			if err := a.Validate(); err != nil {
				slog.Debug("dropping invalid article",
					slog.String("source", r.source.Name),
					slog.String("url", a.SourceURL),
					slog.Any("error", err))
				continue
			}
			seen[a.SourceURL] = true
			out = append(out, a)
		}
	}
	return out
}

// dropStored removes articles whose URL is already stored so enrichment is
// not spent on rows the upsert would ignore. On lookup failure the input is
// returned unchanged.
func (s *Service) dropStored(ctx context.Context, articles []entity.Article) []entity.Article {
	urls := make([]string, len(articles))
	for i, a := range articles {
		urls[i] = a.SourceURL
	}
	exists, err := s.repo.ExistsByURLBatch(ctx, urls)
	if err != nil {
		slog.Warn("stored URL lookup failed, enriching all articles", slog.Any("error", err))
		return articles
	}
	out := articles[:0:0]
	for _, a := range articles {
		if !exists[a.SourceURL] {
			out = append(out, a)
		}
	}
	if skipped := len(articles) - len(out); skipped > 0 {
		slog.Debug("skipping already stored articles", slog.Int("count", skipped))
	}
	return out
}

// store writes articles in chunks. A failed chunk is logged and skipped.
func (s *Service) store(ctx context.Context, articles []entity.Article) int64 {
	chunk := s.cfg.UpsertChunk
	if chunk <= 0 {
		chunk = DefaultUpsertChunk
	}

	var inserted int64
	for i := 0; i < len(articles); i += chunk {
		if ctx.Err() != nil {
			break
		}
		part := articles[i:min(i+chunk, len(articles))]
		n, err := s.repo.UpsertIgnore(ctx, part)
		if err != nil {
			metrics.RecordUpsertChunkError()
			slog.Error("article chunk write failed",
				slog.Int("offset", i),
				slog.Int("size", len(part)),
				slog.Any("error", err))
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		inserted += n
	}
	metrics.RecordArticlesInserted(inserted)
	return inserted
}
