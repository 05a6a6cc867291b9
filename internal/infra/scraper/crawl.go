package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"newsdesk/internal/content"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/firecrawl"
	"newsdesk/internal/observability/metrics"
	pkgconfig "newsdesk/internal/pkg/config"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Crawl failure causes. They are reported as fallback reasons and wrapped into
// the error returned when the fallback fails too.
var (
	ErrCrawlFailed   = errors.New("crawl job failed")
	ErrCrawlTimedOut = errors.New("crawl job did not complete in time")
	ErrCrawlEmpty    = errors.New("crawl job returned no pages")
)

// CrawlConfig bounds the map and crawl phases of a deep crawl.
type CrawlConfig struct {
	MapLimit     int
	PageLimit    int
	MaxDepth     int
	PollInterval time.Duration
	PollAttempts int
}

// DefaultCrawlConfig returns the production crawl bounds.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MapLimit:     100,
		PageLimit:    20,
		MaxDepth:     2,
		PollInterval: 3 * time.Second,
		PollAttempts: 10,
	}
}

// LoadCrawlConfigFromEnv reads CRAWL_MAP_LIMIT, CRAWL_PAGE_LIMIT,
// CRAWL_MAX_DEPTH, CRAWL_POLL_INTERVAL and CRAWL_POLL_ATTEMPTS. Invalid
// values fall back to the defaults with a warning.
func LoadCrawlConfigFromEnv() CrawlConfig {
	d := DefaultCrawlConfig()
	m := pkgconfig.NewConfigMetrics("crawl")
	defer m.RecordLoadTimestamp()

	between := func(lo, hi int) func(int) error {
		return func(v int) error { return pkgconfig.ValidateIntRange(v, lo, hi) }
	}
	return CrawlConfig{
		MapLimit:  pkgconfig.LoadEnvInt("CRAWL_MAP_LIMIT", d.MapLimit, between(1, 5000)).Report(nil, m, "map_limit"),
		PageLimit: pkgconfig.LoadEnvInt("CRAWL_PAGE_LIMIT", d.PageLimit, between(1, 200)).Report(nil, m, "page_limit"),
		MaxDepth:  pkgconfig.LoadEnvInt("CRAWL_MAX_DEPTH", d.MaxDepth, between(1, 10)).Report(nil, m, "max_depth"),
		PollInterval: pkgconfig.LoadEnvDuration("CRAWL_POLL_INTERVAL", d.PollInterval, func(v time.Duration) error {
			return pkgconfig.ValidateDuration(v, 100*time.Millisecond, time.Minute)
		}).Report(nil, m, "poll_interval"),
		PollAttempts: pkgconfig.LoadEnvInt("CRAWL_POLL_ATTEMPTS", d.PollAttempts, between(1, 100)).Report(nil, m, "poll_attempts"),
	}
}

// Validate checks the crawl bounds.
func (c CrawlConfig) Validate() error {
	if c.MapLimit <= 0 {
		return fmt.Errorf("map limit must be positive, got %d", c.MapLimit)
	}
	if c.PageLimit <= 0 {
		return fmt.Errorf("page limit must be positive, got %d", c.PageLimit)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.PollAttempts <= 0 {
		return fmt.Errorf("poll attempts must be positive, got %d", c.PollAttempts)
	}
	return nil
}

// DeepCrawler scrapes a site whose root page lists too little on its own.
//
// The flow is map → article-candidate filter → crawl submit → poll → extract.
// Any failure before extraction falls back to a single-page scrape of the
// site root with the fallback extractor.
type DeepCrawler struct {
	vendor            CrawlVendor
	fallback          *PageScraper
	pageExtractor     content.ArticleExtractor
	fallbackExtractor content.ArticleExtractor
	cfg               CrawlConfig
	now               func() time.Time
}

// NewDeepCrawler creates a crawler for deep_crawl sources: crawled pages go
// through the crawl-page extractor, the fallback through the heading extractor.
func NewDeepCrawler(vendor CrawlVendor, cfg CrawlConfig) *DeepCrawler {
	return &DeepCrawler{
		vendor:            vendor,
		fallback:          NewPageScraper(vendor, nil),
		pageExtractor:     content.NewCrawlPageExtractor(),
		fallbackExtractor: content.NewHeadingExtractor(),
		cfg:               cfg,
		now:               time.Now,
	}
}

// NewResourceDirectoryCrawler creates a crawler for resource_directory sources.
// Crawled pages and the fallback page both use the resource directory extractor.
func NewResourceDirectoryCrawler(vendor CrawlVendor, cfg CrawlConfig) *DeepCrawler {
	ext := content.NewResourceDirectoryExtractor()
	return &DeepCrawler{
		vendor:            vendor,
		fallback:          NewPageScraper(vendor, ext),
		pageExtractor:     ext,
		fallbackExtractor: ext,
		cfg:               cfg,
		now:               time.Now,
	}
}

// Scrape runs the deep crawl for src.
func (d *DeepCrawler) Scrape(ctx context.Context, src entity.Source) (articles []entity.Article, err error) {
	ctx, span := otel.Tracer("newsdesk/scraper").Start(ctx, "scraper.DeepCrawl")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", src.Name),
		attribute.String("kind", string(src.Kind)),
	)

	start := time.Now()
	defer func() {
		metrics.RecordSourceScrape(src.Name, string(src.Kind), len(articles), time.Since(start), err)
	}()

	articles, err = d.crawl(ctx, src)
	if err == nil {
		return articles, nil
	}
	if ctx.Err() != nil {
		return []entity.Article{}, ctx.Err()
	}

	reason := fallbackReason(err)
	metrics.RecordCrawlFallback(src.Name, reason)
	root := rootURL(src.URL)
	slog.Warn("deep crawl failed, falling back to single page",
		slog.String("source", src.Name),
		slog.String("reason", reason),
		slog.String("url", root),
		slog.Any("error", err))

	articles, ferr := d.fallback.ScrapeWith(ctx, src, root, d.fallbackExtractor)
	if ferr != nil {
		return []entity.Article{}, fmt.Errorf("%w (after crawl error: %v)", ferr, err)
	}
	return articles, nil
}

func (d *DeepCrawler) crawl(ctx context.Context, src entity.Source) ([]entity.Article, error) {
	runID := uuid.NewString()
	logger := slog.Default().With(
		slog.String("source", src.Name),
		slog.String("crawl_run", runID))

	links, err := d.vendor.Map(ctx, src.URL, d.cfg.MapLimit)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	candidates := content.FilterArticleURLs(links)
	logger.Info("site mapped",
		slog.Int("links", len(links)),
		slog.Int("candidates", len(candidates)))

	jobID, err := d.vendor.SubmitCrawl(ctx, firecrawl.CrawlRequest{
		URL:          src.URL,
		Limit:        d.cfg.PageLimit,
		MaxDepth:     d.cfg.MaxDepth,
		IncludePaths: includePaths(candidates),
	})
	if err != nil {
		return nil, fmt.Errorf("submit crawl: %w", err)
	}
	metrics.RecordCrawlJob(string(entity.CrawlSubmitted))

	job := entity.CrawlJob{ID: jobID, State: entity.CrawlSubmitted}
	pages, err := d.poll(ctx, &job, logger)
	metrics.RecordCrawlJob(string(job.State))
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrCrawlEmpty
	}

	fetchedAt := d.now()
	var all []content.Candidate
	for _, p := range pages {
		all = append(all, d.pageExtractor.Extract(p, src)...)
	}
	all = content.DedupeByTitle(all)

	articles := make([]entity.Article, 0, len(all))
	for _, c := range all {
		articles = append(articles, c.ToArticle(src, fetchedAt))
	}
	logger.Info("deep crawl completed",
		slog.Int("pages", len(pages)),
		slog.Int("articles", len(articles)),
		slog.Int("attempts", job.Attempts))
	return articles, nil
}

// pollSlack is the allowance on top of PollAttempts × PollInterval for the
// status requests themselves.
var pollSlack = 5 * time.Second

// poll waits PollInterval before each status check. A failed status request
// still consumes an attempt. The whole loop is bounded by the poll budget, so
// a slow status endpoint cannot stretch it.
func (d *DeepCrawler) poll(ctx context.Context, job *entity.CrawlJob, logger *slog.Logger) ([]content.Page, error) {
	budget := time.Duration(d.cfg.PollAttempts)*d.cfg.PollInterval + pollSlack
	pollCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	timer := time.NewTimer(d.cfg.PollInterval)
	defer timer.Stop()

	for job.Attempts < d.cfg.PollAttempts {
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				job.State = entity.CrawlFailed
				return nil, ctx.Err()
			}
			job.State = entity.CrawlTimedOut
			return nil, fmt.Errorf("%w: job %s exceeded %v after %d attempts", ErrCrawlTimedOut, job.ID, budget, job.Attempts)
		case <-timer.C:
		}
		job.Attempts++

		status, err := d.vendor.CrawlStatus(pollCtx, job.ID)
		if err != nil {
			logger.Warn("crawl status check failed",
				slog.String("job_id", job.ID),
				slog.Int("attempt", job.Attempts),
				slog.Any("error", err))
			timer.Reset(d.cfg.PollInterval)
			continue
		}

		job.State = firecrawl.MapStatus(status.Status)
		switch job.State {
		case entity.CrawlCompleted:
			return status.Pages, nil
		case entity.CrawlFailed:
			return nil, fmt.Errorf("%w: job %s status %q", ErrCrawlFailed, job.ID, status.Status)
		}
		logger.Debug("crawl in progress",
			slog.String("job_id", job.ID),
			slog.Int("completed", status.Completed),
			slog.Int("total", status.Total))
		timer.Reset(d.cfg.PollInterval)
	}

	job.State = entity.CrawlTimedOut
	return nil, fmt.Errorf("%w: job %s after %d attempts", ErrCrawlTimedOut, job.ID, job.Attempts)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrCrawlTimedOut):
		return "timed_out"
	case errors.Is(err, ErrCrawlFailed):
		return "failed"
	case errors.Is(err, ErrCrawlEmpty):
		return "empty"
	case errors.Is(err, firecrawl.ErrNoJobID):
		return "no_job_id"
	default:
		return "vendor_error"
	}
}

// rootURL reduces rawURL to scheme://host/.
func rootURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host + "/"
}

// includePaths derives crawl path patterns from the first path segment of each
// candidate URL. No candidates means no restriction.
func includePaths(candidates []string) []string {
	seen := make(map[string]struct{})
	for _, c := range candidates {
		u, err := url.Parse(c)
		if err != nil {
			continue
		}
		seg := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)[0]
		if seg == "" {
			continue
		}
		seen["^/"+regexp.QuoteMeta(seg)+"/.*"] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
