package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/repository"
	"newsdesk/internal/usecase/ingest"
)

/* ───────── モック実装 ───────── */

// stubRegistry は名前とカテゴリで絞り込むだけのレジストリ
type stubRegistry struct {
	sources []entity.Source
}

func (r *stubRegistry) Filter(names []string, category string) []entity.Source {
	var out []entity.Source
	for _, s := range r.sources {
		if len(names) > 0 {
			found := false
			for _, n := range names {
				if n == s.Name {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if category != "" && string(s.Category) != category {
			continue
		}
		out = append(out, s)
	}
	return out
}

// memRepo は source_url をキーにしたインメモリの記事ストア
type memRepo struct {
	mu        sync.Mutex
	byURL     map[string]entity.Article
	calls     int
	failCalls map[int]error
}

func newMemRepo() *memRepo {
	return &memRepo{byURL: make(map[string]entity.Article), failCalls: make(map[int]error)}
}

func (m *memRepo) UpsertIgnore(_ context.Context, articles []entity.Article) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.failCalls[m.calls]; ok {
		return 0, err
	}
	var n int64
	for _, a := range articles {
		if _, ok := m.byURL[a.SourceURL]; ok {
			continue
		}
		m.byURL[a.SourceURL] = a
		n++
	}
	return n, nil
}

func (m *memRepo) ListRecent(_ context.Context, _ repository.ArticleFilter) ([]entity.Article, error) {
	return nil, nil
}

func (m *memRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byURL)), nil
}

func (m *memRepo) ExistsByURLBatch(_ context.Context, urls []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		_, out[u] = m.byURL[u]
	}
	return out, nil
}

// stubScraper はソース名ごとに記事かエラーを返す
type stubScraper struct {
	delay    time.Duration
	failing  map[string]bool
	panicky  map[string]bool
	perSrc   int
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu    sync.Mutex
	order []string
}

func (s *stubScraper) Scrape(ctx context.Context, src entity.Source) ([]entity.Article, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}

	s.mu.Lock()
	s.order = append(s.order, src.Name)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicky[src.Name] {
		panic("boom")
	}
	if s.failing[src.Name] {
		return []entity.Article{}, errors.New("vendor unavailable")
	}

	n := s.perSrc
	if n == 0 {
		n = 2
	}
	out := make([]entity.Article, 0, n)
	now := time.Now()
	for i := 0; i < n; i++ {
		out = append(out, entity.Article{
			Title:       fmt.Sprintf("%s headline number %d", src.Name, i),
			SourceURL:   fmt.Sprintf("%s/articles/%d", src.URL, i),
			SourceName:  src.Name,
			Category:    src.Category,
			PublishedAt: &now,
			FetchedAt:   now,
		})
	}
	return out, nil
}

// countingEnricher は呼び出し回数と受け取った記事数を数える
type countingEnricher struct {
	calls atomic.Int32
	seen  atomic.Int32
}

func (e *countingEnricher) Enrich(_ context.Context, articles []entity.Article) []entity.Article {
	e.calls.Add(1)
	e.seen.Add(int32(len(articles)))
	out := make([]entity.Article, len(articles))
	copy(out, articles)
	for i := range out {
		out[i].Summary = "enriched"
	}
	return out
}

/* ───────── ヘルパ ───────── */

func genericSources(n int) []entity.Source {
	out := make([]entity.Source, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entity.Source{
			Name:     fmt.Sprintf("src-%d", i),
			URL:      fmt.Sprintf("https://site%d.example.com", i),
			Category: entity.CategoryWorld,
			Kind:     entity.KindGeneric,
		})
	}
	return out
}

func newService(reg *stubRegistry, sc ingest.Scraper, repo repository.ArticleRepository, cfg ingest.Config) *ingest.Service {
	scrapers := map[entity.SourceKind]ingest.Scraper{
		entity.KindGeneric:           sc,
		entity.KindDeepCrawl:         sc,
		entity.KindResourceDirectory: sc,
		entity.KindFeed:              sc,
	}
	return ingest.NewService(reg, scrapers, repo, nil, cfg)
}

/* ───────── テスト ───────── */

func TestService_Run_PartialFailure(t *testing.T) {
	reg := &stubRegistry{sources: genericSources(5)}
	sc := &stubScraper{failing: map[string]bool{"src-1": true, "src-3": true}}
	repo := newMemRepo()

	summary, err := newService(reg, sc, repo, ingest.DefaultConfig()).Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"src-1", "src-3"}, summary.Errors)
	assert.Equal(t, 6, summary.Scraped)
	assert.Equal(t, int64(6), summary.Inserted)
	assert.Positive(t, summary.Duration)
}

func TestService_Run_Idempotent(t *testing.T) {
	reg := &stubRegistry{sources: genericSources(4)}
	repo := newMemRepo()
	svc := newService(reg, &stubScraper{}, repo, ingest.DefaultConfig())

	first, err := svc.Run(context.Background(), ingest.Request{})
	require.NoError(t, err)
	assert.Equal(t, int64(8), first.Inserted)

	second, err := svc.Run(context.Background(), ingest.Request{})
	require.NoError(t, err)
	assert.Equal(t, 8, second.Scraped)
	assert.Zero(t, second.Inserted, "re-ingestion inserts nothing")
}

func TestService_Run_BatchConcurrencyBound(t *testing.T) {
	for _, batch := range []int{2, 3} {
		t.Run(fmt.Sprintf("batch=%d", batch), func(t *testing.T) {
			reg := &stubRegistry{sources: genericSources(8)}
			sc := &stubScraper{delay: 20 * time.Millisecond}
			cfg := ingest.Config{BatchSize: batch, UpsertChunk: 50}

			_, err := newService(reg, sc, newMemRepo(), cfg).Run(context.Background(), ingest.Request{})
			require.NoError(t, err)

			assert.LessOrEqual(t, int(sc.maxSeen.Load()), batch)
			assert.Len(t, sc.order, 8)
		})
	}
}

func TestService_Run_SpecialSourcesFirstAndSequential(t *testing.T) {
	sources := genericSources(3)
	sources = append(sources,
		entity.Source{Name: "crawl-a", URL: "https://crawl-a.example.com", Category: entity.CategoryCNMD, Kind: entity.KindDeepCrawl},
		entity.Source{Name: "dir-b", URL: "https://dir-b.example.com", Category: entity.CategoryWeiruan, Kind: entity.KindResourceDirectory},
	)
	reg := &stubRegistry{sources: sources}

	var (
		mu    sync.Mutex
		order []string
	)
	special := &recordingScraper{fn: func(src entity.Source) {
		mu.Lock()
		order = append(order, src.Name)
		mu.Unlock()
	}}
	generic := &recordingScraper{fn: func(src entity.Source) {
		mu.Lock()
		order = append(order, src.Name)
		mu.Unlock()
	}}
	scrapers := map[entity.SourceKind]ingest.Scraper{
		entity.KindGeneric:           generic,
		entity.KindDeepCrawl:         special,
		entity.KindResourceDirectory: special,
	}

	_, err := ingest.NewService(reg, scrapers, newMemRepo(), nil, ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	require.Len(t, order, 5)
	assert.Equal(t, []string{"crawl-a", "dir-b"}, order[:2])
	assert.ElementsMatch(t, []string{"src-0", "src-1", "src-2"}, order[2:])
}

// recordingScraper は呼び出し順を記録するだけ
type recordingScraper struct {
	fn func(entity.Source)
}

func (r *recordingScraper) Scrape(_ context.Context, src entity.Source) ([]entity.Article, error) {
	r.fn(src)
	return []entity.Article{}, nil
}

func TestService_Run_Narrowing(t *testing.T) {
	sources := genericSources(3)
	sources[2].Category = entity.CategoryTechnology
	reg := &stubRegistry{sources: sources}
	sc := &stubScraper{}

	summary, err := newService(reg, sc, newMemRepo(), ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{Sources: []string{"src-0", "src-2"}, Category: "technology"})
	require.NoError(t, err)

	assert.Equal(t, []string{"src-2"}, sc.order)
	assert.Equal(t, 2, summary.Scraped)
}

func TestService_Run_NoSources(t *testing.T) {
	repo := newMemRepo()
	summary, err := newService(&stubRegistry{}, &stubScraper{}, repo, ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{Category: "korea"})

	require.NoError(t, err)
	assert.Zero(t, summary.Scraped)
	assert.Zero(t, summary.Inserted)
	assert.Empty(t, summary.Errors)
	assert.Zero(t, repo.calls)
}

func TestService_Run_DedupesAcrossSources(t *testing.T) {
	sources := genericSources(2)
	sources[1].URL = sources[0].URL // 同じURLを返す
	reg := &stubRegistry{sources: sources}

	summary, err := newService(reg, &stubScraper{}, newMemRepo(), ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Scraped)
	assert.Equal(t, int64(2), summary.Inserted)
}

func TestService_Run_ChunkErrorDoesNotHaltRemainingChunks(t *testing.T) {
	reg := &stubRegistry{sources: genericSources(3)} // 6 articles
	repo := newMemRepo()
	repo.failCalls[2] = errors.New("connection reset")
	cfg := ingest.Config{BatchSize: 3, UpsertChunk: 2}

	summary, err := newService(reg, &stubScraper{}, repo, cfg).Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, int64(4), summary.Inserted)
	assert.Empty(t, summary.Errors)
}

func TestService_Run_MissingScraperAndPanic(t *testing.T) {
	sources := genericSources(2)
	sources = append(sources, entity.Source{
		Name: "feed-x", URL: "https://feed.example.com/rss", Category: entity.CategoryWorld, Kind: entity.KindFeed,
	})
	reg := &stubRegistry{sources: sources}
	sc := &stubScraper{panicky: map[string]bool{"src-0": true}}
	scrapers := map[entity.SourceKind]ingest.Scraper{entity.KindGeneric: sc}

	summary, err := ingest.NewService(reg, scrapers, newMemRepo(), nil, ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"src-0", "feed-x"}, summary.Errors)
	assert.Equal(t, int64(2), summary.Inserted)
}

func TestService_Run_Enrichment(t *testing.T) {
	reg := &stubRegistry{sources: genericSources(1)}
	repo := newMemRepo()
	enricher := &countingEnricher{}
	scrapers := map[entity.SourceKind]ingest.Scraper{entity.KindGeneric: &stubScraper{}}

	_, err := ingest.NewService(reg, scrapers, repo, enricher, ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), enricher.calls.Load())
	for _, a := range repo.byURL {
		assert.Equal(t, "enriched", a.Summary)
	}
}

func TestService_Run_EnrichmentSkipsStored(t *testing.T) {
	src := genericSources(1)[0]
	reg := &stubRegistry{sources: []entity.Source{src}}
	repo := newMemRepo()
	stored := entity.Article{Title: "already stored", SourceURL: src.URL + "/articles/0"}
	repo.byURL[stored.SourceURL] = stored
	enricher := &countingEnricher{}
	scrapers := map[entity.SourceKind]ingest.Scraper{entity.KindGeneric: &stubScraper{}}

	summary, err := ingest.NewService(reg, scrapers, repo, enricher, ingest.DefaultConfig()).
		Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Scraped)
	assert.Equal(t, int64(1), summary.Inserted)
	assert.Equal(t, int32(1), enricher.seen.Load())
	assert.Equal(t, "already stored", repo.byURL[stored.SourceURL].Title)
}

func TestService_Run_CanceledContext(t *testing.T) {
	reg := &stubRegistry{sources: genericSources(3)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newService(reg, &stubScraper{}, newMemRepo(), ingest.DefaultConfig()).Run(ctx, ingest.Request{})

	assert.ErrorIs(t, err, ingest.ErrRunAborted)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Inserted)
}

// cancelingScraper は 1 件目のスクレイプ後に ctx をキャンセルする
type cancelingScraper struct {
	stubScraper
	cancel context.CancelFunc
}

func (c *cancelingScraper) Scrape(ctx context.Context, src entity.Source) ([]entity.Article, error) {
	defer c.cancel()
	return c.stubScraper.Scrape(ctx, src)
}

func TestService_Run_CanceledDuringSpecialSources(t *testing.T) {
	reg := &stubRegistry{sources: []entity.Source{
		{Name: "crawl-a", URL: "https://crawl-a.example.com", Category: entity.CategoryCNMD, Kind: entity.KindDeepCrawl},
		{Name: "dir-b", URL: "https://dir-b.example.com", Category: entity.CategoryWeiruan, Kind: entity.KindResourceDirectory},
		{Name: "src-0", URL: "https://site0.example.com", Category: entity.CategoryWorld, Kind: entity.KindGeneric},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sc := &cancelingScraper{cancel: cancel}

	summary, err := newService(reg, sc, newMemRepo(), ingest.DefaultConfig()).Run(ctx, ingest.Request{})

	assert.ErrorIs(t, err, ingest.ErrRunAborted)
	require.NotNil(t, summary)
	assert.Equal(t, []string{"crawl-a"}, sc.order)
	assert.Equal(t, 2, summary.Scraped, "finished sources are reported")
	assert.Zero(t, summary.Inserted)
}

func TestService_Run_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reg := &stubRegistry{sources: genericSources(2)}
	_, err := newService(reg, &stubScraper{}, newMemRepo(), ingest.DefaultConfig()).Run(context.Background(), ingest.Request{})
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range sr.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["ingest.Run"])
	assert.Equal(t, 2, names["ingest.Source"])
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, ingest.DefaultConfig().Validate())
	assert.NoError(t, ingest.Config{BatchSize: 2, UpsertChunk: 10}.Validate())
	assert.Error(t, ingest.Config{BatchSize: 4, UpsertChunk: 50}.Validate())
	assert.Error(t, ingest.Config{BatchSize: 1, UpsertChunk: 50}.Validate())
	assert.Error(t, ingest.Config{BatchSize: 3, UpsertChunk: 0}.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("INGEST_BATCH_SIZE", "2")
	t.Setenv("INGEST_UPSERT_CHUNK", "abc")

	cfg := ingest.LoadConfigFromEnv()
	assert.Equal(t, 2, cfg.BatchSize)
	assert.Equal(t, ingest.DefaultUpsertChunk, cfg.UpsertChunk)

	t.Setenv("INGEST_BATCH_SIZE", "8")
	assert.Equal(t, ingest.DefaultBatchSize, ingest.LoadConfigFromEnv().BatchSize)
}
