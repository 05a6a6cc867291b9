package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/usecase/ingest"
)

/* ─── ヘルパ ─── */

type fakeIngester struct {
	mu       sync.Mutex
	calls    int
	req      ingest.Request
	deadline time.Duration
	block    chan struct{}
	sum      *ingest.Summary
	err      error
}

func (f *fakeIngester) Run(ctx context.Context, req ingest.Request) (*ingest.Summary, error) {
	f.mu.Lock()
	f.calls++
	f.req = req
	if d, ok := ctx.Deadline(); ok {
		f.deadline = time.Until(d)
	}
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.sum, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testMetrics = NewWorkerMetrics()

/* ─── テスト ─── */

func TestJob_Run_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		sum    *ingest.Summary
		err    error
		status string
	}{
		{"success", &ingest.Summary{Scraped: 10, Inserted: 4, Errors: []string{}}, nil, "success"},
		{"partial", &ingest.Summary{Scraped: 10, Inserted: 2, Errors: []string{"BBC中文"}}, nil, "partial"},
		{"failure", &ingest.Summary{Inserted: 1}, ingest.ErrRunAborted, "failure"},
		{"nil summary", nil, nil, "success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(jobRunsTotal.WithLabelValues(tt.status))
			ing := &fakeIngester{sum: tt.sum, err: tt.err}
			job := NewJob(ing, time.Minute, testMetrics, quietLogger())

			assert.True(t, job.Run(context.Background()))
			assert.Equal(t, 1, ing.calls)
			assert.Equal(t, ingest.Request{}, ing.req, "scheduled runs cover every source")
			assert.Greater(t, ing.deadline, 50*time.Second)
			assert.Equal(t, before+1, testutil.ToFloat64(jobRunsTotal.WithLabelValues(tt.status)))
		})
	}
}

func TestJob_Run_InsertedCounter(t *testing.T) {
	before := testutil.ToFloat64(jobArticlesInserted)
	job := NewJob(&fakeIngester{sum: &ingest.Summary{Inserted: 7}}, time.Minute, testMetrics, quietLogger())

	job.Run(context.Background())

	assert.Equal(t, before+7, testutil.ToFloat64(jobArticlesInserted))
}

func TestJob_Run_SkipsOverlappingRun(t *testing.T) {
	ing := &fakeIngester{block: make(chan struct{}), sum: &ingest.Summary{}}
	job := NewJob(ing, time.Minute, testMetrics, quietLogger())
	skippedBefore := testutil.ToFloat64(jobRunsTotal.WithLabelValues("skipped"))

	started := make(chan bool)
	go func() { started <- job.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		ing.mu.Lock()
		defer ing.mu.Unlock()
		return ing.calls == 1
	}, time.Second, 5*time.Millisecond)

	// 実行中の再トリガはスキップされる
	assert.False(t, job.Run(context.Background()))
	assert.Equal(t, skippedBefore+1, testutil.ToFloat64(jobRunsTotal.WithLabelValues("skipped")))

	close(ing.block)
	assert.True(t, <-started)

	// 完了後は再び実行できる
	ing.block = nil
	assert.True(t, job.Run(context.Background()))
	assert.Equal(t, 2, ing.calls)
}

func TestJob_Run_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ing := &fakeIngester{err: errors.Join(ingest.ErrRunAborted, context.Canceled)}
	job := NewJob(ing, time.Minute, testMetrics, quietLogger())

	assert.True(t, job.Run(ctx))
	assert.Equal(t, 1, ing.calls)
}
