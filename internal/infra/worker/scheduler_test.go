package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/usecase/ingest"
)

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = "whenever"
	_, err := NewScheduler(context.Background(), &cfg, NewJob(&fakeIngester{}, time.Minute, testMetrics, quietLogger()), quietLogger())
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	job := NewJob(&fakeIngester{sum: &ingest.Summary{}}, time.Minute, testMetrics, quietLogger())

	s, err := NewScheduler(context.Background(), &cfg, job, quietLogger())
	require.NoError(t, err)

	s.Start()
	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	next := entries[0].Next
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, 0, next.Hour()%2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
