package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"newsdesk/internal/pkg/config"
)

// Scheduler triggers a Job on the configured cron schedule.
type Scheduler struct {
	cron *cron.Cron
	cfg  *WorkerConfig
	log  *slog.Logger
}

// NewScheduler registers job under cfg.CronSchedule in cfg.Timezone.
// Runs started by the scheduler use ctx as their parent.
func NewScheduler(ctx context.Context, cfg *WorkerConfig, job *Job, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := config.ParseCronSchedule(cfg.CronSchedule)
	if err != nil {
		return nil, err
	}
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cron.DiscardLogger)),
	)
	c.Schedule(schedule, cron.FuncJob(func() { job.Run(ctx) }))
	return &Scheduler{cron: c, cfg: cfg, log: logger}, nil
}

// Start begins scheduling. It does not block.
func (s *Scheduler) Start() {
	s.cron.Start()
	entries := s.cron.Entries()
	next := "unknown"
	if len(entries) > 0 {
		next = entries[0].Next.Format("2006-01-02T15:04:05Z07:00")
	}
	s.log.Info("scheduler started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone),
		slog.String("next_run", next))
}

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running job: %w", ctx.Err())
	}
}
