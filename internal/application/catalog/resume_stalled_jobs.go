package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
)

type stalledJobLister interface {
	ListStalled(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SyncJob, error)
}

type ResumeStalledJobsConfig struct {
	StaleAfter time.Duration
	Interval   time.Duration
	Limit      int
	Now        func() time.Time
}

// ResumeStalledJobs re-schedules non-terminal jobs whose row has not moved
// for StaleAfter. A lost continuation otherwise leaves a job processing
// forever.
type ResumeStalledJobs struct {
	jobs      stalledJobLister
	scheduler batchScheduler
	cfg       ResumeStalledJobsConfig
	logger    zerolog.Logger

	once sync.Once
}

func NewResumeStalledJobs(jobs stalledJobLister, scheduler batchScheduler, cfg ResumeStalledJobsConfig, logger zerolog.Logger) *ResumeStalledJobs {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ResumeStalledJobs{
		jobs:      jobs,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger.With().Str("component", "resumer").Logger(),
	}
}

func (r *ResumeStalledJobs) Start(ctx context.Context) {
	r.once.Do(func() {
		go r.loop(ctx)
	})
}

func (r *ResumeStalledJobs) loop(ctx context.Context) {
	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("resume stalled jobs failed")
		}
		if !sleepWithContext(ctx, r.cfg.Interval) {
			return
		}
	}
}

// RunOnce schedules one batch for every stalled job and returns how many
// were scheduled.
func (r *ResumeStalledJobs) RunOnce(ctx context.Context) (int, error) {
	jobs, err := r.jobs.ListStalled(ctx, r.cfg.Now().Add(-r.cfg.StaleAfter), r.cfg.Limit)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResumeJobs, err)
	}

	scheduled := 0
	for _, job := range jobs {
		if job.Status.IsTerminal() {
			continue
		}
		if err := r.scheduler.ScheduleBatch(ctx, job.ID); err != nil {
			r.logger.Warn().Err(err).Str("job_id", job.ID).Msg("re-schedule stalled job failed")
			continue
		}
		scheduled++
		r.logger.Info().Str("job_id", job.ID).Time("updated_at", job.UpdatedAt).Msg("stalled sync job re-scheduled")
	}
	return scheduled, nil
}
