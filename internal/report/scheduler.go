package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/beanmart/salesmart/internal/core/reportjob"
)

// Scheduler runs every enabled report job once per calendar month, always for the
// month that has just closed. It only reads facts.
type Scheduler struct {
	interval time.Duration
	service  *Service
	jobs     []reportjob.Job
	archive  *Archive
	nowFn    func() time.Time
}

// NewScheduler creates a scheduler that checks for due jobs every interval.
func NewScheduler(interval time.Duration, service *Service, jobs []reportjob.Job, archive *Archive) *Scheduler {
	return &Scheduler{
		interval: interval,
		service:  service,
		jobs:     reportjob.Enabled(jobs),
		archive:  archive,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Start checks for due jobs immediately and then on every tick.
// Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting report scheduler",
		"interval", s.interval,
		"jobs", len(s.jobs),
	)

	s.RunDue(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunDue(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// RunDue runs every job whose archived result does not cover the previous month yet
// or was produced by an older job definition. Returns the number of jobs run.
// A failing job is logged and retried on the next tick.
func (s *Scheduler) RunDue(ctx context.Context) int {
	window := PreviousMonth(s.nowFn())
	ran := 0

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			slog.Info("[Scheduler] Run interrupted by context cancellation", "jobs_run", ran)
			return ran
		}
		if last, ok := s.archive.Get(job.Name); ok && last.covers(window, job.Fingerprint) {
			continue
		}

		rows, err := s.service.run(ctx, Params{
			Start:   window.Start,
			End:     window.End,
			Country: job.Country,
		}, triggerScheduler)
		if err != nil {
			slog.Error("[Scheduler] Report job failed",
				"job", job.Name,
				"window", window.String(),
				"error", err,
			)
			continue
		}

		s.archive.Put(Result{
			Job:         job.Name,
			Country:     job.Country,
			Fingerprint: job.Fingerprint,
			Window:      window,
			Rows:        rows,
			GeneratedAt: s.nowFn(),
		})
		ran++

		slog.Info("[Scheduler] Report job completed",
			"job", job.Name,
			"country", job.Country,
			"window", window.String(),
			"rows", len(rows),
		)
	}
	return ran
}

func (r Result) covers(w Window, fingerprint string) bool {
	return r.Window.Start.Equal(w.Start) && r.Window.End.Equal(w.End) && r.Fingerprint == fingerprint
}
