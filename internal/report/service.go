package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/beanmart/salesmart/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	triggerHTTP      = "http"
	triggerScheduler = "scheduler"
)

// FactLister is the read side of the fact store the report needs.
type FactLister interface {
	ListFacts(ctx context.Context, filter storage.FactFilter) ([]v1.FactRow, error)
}

// Service runs customer reports against the live fact store.
// Identical concurrent requests share a single store read.
type Service struct {
	facts FactLister
	group singleflight.Group
}

func NewService(facts FactLister) *Service {
	return &Service{facts: facts}
}

// Generate runs the report for an on-demand request.
func (s *Service) Generate(ctx context.Context, p Params) ([]Row, error) {
	return s.run(ctx, p, triggerHTTP)
}

func (s *Service) run(ctx context.Context, p Params, trigger string) ([]Row, error) {
	if err := p.Validate(); err != nil {
		metrics.ReportRunsTotal.WithLabelValues(trigger, "invalid").Inc()
		return nil, err
	}

	start := time.Now()
	// The shared read outlives any single caller: one caller giving up must not fail the
	// others waiting on the same key.
	readCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(p.key(), func() (interface{}, error) {
		facts, err := s.facts.ListFacts(readCtx, storage.FactFilter{
			Start:   p.Start,
			End:     p.End,
			Country: p.Country,
		})
		if err != nil {
			return nil, fmt.Errorf("list facts for report: %w", err)
		}
		return Generate(facts, p)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.ReportRunsTotal.WithLabelValues(trigger, "canceled").Inc()
		return nil, ctx.Err()
	}
	metrics.ReportDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	if res.Err != nil {
		metrics.ReportRunsTotal.WithLabelValues(trigger, "error").Inc()
		return nil, res.Err
	}
	metrics.ReportRunsTotal.WithLabelValues(trigger, "ok").Inc()

	rows := res.Val.([]Row)
	slog.Debug("[Report] Generated",
		"trigger", trigger,
		"country", p.Country,
		"start", p.Start.Format(v1.DateLayout),
		"end", p.End.Format(v1.DateLayout),
		"rows", len(rows),
		"shared", res.Shared)

	// Shared results must not alias between callers.
	out := make([]Row, len(rows))
	copy(out, rows)
	return out, nil
}
