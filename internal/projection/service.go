package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beanmart/salesmart/internal/analytics"
	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/beanmart/salesmart/internal/report"
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrReportNotArchived is returned when a scheduled job has not produced a result yet.
	ErrReportNotArchived = errors.New("report not archived")
)

// Service serves the read side: the product sales mart, customer reports and analytics.
type Service struct {
	mart      storage.MartReader
	reports   *report.Service
	archive   *report.Archive
	analytics *analytics.Service
}

func NewService(martReader storage.MartReader, reports *report.Service, archive *report.Archive, analyticsSvc *analytics.Service) *Service {
	return &Service{
		mart:      martReader,
		reports:   reports,
		archive:   archive,
		analytics: analyticsSvc,
	}
}

// QueryMart lists mart rows in the requested range and rolls them up.
func (s *Service) QueryMart(ctx context.Context, req MartQueryRequest) (*MartQueryResponse, error) {
	if req.Granularity == "" {
		req.Granularity = GranularityDay
	}
	switch req.Granularity {
	case GranularityDay, GranularityMonth, GranularityTotal:
	default:
		return nil, invalidQueryf("unsupported granularity %q (want day, month or total)", req.Granularity)
	}
	if err := checkRange(req.Start, req.End); err != nil {
		return nil, err
	}

	startTime := time.Now()
	rows, err := s.mart.ListMartRows(ctx, storage.MartFilter{
		CoffeeType: req.CoffeeType,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mart rows: %w", err)
	}

	resp := &MartQueryResponse{
		CoffeeType:  req.CoffeeType,
		Start:       formatOptionalDate(req.Start),
		End:         formatOptionalDate(req.End),
		Granularity: req.Granularity,
		Values:      rollupMart(rows, req.Granularity),
	}

	slog.Debug("[Projection] Mart query served",
		"coffee_type", req.CoffeeType,
		"granularity", req.Granularity,
		"rows", len(rows),
		"values", len(resp.Values),
		"duration", time.Since(startTime))
	return resp, nil
}

// GetMartRow returns the mart row for one (coffee_type, order_date).
func (s *Service) GetMartRow(ctx context.Context, coffeeType, orderDate string) (*mart.Row, error) {
	if coffeeType == "" {
		return nil, invalidQueryf("coffee_type is required")
	}
	day, err := v1.ParseDate(orderDate)
	if err != nil {
		return nil, invalidQueryf("%v", err)
	}
	return s.mart.GetMartRow(ctx, mart.NewKey(coffeeType, day))
}

// CustomerReport runs the customer report on demand.
func (s *Service) CustomerReport(ctx context.Context, p report.Params) ([]report.Row, error) {
	return s.reports.Generate(ctx, p)
}

// ScheduledReport returns the latest archived run of a scheduled job.
func (s *Service) ScheduledReport(job string) (report.Result, error) {
	res, ok := s.archive.Get(job)
	if !ok {
		return report.Result{}, fmt.Errorf("%w: %s", ErrReportNotArchived, job)
	}
	return res, nil
}

// ScheduledJobs lists the jobs that have an archived result.
func (s *Service) ScheduledJobs() []string {
	return s.archive.Jobs()
}

func checkRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return invalidQueryf("end %s is before start %s", end.Format(v1.DateLayout), start.Format(v1.DateLayout))
	}
	return nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(v1.DateLayout)
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
