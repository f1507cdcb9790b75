package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service exposes the four build entry points of the engine. Every build is
// request-scoped: it owns its own working set and shares no mutable state
// with concurrent builds.
type Service struct {
	postings    PostingSource
	rates       RateSource
	calendar    Calendar
	tags        TagSource
	logger      *slog.Logger
	observer    BuildObserver
	parallelism int
	now         func() time.Time
}

// BuildObserver receives the timing of finished report builds.
type BuildObserver interface {
	ObserveReportBuild(report string, elapsed time.Duration)
}

// NewService constructs the balance engine service.
func NewService(postings PostingSource, rates RateSource, calendar Calendar, tags TagSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		postings:    postings,
		rates:       rates,
		calendar:    calendar,
		tags:        tags,
		logger:      logger,
		parallelism: 4,
		now:         time.Now,
	}
}

// WithParallelism bounds the number of per-day/per-month sub-builds that may
// run concurrently.
func (s *Service) WithParallelism(n int) {
	if n > 0 {
		s.parallelism = n
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithObserver registers a sink for build timings.
func (s *Service) WithObserver(o BuildObserver) {
	s.observer = o
}

func (s *Service) observe(report string, elapsed time.Duration) {
	if s.observer != nil {
		s.observer.ObserveReportBuild(report, elapsed)
	}
}

func (s *Service) ready() error {
	if s == nil || s.postings == nil || s.rates == nil || s.calendar == nil {
		return fmt.Errorf("balance service not initialised")
	}
	return nil
}

// buildLogger stamps a fresh build ID on the service logger so the fan-out
// of a single request stays correlated.
func (s *Service) buildLogger(report string) *slog.Logger {
	return s.logger.With(
		slog.String("report", report),
		slog.String("build_id", uuid.NewString()),
	)
}

// BuildSummarizedAndNetted fetches the raw postings for the query window,
// synthesizes the hierarchy summary rows and nets debtor/creditor pairs. It
// backs the other builders and is also used directly by report exporters.
func (s *Service) BuildSummarizedAndNetted(ctx context.Context, q Query) ([]PostingRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.postings.FetchPostings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch postings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return NetDebtorCreditor(Summarize(rows)), nil
}

// buildSnapshot runs the full single-date pipeline, producing one merged
// CurrencyColumnRow set as of the given date.
func (s *Service) buildSnapshot(ctx context.Context, q Query, date time.Time, v Variant) ([]CurrencyColumnRow, error) {
	dayQuery := q
	dayQuery.From = date
	dayQuery.To = date
	rows, err := s.postings.FetchPostings(ctx, dayQuery)
	if err != nil {
		return nil, fmt.Errorf("fetch postings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rows = NetDebtorCreditor(Summarize(rows))
	buckets := bucketByCurrency(rows, v == VariantColumnar)

	lastWorking, err := s.calendar.LastWorkingDay(ctx, date.Year(), date.Month())
	if err != nil {
		return nil, fmt.Errorf("last working day: %w", err)
	}
	buckets.foreign, err = valuateForeign(ctx, s.rates, buckets.foreign, q, v, date, lastWorking)
	if err != nil {
		return nil, err
	}
	return mergeCurrencyColumns(buckets, q, date), nil
}

// BuildColumnarByCurrency produces the multi-currency snapshot for the
// query's end date: exactly one row per distinct account present in the
// input, with the domestic slot and the four fixed foreign columns.
func (s *Service) BuildColumnarByCurrency(ctx context.Context, q Query) ([]CurrencyColumnRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	logger := s.buildLogger("columnar_by_currency")
	started := s.now()
	rows, err := s.buildSnapshot(ctx, q, q.To, VariantColumnar)
	if err != nil {
		logger.Error("columnar build failed", slog.Any("error", err))
		return nil, err
	}
	elapsed := s.now().Sub(started)
	s.observe("columnar_by_currency", elapsed)
	logger.Info("columnar build done",
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", elapsed))
	return rows, nil
}

// BuildDailyDifference builds the day-over-day delta series for the query
// window. See daily.go for the engine itself.
func (s *Service) BuildDailyDifference(ctx context.Context, q Query) ([]DailyDifferenceRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.tags == nil {
		return nil, fmt.Errorf("balance service not initialised")
	}
	logger := s.buildLogger("daily_difference")
	started := s.now()
	rows, err := s.buildDaily(ctx, q)
	if err != nil {
		logger.Error("daily difference build failed", slog.Any("error", err))
		return nil, err
	}
	elapsed := s.now().Sub(started)
	s.observe("daily_difference", elapsed)
	logger.Info("daily difference build done",
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", elapsed))
	return rows, nil
}

// BuildValuationAccumulation builds the month-by-month valuation effect
// accumulation for the year of the query's end date. See accumulation.go.
func (s *Service) BuildValuationAccumulation(ctx context.Context, q Query) ([]ValuationAccumulationRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	logger := s.buildLogger("valuation_accumulation")
	started := s.now()
	rows, err := s.buildAccumulation(ctx, q)
	if err != nil {
		logger.Error("valuation accumulation build failed", slog.Any("error", err))
		return nil, err
	}
	elapsed := s.now().Sub(started)
	s.observe("valuation_accumulation", elapsed)
	logger.Info("valuation accumulation build done",
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", elapsed))
	return rows, nil
}
