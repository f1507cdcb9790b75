// Package calendar answers working-day questions from the financial
// calendar: weekends plus the holiday table are non-working.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dayFormat = "2006-01-02"

// Service resolves working days against the holiday table.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs the calendar service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

func (s *Service) holidays(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("calendar not initialised")
	}
	const query = `SELECT holiday_date FROM financial_holidays WHERE holiday_date BETWEEN $1 AND $2`
	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[string]bool)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		set[day.Format(dayFormat)] = true
	}
	return set, rows.Err()
}

// WorkingDays returns every working day inside [from, to], ascending.
func (s *Service) WorkingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	holidays, err := s.holidays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return workingDaysBetween(from, to, holidays), nil
}

// LastWorkingDay returns the last working day of the given month.
func (s *Service) LastWorkingDay(ctx context.Context, year int, month time.Month) (time.Time, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	holidays, err := s.holidays(ctx, first, last)
	if err != nil {
		return time.Time{}, err
	}
	return lastWorkingDayOf(year, month, holidays), nil
}

func isWorkingDay(day time.Time, holidays map[string]bool) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays[day.Format(dayFormat)]
}

func workingDaysBetween(from, to time.Time, holidays map[string]bool) []time.Time {
	var days []time.Time
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(end) {
		if isWorkingDay(day, holidays) {
			days = append(days, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func lastWorkingDayOf(year int, month time.Month, holidays map[string]bool) time.Time {
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	for !isWorkingDay(day, holidays) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
