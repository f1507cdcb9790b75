package balance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakePostings struct {
	fn func(q Query) ([]PostingRow, error)
}

func (f *fakePostings) FetchPostings(_ context.Context, q Query) ([]PostingRow, error) {
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(q)
}

// fakeRates resolves from an explicit quote table; anything absent is a
// missing rate.
type fakeRates struct {
	quotes map[string]decimal.Decimal
	calls  int
}

func rateKey(rt fxrates.RateType, to money.Currency, on time.Time) string {
	return string(rt) + ":" + string(to) + ":" + on.Format("2006-01-02")
}

func (f *fakeRates) set(rt fxrates.RateType, to money.Currency, on time.Time, rate string) {
	if f.quotes == nil {
		f.quotes = make(map[string]decimal.Decimal)
	}
	f.quotes[rateKey(rt, to, on)] = dec(rate)
}

func (f *fakeRates) Rate(_ context.Context, rt fxrates.RateType, from, to money.Currency, on time.Time) (decimal.Decimal, error) {
	f.calls++
	if rate, ok := f.quotes[rateKey(rt, to, on)]; ok {
		return rate, nil
	}
	return decimal.Zero, &fxrates.MissingRateError{Type: rt, From: from, To: to, On: on}
}

// fakeCalendar treats every weekday as working, with no holidays.
type fakeCalendar struct{}

func (fakeCalendar) WorkingDays(_ context.Context, from, to time.Time) ([]time.Time, error) {
	var days []time.Time
	for d := day(from.Year(), from.Month(), from.Day()); !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
	}
	return days, nil
}

func (fakeCalendar) LastWorkingDay(_ context.Context, year int, month time.Month) (time.Time, error) {
	d := day(year, month, 1).AddDate(0, 1, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d, nil
}

type fakeTags struct {
	tags map[string]ClassificationTags
}

func (f *fakeTags) Tags(_ context.Context, accounts []string) (map[string]ClassificationTags, error) {
	out := make(map[string]ClassificationTags)
	for _, a := range accounts {
		if t, ok := f.tags[a]; ok {
			out[a] = t
		}
	}
	return out, nil
}

func leaf(account string, sector string, cur money.Currency, current string) PostingRow {
	return PostingRow{
		LedgerID: 1,
		Account:  account,
		Level:    AccountLevel(account),
		Sector:   sector,
		Currency: cur,
		Initial:  decimal.Zero,
		Debit:    decimal.Zero,
		Credit:   decimal.Zero,
		Current:  dec(current),
		Nature:   NatureDebtor,
		Kind:     KindEntry,
	}
}
