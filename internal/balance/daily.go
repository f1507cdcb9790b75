package balance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const dayKeyFormat = "2006-01-02"

// buildDaily drives the single-date pipeline once per working day of the
// query window and folds the snapshots into a delta time series. The working
// day list is seeded with the last working day of the month preceding the
// window so the first in-window day has a predecessor to difference against.
// Per-day sub-builds are pure functions of (query, date) and run in parallel
// under a bounded errgroup; results are indexed by day position so the output
// stays deterministic.
func (s *Service) buildDaily(ctx context.Context, q Query) ([]DailyDifferenceRow, error) {
	prevMonth := time.Date(q.From.Year(), q.From.Month(), 1, 0, 0, 0, 0, q.From.Location()).AddDate(0, 0, -1)
	seed, err := s.calendar.LastWorkingDay(ctx, prevMonth.Year(), prevMonth.Month())
	if err != nil {
		return nil, fmt.Errorf("seed working day: %w", err)
	}
	inWindow, err := s.calendar.WorkingDays(ctx, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("working days: %w", err)
	}
	days := append([]time.Time{seed}, inWindow...)

	snapshots := make([][]CurrencyColumnRow, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, day := range days {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := s.buildSnapshot(gctx, q, day, VariantDaily)
			if err != nil {
				return err
			}
			snapshots[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dayIndex := make(map[string]int, len(days))
	for i, day := range days {
		dayIndex[day.Format(dayKeyFormat)] = i
	}

	var bases []CurrencyColumnRow
	for _, snapshot := range snapshots {
		bases = append(bases, snapshot...)
	}
	if len(bases) == 0 {
		return nil, nil
	}
	sort.SliceStable(bases, func(i, j int) bool {
		if c := CompareAccounts(bases[i].Account, bases[j].Account); c != 0 {
			return c < 0
		}
		return bases[i].Date.Before(bases[j].Date)
	})

	tags, err := s.accountTags(ctx, bases)
	if err != nil {
		return nil, err
	}

	// Delta pass over the (account, date) ordering. A row dated before the
	// window start differences against an all-zero baseline, as does a row
	// whose account has no snapshot on the immediately preceding working day.
	// Each output row is fully formed before it is appended.
	out := make([]DailyDifferenceRow, 0, len(bases))
	for i, base := range bases {
		row := DailyDifferenceRow{
			CurrencyColumnRow: base,
			From:              base.Date,
			To:                base.Date,
			Tags:              tags[base.Account],
		}
		var prev *CurrencyColumnRow
		if !base.Date.Before(q.From) && i > 0 && bases[i-1].Account == base.Account {
			prevIdx, okPrev := dayIndex[bases[i-1].Date.Format(dayKeyFormat)]
			curIdx, okCur := dayIndex[base.Date.Format(dayKeyFormat)]
			if okPrev && okCur && prevIdx+1 == curIdx {
				prev = &bases[i-1]
			}
		}
		if prev != nil {
			row.DomesticDelta = base.Domestic.Sub(prev.Domestic)
			for c := range base.Foreign {
				row.ForeignDelta[c] = base.Foreign[c].Balance.Sub(prev.Foreign[c].Balance)
				row.ValorizedDelta[c] = base.Foreign[c].Valorized.Sub(prev.Foreign[c].Valorized)
			}
		} else {
			row.DomesticDelta = base.Domestic
			for c := range base.Foreign {
				row.ForeignDelta[c] = base.Foreign[c].Balance
				row.ValorizedDelta[c] = base.Foreign[c].Valorized
			}
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].To.Equal(out[j].To) {
			return out[i].To.Before(out[j].To)
		}
		return CompareAccounts(out[i].Account, out[j].Account) < 0
	})
	return out, nil
}

// accountTags resolves the regulatory classification tags for every distinct
// account present in the snapshots.
func (s *Service) accountTags(ctx context.Context, rows []CurrencyColumnRow) (map[string]ClassificationTags, error) {
	seen := make(map[string]bool)
	accounts := make([]string, 0)
	for i := range rows {
		if !seen[rows[i].Account] {
			seen[rows[i].Account] = true
			accounts = append(accounts, rows[i].Account)
		}
	}
	tags, err := s.tags.Tags(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("classification tags: %w", err)
	}
	return tags, nil
}
