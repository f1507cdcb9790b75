package balance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/altiplano-fin/altiplano/internal/money"
)

// valuedColumn derives the per-currency valuation figures of one foreign
// column. The valued effect is the closing-rate value minus the current-rate
// value of the same balance, each rounded to 2 places before subtraction.
func valuedColumn(col ForeignColumn) ValuedColumn {
	valued := money.Round2(col.Balance.Mul(col.Rate))
	closingValued := money.Round2(col.Balance.Mul(col.ClosingRate))
	valuedDebit := money.Round2(col.Debit.Mul(col.Rate))
	closingDebit := money.Round2(col.Debit.Mul(col.ClosingRate))
	valuedCredit := money.Round2(col.Credit.Mul(col.Rate))
	closingCredit := money.Round2(col.Credit.Mul(col.ClosingRate))
	return ValuedColumn{
		Balance:      col.Balance,
		Rate:         col.Rate,
		ClosingRate:  col.ClosingRate,
		Valued:       valued,
		ValuedDebit:  valuedDebit,
		ValuedCredit: valuedCredit,
		Effect:       closingValued.Sub(valued),
		EffectDebit:  closingDebit.Sub(valuedDebit),
		EffectCredit: closingCredit.Sub(valuedCredit),
	}
}

// snapshotTotalValued is the account-level figure merged into the month map:
// the domestic balance plus the four valorized foreign balances.
func snapshotTotalValued(row CurrencyColumnRow) decimal.Decimal {
	total := row.Domestic
	for i := range row.Foreign {
		total = total.Add(row.Foreign[i].Valorized)
	}
	return total
}

// buildAccumulation computes the valuation accumulation rows for the month
// of the query's end date. The target month is built in full as of the end
// date, with the closing rate taken from the month's last working day so the
// valued effect decomposes the pending month-end revaluation. Every earlier
// month of the same year is rebuilt as of its own last working day and its
// account-level total valued figure merged into the month map and the
// running accumulated total. January is the base case with no prior-month
// backfill; fiscal years are taken to start in January.
func (s *Service) buildAccumulation(ctx context.Context, q Query) ([]ValuationAccumulationRow, error) {
	year := q.To.Year()
	target := q.To.Month()

	// Snapshot dates, January first; the target month uses the query's end
	// date rather than its month end.
	dates := make([]time.Time, 0, int(target))
	for m := time.January; m < target; m++ {
		end, err := s.calendar.LastWorkingDay(ctx, year, m)
		if err != nil {
			return nil, fmt.Errorf("last working day %s %d: %w", m, year, err)
		}
		dates = append(dates, end)
	}
	dates = append(dates, q.To)

	monthQuery := q
	monthQuery.Valuate = true
	snapshots := make([][]CurrencyColumnRow, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, date := range dates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := s.buildSnapshot(gctx, monthQuery, date, VariantColumnar)
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

	byAccount := make(map[string]*ValuationAccumulationRow)
	ensure := func(account string, level int, ledgerID int64) *ValuationAccumulationRow {
		row, ok := byAccount[account]
		if !ok {
			row = &ValuationAccumulationRow{
				Account:  account,
				Level:    level,
				LedgerID: ledgerID,
				Year:     year,
			}
			byAccount[account] = row
		}
		return row
	}

	// Target month first: full per-currency figures.
	for _, snap := range snapshots[len(snapshots)-1] {
		row := ensure(snap.Account, snap.Level, snap.LedgerID)
		row.Domestic = snap.Domestic
		row.Debit = snap.Debit
		row.Credit = snap.Credit
		for i := range snap.Foreign {
			row.Foreign[i] = valuedColumn(snap.Foreign[i])
		}
		row.TotalValued = snapshotTotalValued(snap)
	}

	// Month map and running total, earliest month first, target included.
	for i, snapshot := range snapshots {
		m := time.Month(i + 1)
		for _, snap := range snapshot {
			row := ensure(snap.Account, snap.Level, snap.LedgerID)
			value := snapshotTotalValued(snap)
			row.Months[m] = value
			row.TotalAccumulated = row.TotalAccumulated.Add(value)
		}
	}

	if len(byAccount) == 0 {
		return nil, nil
	}
	out := make([]ValuationAccumulationRow, 0, len(byAccount))
	for _, row := range byAccount {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareAccounts(out[i].Account, out[j].Account) < 0
	})
	return out, nil
}
