package balance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/money"
)

// mergeCurrencyColumns folds the domestic and foreign buckets into exactly
// one CurrencyColumnRow per account. Domestic rows seed the output; foreign
// rows are written into their currency column, and foreign rows without a
// domestic sibling are promoted into a new row with a zero domestic balance.
// Output is ordered by account number.
func mergeCurrencyColumns(b snapshotBuckets, q Query, date time.Time) []CurrencyColumnRow {
	byAccount := make(map[string]*CurrencyColumnRow)
	order := make([]string, 0, len(b.domestic)+len(b.foreign))

	ensure := func(seed PostingRow) *CurrencyColumnRow {
		row, ok := byAccount[seed.Account]
		if !ok {
			level := seed.Level
			if level == 0 {
				level = AccountLevel(seed.Account)
			}
			row = &CurrencyColumnRow{
				Account:  seed.Account,
				Level:    level,
				Sector:   seed.Sector,
				LedgerID: seed.LedgerID,
				Kind:     seed.Kind,
				Date:     date,
			}
			byAccount[seed.Account] = row
			order = append(order, seed.Account)
		}
		return row
	}

	for _, d := range b.domestic {
		row := ensure(d)
		row.Domestic = d.Current
		row.Debit = d.Debit
		row.Credit = d.Credit
	}
	for _, f := range b.foreign {
		idx, ok := money.ForeignIndex(f.Currency)
		if !ok {
			continue
		}
		row := ensure(f)
		row.Foreign[idx] = ForeignColumn{
			Balance:         f.Current,
			Debit:           f.Debit,
			Credit:          f.Credit,
			Valorized:       f.Valorized,
			ValorizedDebit:  f.ValorizedDebit,
			ValorizedCredit: f.ValorizedCredit,
			Rate:            f.Rate,
			ClosingRate:     f.ClosingRate,
		}
	}

	sort.Slice(order, func(i, j int) bool {
		return CompareAccounts(order[i], order[j]) < 0
	})
	out := make([]CurrencyColumnRow, 0, len(order))
	for _, account := range order {
		row := *byAccount[account]
		if q.IncludeTotals {
			total := row.Domestic
			for i := range row.Foreign {
				total = total.Add(row.Foreign[i].Valorized)
			}
			row.TotalValorized = total
		} else {
			row.TotalValorized = decimal.Zero
		}
		out = append(out, row)
	}
	return out
}
