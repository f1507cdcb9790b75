package balance

import (
	"sort"

	"github.com/altiplano-fin/altiplano/internal/money"
)

type summaryKey struct {
	account  string
	sector   string
	currency money.Currency
	ledger   int64
	nature   Nature
}

// Summarize synthesizes parent summary rows for every ancestor level of each
// leaf account present in the input. Leaf amounts are rounded to 2 decimal
// places before summation, so parent totals are sums of already-rounded
// children. Rows of kind Total and Group pass through unchanged.
func Summarize(rows []PostingRow) []PostingRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]PostingRow, 0, len(rows))
	sums := make(map[summaryKey]*PostingRow)
	for _, row := range rows {
		if row.Kind == KindTotal || row.Kind == KindGroup {
			out = append(out, row)
			continue
		}
		leaf := row
		if leaf.Level == 0 {
			leaf.Level = AccountLevel(leaf.Account)
		}
		leaf.Initial = money.Round2(leaf.Initial)
		leaf.Debit = money.Round2(leaf.Debit)
		leaf.Credit = money.Round2(leaf.Credit)
		leaf.Current = money.Round2(leaf.Current)
		out = append(out, leaf)

		for level := leaf.Level - 1; level >= 1; level-- {
			key := summaryKey{
				account:  AccountAtLevel(leaf.Account, level),
				sector:   leaf.Sector,
				currency: leaf.Currency,
				ledger:   leaf.LedgerID,
				nature:   leaf.Nature,
			}
			sum, ok := sums[key]
			if !ok {
				sum = &PostingRow{
					LedgerID: leaf.LedgerID,
					Account:  key.account,
					Level:    level,
					Sector:   leaf.Sector,
					Currency: leaf.Currency,
					Nature:   leaf.Nature,
					Kind:     KindSummary,
				}
				sums[key] = sum
			}
			sum.Initial = sum.Initial.Add(leaf.Initial)
			sum.Debit = sum.Debit.Add(leaf.Debit)
			sum.Credit = sum.Credit.Add(leaf.Credit)
			sum.Current = sum.Current.Add(leaf.Current)
			if leaf.LastChanged.After(sum.LastChanged) {
				sum.LastChanged = leaf.LastChanged
			}
		}
	}

	summaries := make([]PostingRow, 0, len(sums))
	for _, sum := range sums {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if c := CompareAccounts(a.Account, b.Account); c != 0 {
			return c < 0
		}
		if a.Sector != b.Sector {
			return a.Sector < b.Sector
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Nature < b.Nature
	})
	return append(out, summaries...)
}
