package balance

import "github.com/altiplano-fin/altiplano/internal/money"

type netKey struct {
	account  string
	currency money.Currency
	sector   string
}

// NetDebtorCreditor nets paired debtor/creditor summary rows. For every
// debtor summary row the first creditor summary row with the same account,
// currency and sector is subtracted from it and removed from the result.
// Only one creditor match is expected per debtor key; extra matches are a
// data-quality defect and the first match wins. The pass is idempotent: once
// a creditor has been consumed no further match exists.
func NetDebtorCreditor(rows []PostingRow) []PostingRow {
	if len(rows) == 0 {
		return nil
	}
	creditors := make(map[netKey][]int)
	for i, r := range rows {
		if r.Kind == KindSummary && r.Nature == NatureCreditor {
			key := netKey{account: r.Account, currency: r.Currency, sector: r.Sector}
			creditors[key] = append(creditors[key], i)
		}
	}

	consumed := make(map[int]bool)
	netted := make(map[int]PostingRow)
	for i, r := range rows {
		if r.Kind != KindSummary || r.Nature != NatureDebtor {
			continue
		}
		key := netKey{account: r.Account, currency: r.Currency, sector: r.Sector}
		for _, j := range creditors[key] {
			if consumed[j] {
				continue
			}
			c := rows[j]
			r.Initial = r.Initial.Sub(c.Initial)
			r.Debit = r.Debit.Sub(c.Debit)
			r.Credit = r.Credit.Sub(c.Credit)
			r.Current = r.Current.Sub(c.Current)
			r.Valorized = r.Valorized.Sub(c.Valorized)
			consumed[j] = true
			netted[i] = r
			break
		}
	}

	out := make([]PostingRow, 0, len(rows))
	for i, r := range rows {
		if consumed[i] {
			continue
		}
		if n, ok := netted[i]; ok {
			out = append(out, n)
			continue
		}
		out = append(out, r)
	}
	return out
}
