package balance

import "github.com/altiplano-fin/altiplano/internal/money"

type bucketKey struct {
	account  string
	sector   string
	currency money.Currency
	ledger   int64
	kind     RowKind
}

// snapshotBuckets partitions the eligible rows of one snapshot into a
// domestic set and a foreign set, with foreign rows linked back to their
// domestic sibling by account number.
type snapshotBuckets struct {
	domestic []PostingRow
	foreign  []PostingRow
}

// currencyEligible reports whether a row takes part in currency-column
// treatment: top-level rows with the default sector, or any row below the
// top level.
func currencyEligible(r PostingRow) bool {
	if !money.Valid(r.Currency) {
		return false
	}
	level := r.Level
	if level == 0 {
		level = AccountLevel(r.Account)
	}
	if level == 1 {
		return r.Sector == DefaultSector
	}
	return level > 1
}

// bucketByCurrency deduplicates eligible rows and splits them into domestic
// and foreign buckets. The dedup key is (account, sector, currency, ledger)
// plus the row kind for the columnar variant; the first occurrence wins.
func bucketByCurrency(rows []PostingRow, keyWithKind bool) snapshotBuckets {
	var b snapshotBuckets
	seen := make(map[bucketKey]bool, len(rows))
	for _, r := range rows {
		if !currencyEligible(r) {
			continue
		}
		key := bucketKey{
			account:  r.Account,
			sector:   r.Sector,
			currency: r.Currency,
			ledger:   r.LedgerID,
		}
		if keyWithKind {
			key.kind = r.Kind
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		if r.Currency == money.Domestic {
			b.domestic = append(b.domestic, r)
		} else {
			b.foreign = append(b.foreign, r)
		}
	}
	return b
}
