// Package balance implements the multi-currency balance aggregation and
// valuation engine: hierarchy summarization, debtor/creditor netting,
// currency bucketing and merging, exchange-rate valuation, the daily
// difference time series and the monthly valuation accumulation.
package balance

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/money"
)

// RowKind classifies a balance row.
type RowKind int

// Row kinds carried by raw postings and derived rows.
const (
	KindEntry RowKind = iota
	KindSummary
	KindTotal
	KindGroup
	KindBalanceTotalCurrency
)

// Nature is the accounting sign convention of a balance.
type Nature int

// Debtor/creditor natures.
const (
	NatureDebtor Nature = iota + 1
	NatureCreditor
)

// DefaultSector is the sector code top-level rows must carry to be eligible
// for currency-column treatment.
const DefaultSector = "00"

// PostingRow is one raw balance record for a ledger/account/sector/currency
// combination, as returned by the posting repository. The engine never
// mutates repository rows; every transformation builds fresh values.
type PostingRow struct {
	LedgerID    int64
	Account     string
	Level       int
	Sector      string
	Currency    money.Currency
	SubledgerID int64

	Initial decimal.Decimal
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Current decimal.Decimal

	Valorized       decimal.Decimal
	ValorizedDebit  decimal.Decimal
	ValorizedCredit decimal.Decimal

	Nature      Nature
	Rate        decimal.Decimal
	ClosingRate decimal.Decimal
	LastChanged time.Time
	Kind        RowKind
}

// ForeignColumn is one fixed foreign-currency slot of a merged row.
type ForeignColumn struct {
	Balance decimal.Decimal
	Debit   decimal.Decimal
	Credit  decimal.Decimal

	Valorized       decimal.Decimal
	ValorizedDebit  decimal.Decimal
	ValorizedCredit decimal.Decimal

	Rate        decimal.Decimal
	ClosingRate decimal.Decimal
}

// CurrencyColumnRow is the merged multi-currency snapshot row: exactly one
// per account per snapshot date, with a domestic slot and the four fixed
// foreign slots even when some are zero.
type CurrencyColumnRow struct {
	Account  string
	Level    int
	Sector   string
	LedgerID int64
	Kind     RowKind
	Date     time.Time

	Domestic decimal.Decimal
	Debit    decimal.Decimal
	Credit   decimal.Decimal

	Foreign [money.NumForeign]ForeignColumn

	TotalValorized decimal.Decimal
}

// ClassificationTags are regulatory labels looked up by account number.
type ClassificationTags struct {
	ERI       bool
	ShortDesc string
	LongDesc  string
	Category  string
}

// DailyDifferenceRow extends a snapshot row with day-over-day deltas per
// currency column and the snapshot window.
type DailyDifferenceRow struct {
	CurrencyColumnRow

	DomesticDelta  decimal.Decimal
	ForeignDelta   [money.NumForeign]decimal.Decimal
	ValorizedDelta [money.NumForeign]decimal.Decimal

	From time.Time
	To   time.Time

	Tags ClassificationTags
}

// ValuedColumn holds the per-currency valuation figures of an accumulation
// row.
type ValuedColumn struct {
	Balance     decimal.Decimal
	Rate        decimal.Decimal
	ClosingRate decimal.Decimal

	Valued       decimal.Decimal
	ValuedDebit  decimal.Decimal
	ValuedCredit decimal.Decimal

	Effect       decimal.Decimal
	EffectDebit  decimal.Decimal
	EffectCredit decimal.Decimal
}

// ValuationAccumulationRow is one account's valuation effects across a year:
// the target month's figures plus a sparse month-indexed map of prior-month
// totals and a running accumulated total. Months is indexed by time.Month
// (1-12); index 0 is unused.
type ValuationAccumulationRow struct {
	Account  string
	Level    int
	LedgerID int64
	Year     int

	Domestic decimal.Decimal
	Debit    decimal.Decimal
	Credit   decimal.Decimal

	Foreign [money.NumForeign]ValuedColumn

	TotalValued      decimal.Decimal
	Months           [13]decimal.Decimal
	TotalAccumulated decimal.Decimal
}

// MonthKey formats the month-map key used at the DTO boundary,
// e.g. "January_2026".
func MonthKey(m time.Month, year int) string {
	return m.String() + "_" + strconv.Itoa(year)
}

// Query is the filter a caller supplies to every build entry point.
type Query struct {
	LedgerID int64          `validate:"required,gt=0"`
	Account  string         `validate:"omitempty"`
	Sector   string         `validate:"omitempty,len=2"`
	Currency money.Currency `validate:"omitempty,oneof=MXN USD JPY EUR UDI"`
	From     time.Time      `validate:"required"`
	To       time.Time      `validate:"required,gtefield=From"`

	// Valuate enables multiplication of foreign balances by the resolved
	// exchange rate. The un-valuated balance is always preserved.
	Valuate bool
	// IncludeTotals requests the per-row total-valorized post-pass.
	IncludeTotals bool
}

// ErrUnsupportedVariant marks a report-kind combination with no defined
// handling. It is a programming error, not a user-facing condition.
var ErrUnsupportedVariant = errors.New("balance: unsupported report variant")

// AccountLevel derives the hierarchy level of an account number from its
// dot-separated segments: "1" is level 1, "1.01" level 2 and so on.
func AccountLevel(account string) int {
	if account == "" {
		return 0
	}
	return strings.Count(account, ".") + 1
}

// AccountAtLevel truncates an account number to its ancestor at the given
// level. Requesting a level at or above the account's own returns the
// account unchanged.
func AccountAtLevel(account string, level int) string {
	if level < 1 {
		return account
	}
	segments := strings.Split(account, ".")
	if level >= len(segments) {
		return account
	}
	return strings.Join(segments[:level], ".")
}

// CompareAccounts orders account numbers the way the chart of accounts does:
// segment by segment, numerically where both segments parse as integers.
func CompareAccounts(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		return strings.Compare(as[i], bs[i])
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
