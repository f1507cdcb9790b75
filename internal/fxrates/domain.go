// Package fxrates resolves exchange rates for valuation, backed by Postgres
// with an optional Redis read-through cache.
package fxrates

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/money"
)

// RateType selects which quote family a lookup targets.
type RateType string

const (
	// RateTypeDaily is the day-to-day operational rate.
	RateTypeDaily RateType = "DAILY"
	// RateTypeClosing is the month-end closing valuation rate.
	RateTypeClosing RateType = "CLOSING"
)

// Quote is one resolved exchange rate.
type Quote struct {
	Type RateType
	From money.Currency
	To   money.Currency
	On   time.Time
	Rate decimal.Decimal
}

// MissingRateError reports an exchange rate that has no record for the
// requested tuple. It is fatal to any build that needs the rate; callers
// never substitute a default.
type MissingRateError struct {
	Type RateType
	From money.Currency
	To   money.Currency
	On   time.Time
}

// Error implements the error interface naming the currency and date.
func (e *MissingRateError) Error() string {
	return fmt.Sprintf("fxrates: no %s rate %s->%s on %s", e.Type, e.From, e.To, e.On.Format("2006-01-02"))
}
