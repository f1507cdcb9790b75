package balance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
)

// PostingSource returns raw posting rows for a query window. An empty result
// is valid and short-circuits every builder to empty output.
type PostingSource interface {
	FetchPostings(ctx context.Context, q Query) ([]PostingRow, error)
}

// RateSource resolves an exchange rate for a rate type, currency pair and
// date. A missing rate must surface as an error naming the currency and
// date; it is never defaulted.
type RateSource interface {
	Rate(ctx context.Context, rt fxrates.RateType, from, to money.Currency, on time.Time) (decimal.Decimal, error)
}

// Calendar answers working-day questions from the financial calendar.
type Calendar interface {
	LastWorkingDay(ctx context.Context, year int, month time.Month) (time.Time, error)
	WorkingDays(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// TagSource looks up regulatory classification tags by account number.
type TagSource interface {
	Tags(ctx context.Context, accounts []string) (map[string]ClassificationTags, error)
}
