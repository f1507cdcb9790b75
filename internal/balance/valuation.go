package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
)

// Variant selects the report family a snapshot is built for. It drives the
// rate-type choice of the valuator and the bucket dedup key.
type Variant int

const (
	// VariantColumnar is the columnar-by-currency report.
	VariantColumnar Variant = iota
	// VariantDaily is the daily-difference report.
	VariantDaily
)

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// rateTypeFor selects the rate type for a target date. The closing valuation
// type applies whenever the date is the last working day of its month, and
// always for the columnar variant.
func rateTypeFor(v Variant, date, lastWorking time.Time) (fxrates.RateType, error) {
	if sameDay(date, lastWorking) {
		return fxrates.RateTypeClosing, nil
	}
	switch v {
	case VariantColumnar:
		return fxrates.RateTypeClosing, nil
	case VariantDaily:
		return fxrates.RateTypeDaily, nil
	}
	return "", fmt.Errorf("%w: variant %d", ErrUnsupportedVariant, v)
}

// valuateForeign resolves the current and closing rates for every foreign
// row and, when valuation is enabled, multiplies current balance, debit and
// credit into their valorized equivalents. The un-valuated amounts are
// preserved. A missing rate aborts the whole build.
func valuateForeign(ctx context.Context, rates RateSource, foreign []PostingRow, q Query, v Variant, date, lastWorking time.Time) ([]PostingRow, error) {
	if len(foreign) == 0 {
		return foreign, nil
	}
	rt, err := rateTypeFor(v, date, lastWorking)
	if err != nil {
		return nil, err
	}
	out := make([]PostingRow, 0, len(foreign))
	for _, r := range foreign {
		rate, err := rates.Rate(ctx, rt, money.Domestic, r.Currency, date)
		if err != nil {
			return nil, err
		}
		closing, err := rates.Rate(ctx, fxrates.RateTypeClosing, money.Domestic, r.Currency, lastWorking)
		if err != nil {
			return nil, err
		}
		r.Rate = rate
		r.ClosingRate = closing
		if q.Valuate {
			r.Valorized = money.Round2(r.Current.Mul(rate))
			r.ValorizedDebit = money.Round2(r.Debit.Mul(rate))
			r.ValorizedCredit = money.Round2(r.Credit.Mul(rate))
		}
		out = append(out, r)
	}
	return out, nil
}
