package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
)

func TestRateTypeForDailyVariant(t *testing.T) {
	lastWorking := day(2026, time.January, 30)

	rt, err := rateTypeFor(VariantDaily, day(2026, time.January, 15), lastWorking)
	if err != nil {
		t.Fatalf("rateTypeFor: %v", err)
	}
	if rt != fxrates.RateTypeDaily {
		t.Fatalf("mid-month daily variant rate type = %s, want DAILY", rt)
	}

	rt, err = rateTypeFor(VariantDaily, lastWorking, lastWorking)
	if err != nil {
		t.Fatalf("rateTypeFor: %v", err)
	}
	if rt != fxrates.RateTypeClosing {
		t.Fatalf("month-end rate type = %s, want CLOSING", rt)
	}
}

func TestRateTypeForColumnarVariantAlwaysClosing(t *testing.T) {
	rt, err := rateTypeFor(VariantColumnar, day(2026, time.January, 15), day(2026, time.January, 30))
	if err != nil {
		t.Fatalf("rateTypeFor: %v", err)
	}
	if rt != fxrates.RateTypeClosing {
		t.Fatalf("columnar rate type = %s, want CLOSING", rt)
	}
}

func TestRateTypeForUnknownVariant(t *testing.T) {
	_, err := rateTypeFor(Variant(99), day(2026, time.January, 15), day(2026, time.January, 30))
	if !errors.Is(err, ErrUnsupportedVariant) {
		t.Fatalf("error = %v, want ErrUnsupportedVariant", err)
	}
}

func TestValuateForeignMultipliesWhenEnabled(t *testing.T) {
	rates := &fakeRates{}
	rates.set(fxrates.RateTypeDaily, money.USD, day(2026, time.January, 15), "18.50")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 30), "19.00")
	row := leaf("1.01.01", DefaultSector, money.USD, "10")
	row.Debit = dec("4")
	row.Credit = dec("2")

	out, err := valuateForeign(context.Background(), rates, []PostingRow{row}, Query{Valuate: true},
		VariantDaily, day(2026, time.January, 15), day(2026, time.January, 30))
	if err != nil {
		t.Fatalf("valuateForeign: %v", err)
	}
	got := out[0]
	if !got.Valorized.Equal(dec("185.00")) {
		t.Fatalf("valorized = %s, want 185.00", got.Valorized)
	}
	if !got.ValorizedDebit.Equal(dec("74.00")) || !got.ValorizedCredit.Equal(dec("37.00")) {
		t.Fatalf("valorized debit/credit = %s/%s", got.ValorizedDebit, got.ValorizedCredit)
	}
	if !got.Current.Equal(dec("10")) {
		t.Fatalf("original balance must be preserved, got %s", got.Current)
	}
	if !got.Rate.Equal(dec("18.50")) || !got.ClosingRate.Equal(dec("19.00")) {
		t.Fatalf("rates = %s/%s, want 18.50/19.00", got.Rate, got.ClosingRate)
	}
}

func TestValuateForeignDisabledStillResolvesRates(t *testing.T) {
	rates := &fakeRates{}
	rates.set(fxrates.RateTypeDaily, money.USD, day(2026, time.January, 15), "18.50")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 30), "19.00")
	row := leaf("1.01.01", DefaultSector, money.USD, "10")

	out, err := valuateForeign(context.Background(), rates, []PostingRow{row}, Query{},
		VariantDaily, day(2026, time.January, 15), day(2026, time.January, 30))
	if err != nil {
		t.Fatalf("valuateForeign: %v", err)
	}
	if !out[0].Valorized.IsZero() {
		t.Fatalf("valorized = %s, want 0 when valuation disabled", out[0].Valorized)
	}
	if !out[0].Rate.Equal(dec("18.50")) || !out[0].ClosingRate.Equal(dec("19.00")) {
		t.Fatalf("rates must still be resolved, got %s/%s", out[0].Rate, out[0].ClosingRate)
	}
}

func TestValuateForeignMissingRateIsFatal(t *testing.T) {
	rates := &fakeRates{}
	row := leaf("1.01.01", DefaultSector, money.UDI, "100")

	_, err := valuateForeign(context.Background(), rates, []PostingRow{row}, Query{Valuate: true},
		VariantDaily, day(2026, time.January, 15), day(2026, time.January, 30))
	var missing *fxrates.MissingRateError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingRateError", err)
	}
	if missing.To != money.UDI {
		t.Fatalf("missing rate currency = %s, want UDI", missing.To)
	}
	if missing.On != day(2026, time.January, 15) {
		t.Fatalf("missing rate date = %s", missing.On)
	}
}
