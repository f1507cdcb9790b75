package balance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
)

func accumulationService(postings *fakePostings, rates *fakeRates) *Service {
	return NewService(postings, rates, fakeCalendar{}, &fakeTags{}, nil)
}

// accumulationRowFor picks one account's row out of a build that also carries
// the synthesized ancestor summaries.
func accumulationRowFor(t *testing.T, rows []ValuationAccumulationRow, account string) ValuationAccumulationRow {
	t.Helper()
	for _, r := range rows {
		if r.Account == account {
			return r
		}
	}
	t.Fatalf("no row for account %s", account)
	return ValuationAccumulationRow{}
}

func usdEveryDay(balance string) *fakePostings {
	return &fakePostings{fn: func(q Query) ([]PostingRow, error) {
		return []PostingRow{leaf("1.01", DefaultSector, money.USD, balance)}, nil
	}}
}

func TestBuildValuationAccumulationEffect(t *testing.T) {
	rates := &fakeRates{}
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 30), "18.00")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.February, 27), "18.20")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.March, 16), "18.50")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.March, 31), "19.00")
	svc := accumulationService(usdEveryDay("10"), rates)

	q := Query{LedgerID: 1, From: day(2026, time.January, 1), To: day(2026, time.March, 16)}
	rows, err := svc.BuildValuationAccumulation(context.Background(), q)
	if err != nil {
		t.Fatalf("BuildValuationAccumulation: %v", err)
	}
	// The leaf plus its synthesized level-1 ancestor.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	row := accumulationRowFor(t, rows, "1.01")
	usdIdx, _ := money.ForeignIndex(money.USD)
	col := row.Foreign[usdIdx]
	if !col.Valued.Equal(dec("185.00")) {
		t.Fatalf("valued = %s, want 185.00", col.Valued)
	}
	// Effect is closing-rate value minus current-rate value, exactly.
	wantEffect := money.Round2(dec("10").Mul(dec("19.00"))).Sub(money.Round2(dec("10").Mul(dec("18.50"))))
	if !col.Effect.Equal(wantEffect) {
		t.Fatalf("effect = %s, want %s", col.Effect, wantEffect)
	}
	if !row.Months[time.January].Equal(dec("180.00")) {
		t.Fatalf("January total = %s, want 180.00", row.Months[time.January])
	}
	if !row.Months[time.February].Equal(dec("182.00")) {
		t.Fatalf("February total = %s, want 182.00", row.Months[time.February])
	}
	if !row.Months[time.March].Equal(dec("185.00")) {
		t.Fatalf("March total = %s, want 185.00", row.Months[time.March])
	}
	if !row.TotalAccumulated.Equal(dec("547.00")) {
		t.Fatalf("accumulated = %s, want 547.00", row.TotalAccumulated)
	}
}

func TestBuildValuationAccumulationDebitCreditDecomposition(t *testing.T) {
	postings := &fakePostings{fn: func(q Query) ([]PostingRow, error) {
		row := leaf("1.01", DefaultSector, money.USD, "10")
		row.Debit = dec("4")
		row.Credit = dec("2")
		return []PostingRow{row}, nil
	}}
	rates := &fakeRates{}
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 15), "18.50")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 30), "19.00")
	svc := accumulationService(postings, rates)

	q := Query{LedgerID: 1, From: day(2026, time.January, 1), To: day(2026, time.January, 15)}
	rows, err := svc.BuildValuationAccumulation(context.Background(), q)
	if err != nil {
		t.Fatalf("BuildValuationAccumulation: %v", err)
	}
	usdIdx, _ := money.ForeignIndex(money.USD)
	col := accumulationRowFor(t, rows, "1.01").Foreign[usdIdx]
	if !col.ValuedDebit.Equal(dec("74.00")) || !col.ValuedCredit.Equal(dec("37.00")) {
		t.Fatalf("valued debit/credit = %s/%s", col.ValuedDebit, col.ValuedCredit)
	}
	if !col.EffectDebit.Equal(dec("2.00")) {
		t.Fatalf("effect debit = %s, want 2.00 (4*19 - 4*18.50)", col.EffectDebit)
	}
	if !col.EffectCredit.Equal(dec("1.00")) {
		t.Fatalf("effect credit = %s, want 1.00 (2*19 - 2*18.50)", col.EffectCredit)
	}
}

func TestBuildValuationAccumulationJanuaryBaseCase(t *testing.T) {
	rates := &fakeRates{}
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 15), "18.50")
	rates.set(fxrates.RateTypeClosing, money.USD, day(2026, time.January, 30), "19.00")
	svc := accumulationService(usdEveryDay("10"), rates)

	q := Query{LedgerID: 1, From: day(2026, time.January, 1), To: day(2026, time.January, 15)}
	rows, err := svc.BuildValuationAccumulation(context.Background(), q)
	if err != nil {
		t.Fatalf("BuildValuationAccumulation: %v", err)
	}
	row := accumulationRowFor(t, rows, "1.01")
	for m := time.February; m <= time.December; m++ {
		if !row.Months[m].IsZero() {
			t.Fatalf("%s populated for a January build", m)
		}
	}
	if !row.TotalAccumulated.Equal(row.Months[time.January]) {
		t.Fatalf("January accumulated = %s, want %s", row.TotalAccumulated, row.Months[time.January])
	}
}

func TestBuildValuationAccumulationDecemberSumsTwelveMonths(t *testing.T) {
	rates := &fakeRates{}
	cal := fakeCalendar{}
	for m := time.January; m <= time.December; m++ {
		end, _ := cal.LastWorkingDay(context.Background(), 2026, m)
		rates.set(fxrates.RateTypeClosing, money.USD, end, "18.00")
	}
	svc := accumulationService(usdEveryDay("10"), rates)

	q := Query{LedgerID: 1, From: day(2026, time.January, 1), To: day(2026, time.December, 31)}
	rows, err := svc.BuildValuationAccumulation(context.Background(), q)
	if err != nil {
		t.Fatalf("BuildValuationAccumulation: %v", err)
	}
	row := accumulationRowFor(t, rows, "1.01")
	sum := decimal.Zero
	for m := time.January; m <= time.December; m++ {
		if row.Months[m].IsZero() {
			t.Fatalf("%s missing from month map", m)
		}
		sum = sum.Add(row.Months[m])
	}
	if !row.TotalAccumulated.Sub(sum).Abs().LessThanOrEqual(dec("0.01")) {
		t.Fatalf("accumulated = %s, want sum of months %s", row.TotalAccumulated, sum)
	}
}
