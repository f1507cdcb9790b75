package balance

import (
	"testing"

	"github.com/altiplano-fin/altiplano/internal/money"
)

func findRow(t *testing.T, rows []PostingRow, account string, kind RowKind) PostingRow {
	t.Helper()
	for _, r := range rows {
		if r.Account == account && r.Kind == kind {
			return r
		}
	}
	t.Fatalf("no row for account %s kind %d", account, kind)
	return PostingRow{}
}

func TestSummarizeSynthesizesEveryAncestorLevel(t *testing.T) {
	rows := Summarize([]PostingRow{
		leaf("1.01.01", DefaultSector, money.MXN, "100"),
		leaf("1.01.02", DefaultSector, money.MXN, "50"),
		leaf("1.02.01", DefaultSector, money.MXN, "30"),
	})

	parent := findRow(t, rows, "1.01", KindSummary)
	if !parent.Current.Equal(dec("150")) {
		t.Fatalf("1.01 summary current = %s, want 150", parent.Current)
	}
	if parent.Level != 2 {
		t.Fatalf("1.01 summary level = %d, want 2", parent.Level)
	}
	other := findRow(t, rows, "1.02", KindSummary)
	if !other.Current.Equal(dec("30")) {
		t.Fatalf("1.02 summary current = %s, want 30", other.Current)
	}
	root := findRow(t, rows, "1", KindSummary)
	if !root.Current.Equal(dec("180")) {
		t.Fatalf("root summary current = %s, want 180", root.Current)
	}
	if root.Level != 1 {
		t.Fatalf("root summary level = %d, want 1", root.Level)
	}
}

func TestSummarizeKeysBySectorCurrencyAndNature(t *testing.T) {
	usd := leaf("1.01.01", DefaultSector, money.USD, "10")
	mxn := leaf("1.01.02", DefaultSector, money.MXN, "20")
	creditor := leaf("1.01.03", DefaultSector, money.MXN, "5")
	creditor.Nature = NatureCreditor

	rows := Summarize([]PostingRow{usd, mxn, creditor})

	var summaries int
	for _, r := range rows {
		if r.Account == "1.01" && r.Kind == KindSummary {
			summaries++
		}
	}
	if summaries != 3 {
		t.Fatalf("expected 3 distinct 1.01 summaries got %d", summaries)
	}
}

func TestSummarizeRoundsLeavesBeforeSummation(t *testing.T) {
	a := leaf("1.01.01", DefaultSector, money.MXN, "1.004")
	b := leaf("1.01.02", DefaultSector, money.MXN, "1.004")

	rows := Summarize([]PostingRow{a, b})

	// Each leaf rounds to 1.00 first; the parent is 2.00, not round(2.008).
	parent := findRow(t, rows, "1.01", KindSummary)
	if !parent.Current.Equal(dec("2.00")) {
		t.Fatalf("parent current = %s, want 2.00", parent.Current)
	}
	first := findRow(t, rows, "1.01.01", KindEntry)
	if !first.Current.Equal(dec("1.00")) {
		t.Fatalf("leaf current = %s, want 1.00", first.Current)
	}
}

func TestSummarizePassesTotalAndGroupRowsThrough(t *testing.T) {
	total := leaf("9", DefaultSector, money.MXN, "999.999")
	total.Kind = KindTotal
	group := leaf("8", DefaultSector, money.MXN, "888.888")
	group.Kind = KindGroup

	rows := Summarize([]PostingRow{total, group})

	if len(rows) != 2 {
		t.Fatalf("expected pass-through only, got %d rows", len(rows))
	}
	if !rows[0].Current.Equal(dec("999.999")) {
		t.Fatalf("total row was re-summed or rounded: %s", rows[0].Current)
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	if rows := Summarize(nil); rows != nil {
		t.Fatalf("expected nil output for empty input, got %d rows", len(rows))
	}
}
