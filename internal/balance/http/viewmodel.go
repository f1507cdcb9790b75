package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/balance"
	"github.com/altiplano-fin/altiplano/internal/money"
)

const dateLayout = "2006-01-02"

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ForeignColumnVM is one foreign-currency column of a report row.
type ForeignColumnVM struct {
	Currency        string `json:"currency"`
	Balance         string `json:"balance"`
	Valorized       string `json:"valorized"`
	Rate            string `json:"rate"`
	ClosingRate     string `json:"closingRate"`
	Debit           string `json:"debit,omitempty"`
	Credit          string `json:"credit,omitempty"`
	ValorizedDebit  string `json:"valorizedDebit,omitempty"`
	ValorizedCredit string `json:"valorizedCredit,omitempty"`
}

// CurrencyColumnRowVM is the JSON shape of a merged multi-currency row.
type CurrencyColumnRowVM struct {
	Account        string            `json:"account"`
	Level          int               `json:"level"`
	Sector         string            `json:"sector"`
	Date           string            `json:"date"`
	Domestic       string            `json:"domestic"`
	Foreign        []ForeignColumnVM `json:"foreign"`
	TotalValorized string            `json:"totalValorized,omitempty"`
}

func fromColumnarRow(row balance.CurrencyColumnRow) CurrencyColumnRowVM {
	vm := CurrencyColumnRowVM{
		Account:  row.Account,
		Level:    row.Level,
		Sector:   row.Sector,
		Date:     row.Date.Format(dateLayout),
		Domestic: amount(row.Domestic),
		Foreign:  make([]ForeignColumnVM, 0, money.NumForeign),
	}
	for i, c := range money.ForeignCurrencies {
		col := row.Foreign[i]
		vm.Foreign = append(vm.Foreign, ForeignColumnVM{
			Currency:    string(c),
			Balance:     amount(col.Balance),
			Valorized:   amount(col.Valorized),
			Rate:        col.Rate.String(),
			ClosingRate: col.ClosingRate.String(),
		})
	}
	if !row.TotalValorized.IsZero() {
		vm.TotalValorized = amount(row.TotalValorized)
	}
	return vm
}

// FromColumnar maps merged rows to their JSON shape.
func FromColumnar(rows []balance.CurrencyColumnRow) []CurrencyColumnRowVM {
	out := make([]CurrencyColumnRowVM, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromColumnarRow(row))
	}
	return out
}

// DeltaVM is one per-currency delta of a daily-difference row.
type DeltaVM struct {
	Currency       string `json:"currency"`
	Delta          string `json:"delta"`
	ValorizedDelta string `json:"valorizedDelta"`
}

// DailyDifferenceRowVM is the JSON shape of a daily-difference row.
type DailyDifferenceRowVM struct {
	CurrencyColumnRowVM
	DomesticDelta string    `json:"domesticDelta"`
	Deltas        []DeltaVM `json:"deltas"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ERI           bool      `json:"eri"`
	ShortDesc     string    `json:"shortDesc,omitempty"`
	LongDesc      string    `json:"longDesc,omitempty"`
	Category      string    `json:"category,omitempty"`
}

// FromDaily maps daily-difference rows to their JSON shape.
func FromDaily(rows []balance.DailyDifferenceRow) []DailyDifferenceRowVM {
	out := make([]DailyDifferenceRowVM, 0, len(rows))
	for _, row := range rows {
		vm := DailyDifferenceRowVM{
			CurrencyColumnRowVM: fromColumnarRow(row.CurrencyColumnRow),
			DomesticDelta:       amount(row.DomesticDelta),
			From:                row.From.Format(dateLayout),
			To:                  row.To.Format(dateLayout),
			ERI:                 row.Tags.ERI,
			ShortDesc:           row.Tags.ShortDesc,
			LongDesc:            row.Tags.LongDesc,
			Category:            row.Tags.Category,
		}
		for i, c := range money.ForeignCurrencies {
			vm.Deltas = append(vm.Deltas, DeltaVM{
				Currency:       string(c),
				Delta:          amount(row.ForeignDelta[i]),
				ValorizedDelta: amount(row.ValorizedDelta[i]),
			})
		}
		out = append(out, vm)
	}
	return out
}

// ValuedColumnVM is one per-currency valuation column.
type ValuedColumnVM struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Rate         string `json:"rate"`
	ClosingRate  string `json:"closingRate"`
	Valued       string `json:"valued"`
	ValuedDebit  string `json:"valuedDebit"`
	ValuedCredit string `json:"valuedCredit"`
	Effect       string `json:"effect"`
	EffectDebit  string `json:"effectDebit"`
	EffectCredit string `json:"effectCredit"`
}

// ValuationAccumulationRowVM is the JSON shape of an accumulation row. The
// month map is keyed "<MonthName>_<Year>" and only carries populated months.
type ValuationAccumulationRowVM struct {
	Account          string            `json:"account"`
	Year             int               `json:"year"`
	Domestic         string            `json:"domestic"`
	Debit            string            `json:"debit"`
	Credit           string            `json:"credit"`
	Foreign          []ValuedColumnVM  `json:"foreign"`
	TotalValued      string            `json:"totalValued"`
	Months           map[string]string `json:"months"`
	TotalAccumulated string            `json:"totalAccumulated"`
}

// FromAccumulation maps accumulation rows to their JSON shape.
func FromAccumulation(rows []balance.ValuationAccumulationRow) []ValuationAccumulationRowVM {
	out := make([]ValuationAccumulationRowVM, 0, len(rows))
	for _, row := range rows {
		vm := ValuationAccumulationRowVM{
			Account:          row.Account,
			Year:             row.Year,
			Domestic:         amount(row.Domestic),
			Debit:            amount(row.Debit),
			Credit:           amount(row.Credit),
			TotalValued:      amount(row.TotalValued),
			TotalAccumulated: amount(row.TotalAccumulated),
			Months:           make(map[string]string),
		}
		for i, c := range money.ForeignCurrencies {
			col := row.Foreign[i]
			vm.Foreign = append(vm.Foreign, ValuedColumnVM{
				Currency:     string(c),
				Balance:      amount(col.Balance),
				Rate:         col.Rate.String(),
				ClosingRate:  col.ClosingRate.String(),
				Valued:       amount(col.Valued),
				ValuedDebit:  amount(col.ValuedDebit),
				ValuedCredit: amount(col.ValuedCredit),
				Effect:       amount(col.Effect),
				EffectDebit:  amount(col.EffectDebit),
				EffectCredit: amount(col.EffectCredit),
			})
		}
		for m := time.January; m <= time.December; m++ {
			if !row.Months[m].IsZero() {
				vm.Months[balance.MonthKey(m, row.Year)] = amount(row.Months[m])
			}
		}
		out = append(out, vm)
	}
	return out
}
