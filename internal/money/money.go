// Package money defines the closed currency set and decimal helpers shared by
// the balance engines.
package money

import "github.com/shopspring/decimal"

// Currency identifies one of the currencies the engine understands.
type Currency string

// Supported currencies. MXN is the domestic reporting currency; the four
// foreign units are the fixed columns of every multi-currency report. UDI is
// the Mexican inflation-indexed investment unit.
const (
	MXN Currency = "MXN"
	USD Currency = "USD"
	JPY Currency = "JPY"
	EUR Currency = "EUR"
	UDI Currency = "UDI"
)

// Domestic is the reporting currency all foreign balances are valued into.
const Domestic = MXN

// NumForeign is the number of fixed foreign-currency columns.
const NumForeign = 4

// ForeignCurrencies lists the foreign columns in report order.
var ForeignCurrencies = [NumForeign]Currency{USD, JPY, EUR, UDI}

// ForeignIndex maps a currency to its column index. The second return is
// false for the domestic currency and for anything outside the closed set.
func ForeignIndex(c Currency) (int, bool) {
	for i, fc := range ForeignCurrencies {
		if fc == c {
			return i, true
		}
	}
	return 0, false
}

// Valid reports whether c belongs to the closed currency set.
func Valid(c Currency) bool {
	if c == Domestic {
		return true
	}
	_, ok := ForeignIndex(c)
	return ok
}

// Round2 rounds an amount to 2 decimal places, the precision every balance is
// kept at. Leaf amounts are rounded before summation so parent totals are
// always sums of already-rounded children.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
