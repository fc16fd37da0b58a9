package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rates maps a currency code to its multiplier against a common base.
type Rates map[string]decimal.Decimal

// Convert re-expresses amount from one currency in another using rates
// relative to a shared base: amount * rates[to] / rates[from]. If either
// currency has no usable rate the amount is returned unchanged, so a missing
// rate degrades the result instead of failing it.
func Convert(amount decimal.Decimal, from, to string, rates Rates) decimal.Decimal {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount
	}
	fromRate, ok := rates[from]
	if !ok || fromRate.IsZero() {
		return amount
	}
	toRate, ok := rates[to]
	if !ok || toRate.IsZero() {
		return amount
	}
	return amount.Mul(toRate).Div(fromRate)
}
