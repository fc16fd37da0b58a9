package models

import "strings"

// BaseCurrency is the currency rate snapshots are expressed against by default.
const BaseCurrency = "USD"

// SupportedCurrencies are the codes an expense may be recorded in.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "AED", "INR"}

// IsSupportedCurrency reports whether code (case-insensitive) is supported.
func IsSupportedCurrency(code string) bool {
	code = strings.ToUpper(code)
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
