package domain

import "github.com/shopspring/decimal"

// CurrencyRate maps a currency code to its conversion rate relative to the
// base currency. Rates are reference data, refreshed from the upstream
// provider and never mutated by subscription operations.
type CurrencyRate struct {
	Code  string          `json:"code"`
	Value decimal.Decimal `json:"value"`
}
