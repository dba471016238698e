/**
 * @description
 * Currency conversion between two codes via the stored rate table. Every rate
 * is expressed relative to the base currency, so a conversion divides into
 * the base currency and multiplies out into the target one.
 */
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned when a stored rate is zero or negative. Such a
// rate cannot be converted through and must never silently produce a result.
var ErrInvalidRate = errors.New("invalid currency rate")

// monetaryScale is the number of fractional digits kept for money values.
const monetaryScale = 2

// RateSource resolves a currency code to its rate against the base currency.
// A missing code must surface as an error, never as a default rate.
type RateSource interface {
	FindRateByCode(ctx context.Context, code string) (decimal.Decimal, error)
}

// Converter converts monetary amounts between currencies.
type Converter struct {
	rates RateSource
}

// NewConverter creates a Converter backed by the given rate source.
func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert re-expresses amount from one currency in another. The intermediate
// base-currency amount is rounded half-up to the monetary scale, and so is
// the final result; without the final rounding a rate like 0.9 would leak
// unbounded fractional digits into stored amounts.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, error) {
	fromRate, err := c.rates.FindRateByCode(ctx, fromCurrency)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate lookup for %q: %w", fromCurrency, err)
	}
	toRate, err := c.rates.FindRateByCode(ctx, toCurrency)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate lookup for %q: %w", toCurrency, err)
	}
	if fromRate.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is %s", ErrInvalidRate, fromCurrency, fromRate)
	}
	if toRate.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is %s", ErrInvalidRate, toCurrency, toRate)
	}

	amountInBase := amount.DivRound(fromRate, monetaryScale)
	return amountInBase.Mul(toRate).Round(monetaryScale), nil
}
