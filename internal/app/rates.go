/**
 * @description
 * Currency rate refresh. Pulls the latest rate table from the upstream
 * provider, upserts it into the currencies table and drops the affected
 * cache entries so subsequent conversions see the new rates.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/finflow/subscription-service/internal/domain"
)

// RateProvider fetches the current rate table from the upstream API, keyed by
// currency code.
type RateProvider interface {
	LatestRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// RateWriter persists a batch of refreshed rates.
type RateWriter interface {
	UpsertRates(ctx context.Context, rates []domain.CurrencyRate) error
}

// CacheInvalidator drops cached rate entries after a refresh.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, codes []string) error
}

// RateRefresher keeps the stored rate table in sync with the provider.
type RateRefresher struct {
	provider RateProvider
	writer   RateWriter
	cache    CacheInvalidator
	logger   *slog.Logger
}

// NewRateRefresher creates a refresher. cache may be nil when no Redis
// instance is configured.
func NewRateRefresher(provider RateProvider, writer RateWriter, cache CacheInvalidator, logger *slog.Logger) *RateRefresher {
	return &RateRefresher{
		provider: provider,
		writer:   writer,
		cache:    cache,
		logger:   logger,
	}
}

// Refresh fetches the latest rates and writes them through. Subscriptions are
// never touched: a refreshed table only affects conversions performed after
// the refresh.
func (r *RateRefresher) Refresh(ctx context.Context) error {
	latest, err := r.provider.LatestRates(ctx)
	if err != nil {
		return fmt.Errorf("fetch latest rates: %w", err)
	}
	if len(latest) == 0 {
		r.logger.Warn("rate provider returned no rates, keeping current table")
		return nil
	}

	rates := make([]domain.CurrencyRate, 0, len(latest))
	codes := make([]string, 0, len(latest))
	for code, value := range latest {
		rates = append(rates, domain.CurrencyRate{Code: code, Value: value})
		codes = append(codes, code)
	}

	if err := r.writer.UpsertRates(ctx, rates); err != nil {
		return fmt.Errorf("upsert rates: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, codes); err != nil {
			r.logger.Warn("failed to invalidate rate cache", "error", err)
		}
	}

	r.logger.Info("currency rates refreshed", "count", len(rates))
	return nil
}
