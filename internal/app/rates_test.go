package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finflow/subscription-service/internal/domain"
)

type fakeProvider struct {
	rates map[string]decimal.Decimal
	err   error
}

func (f *fakeProvider) LatestRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return f.rates, f.err
}

type fakeWriter struct {
	written []domain.CurrencyRate
	err     error
}

func (f *fakeWriter) UpsertRates(ctx context.Context, rates []domain.CurrencyRate) error {
	f.written = append(f.written, rates...)
	return f.err
}

type fakeInvalidator struct {
	codes []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, codes []string) error {
	f.codes = append(f.codes, codes...)
	return nil
}

func TestRefreshWritesAndInvalidates(t *testing.T) {
	provider := &fakeProvider{rates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1"),
		"EUR": decimal.RequireFromString("0.91"),
	}}
	writer := &fakeWriter{}
	cache := &fakeInvalidator{}
	refresher := NewRateRefresher(provider, writer, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(writer.written) != 2 {
		t.Fatalf("expected 2 rates written, got %d", len(writer.written))
	}
	sort.Strings(cache.codes)
	if len(cache.codes) != 2 || cache.codes[0] != "EUR" || cache.codes[1] != "USD" {
		t.Fatalf("expected EUR and USD invalidated, got %v", cache.codes)
	}
}

func TestRefreshEmptyTableKeepsCurrentRates(t *testing.T) {
	writer := &fakeWriter{}
	refresher := NewRateRefresher(&fakeProvider{rates: map[string]decimal.Decimal{}}, writer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.written) != 0 {
		t.Fatalf("expected no writes for an empty rate table, got %d", len(writer.written))
	}
}

func TestRefreshProviderFailure(t *testing.T) {
	providerErr := errors.New("upstream timeout")
	writer := &fakeWriter{}
	refresher := NewRateRefresher(&fakeProvider{err: providerErr}, writer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := refresher.Refresh(context.Background()); !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(writer.written) != 0 {
		t.Fatalf("expected no writes after provider failure, got %d", len(writer.written))
	}
}

func TestRefreshWriterFailure(t *testing.T) {
	writerErr := errors.New("deadlock detected")
	provider := &fakeProvider{rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("1")}}
	cache := &fakeInvalidator{}
	refresher := NewRateRefresher(provider, &fakeWriter{err: writerErr}, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := refresher.Refresh(context.Background()); !errors.Is(err, writerErr) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if len(cache.codes) != 0 {
		t.Fatalf("expected cache untouched after write failure, got %v", cache.codes)
	}
}
