/**
 * @description
 * PostgreSQL access to the currency rate table. Rates are reference data
 * keyed by currency code, each expressed relative to the base currency.
 */
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finflow/subscription-service/internal/domain"
)

// CurrencyRepository handles database operations for currency rates.
type CurrencyRepository struct {
	db *pgxpool.Pool
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(db *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// FindRateByCode resolves a currency code to its stored rate. The lookup is
// case-sensitive; codes are stored upper-case.
func (r *CurrencyRepository) FindRateByCode(ctx context.Context, code string) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT value FROM currencies WHERE code = $1`, code).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrCurrencyNotFound
		}
		return decimal.Decimal{}, err
	}
	return rate, nil
}

// UpsertRates writes a batch of rates, inserting new codes and overwriting
// existing ones.
func (r *CurrencyRepository) UpsertRates(ctx context.Context, rates []domain.CurrencyRate) error {
	if len(rates) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
        INSERT INTO currencies (code, value)
        VALUES ($1, $2)
        ON CONFLICT (code) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `
	for _, rate := range rates {
		batch.Queue(query, rate.Code, rate.Value)
	}
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range rates {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
