/**
 * @description
 * This file implements the PostgreSQL data access layer for subscriptions.
 * It contains all the SQL queries and logic for persisting and retrieving
 * subscription records.
 */
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finflow/subscription-service/internal/domain"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCurrencyNotFound     = errors.New("currency not found")
)

const subscriptionColumns = `id, name, currency, amount, converted_amount, billing_cycle,
       subscription_date, next_subscription_date, created_at, updated_at`

// PostgresRepository is the PostgreSQL implementation of the subscription store.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save persists a subscription. A record without an ID is inserted and gets a
// store-assigned identity; a record with an ID overwrites the stored row.
func (r *PostgresRepository) Save(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if sub.ID == uuid.Nil {
		return r.insert(ctx, sub)
	}
	return r.update(ctx, sub)
}

func (r *PostgresRepository) insert(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        INSERT INTO subscriptions (name, currency, amount, converted_amount, billing_cycle,
                                   subscription_date, next_subscription_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + subscriptionColumns
	row := r.db.QueryRow(ctx, query,
		sub.Name,
		sub.Currency,
		sub.Amount,
		sub.ConvertedAmount,
		sub.BillingCycle,
		sub.SubscriptionDate,
		sub.NextSubscriptionDate,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return scanSubscription(row)
}

func (r *PostgresRepository) update(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        UPDATE subscriptions
        SET name = $2,
            currency = $3,
            amount = $4,
            converted_amount = $5,
            billing_cycle = $6,
            subscription_date = $7,
            next_subscription_date = $8,
            created_at = $9,
            updated_at = $10
        WHERE id = $1
        RETURNING ` + subscriptionColumns
	row := r.db.QueryRow(ctx, query,
		sub.ID,
		sub.Name,
		sub.Currency,
		sub.Amount,
		sub.ConvertedAmount,
		sub.BillingCycle,
		sub.SubscriptionDate,
		sub.NextSubscriptionDate,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return scanSubscription(row)
}

// FindByID retrieves a subscription by its identity.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

// FindAll retrieves every stored subscription in insertion order.
func (r *PostgresRepository) FindAll(ctx context.Context) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := []domain.Subscription{}
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.ID,
			&sub.Name,
			&sub.Currency,
			&sub.Amount,
			&sub.ConvertedAmount,
			&sub.BillingCycle,
			&sub.SubscriptionDate,
			&sub.NextSubscriptionDate,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, sub)
	}
	return subscriptions, rows.Err()
}

// DeleteByID removes a subscription. Deleting a missing id is not an error.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	return err
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.Name,
		&sub.Currency,
		&sub.Amount,
		&sub.ConvertedAmount,
		&sub.BillingCycle,
		&sub.SubscriptionDate,
		&sub.NextSubscriptionDate,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
