package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/subscription-service/internal/domain"
	"github.com/finflow/subscription-service/internal/store"
)

// fakeRepo is an in-memory stand-in for the PostgreSQL repository.
type fakeRepo struct {
	subs    map[uuid.UUID]domain.Subscription
	saves   int
	deletes int
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: map[uuid.UUID]domain.Subscription{}}
}

func (f *fakeRepo) Save(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saves++
	saved := *sub
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	f.subs[saved.ID] = saved
	return &saved, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, store.ErrSubscriptionNotFound
	}
	found := sub
	return &found, nil
}

func (f *fakeRepo) FindAll(ctx context.Context) ([]domain.Subscription, error) {
	all := make([]domain.Subscription, 0, len(f.subs))
	for _, sub := range f.subs {
		all = append(all, sub)
	}
	return all, nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	f.deletes++
	delete(f.subs, id)
	return nil
}

type fakePublisher struct {
	published []string // routing keys in publish order
}

func (f *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	f.published = append(f.published, routingKey)
	return nil
}

type serviceFixture struct {
	service   *Service
	repo      *fakeRepo
	rates     *fakeRates
	publisher *fakePublisher
}

func newServiceFixture(rates map[string]string) serviceFixture {
	table := map[string]decimal.Decimal{}
	for code, value := range rates {
		table[code] = decimal.RequireFromString(value)
	}
	repo := newFakeRepo()
	rateSource := &fakeRates{table: table}
	publisher := &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return serviceFixture{
		service:   NewService(repo, NewConverter(rateSource), publisher, logger),
		repo:      repo,
		rates:     rateSource,
		publisher: publisher,
	}
}

func validRequest() domain.SubscriptionRequest {
	return domain.SubscriptionRequest{
		Name:             "Netflix",
		FromCurrency:     "USD",
		ToCurrency:       "USD",
		Amount:           decimal.RequireFromString("9.99"),
		BillingCycle:     12,
		SubscriptionDate: domain.NewDate(2024, time.January, 15),
	}
}

func TestCreateSubscription(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	before := time.Now().UTC()
	created, err := f.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == uuid.Nil {
		t.Fatal("expected a store-assigned id")
	}
	if created.Currency != "USD" {
		t.Fatalf("expected currency USD, got %q", created.Currency)
	}
	if !created.ConvertedAmount.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("expected converted amount 9.99, got %s", created.ConvertedAmount)
	}
	if !created.NextSubscriptionDate.Equal(domain.NewDate(2025, time.January, 15).Time) {
		t.Fatalf("expected next subscription date 2025-01-15, got %s", created.NextSubscriptionDate)
	}
	if created.CreatedAt.Before(before) || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected fresh identical timestamps, got created=%s updated=%s", created.CreatedAt, created.UpdatedAt)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != "subscription.created" {
		t.Fatalf("expected one created event, got %v", f.publisher.published)
	}
}

func TestCreateNextDateUsesBillingCycle(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	req := validRequest()
	req.BillingCycle = 3
	req.SubscriptionDate = domain.NewDate(2024, time.November, 30)

	created, err := f.service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.NextSubscriptionDate.Equal(domain.NewDate(2025, time.February, 28).Time) {
		t.Fatalf("expected clamped next date 2025-02-28, got %s", created.NextSubscriptionDate)
	}
}

func TestCreateUnknownCurrencyPersistsNothing(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	req := validRequest()
	req.FromCurrency = "XYZ"

	_, err := f.service.Create(context.Background(), req)
	if !errors.Is(err, store.ErrCurrencyNotFound) {
		t.Fatalf("expected currency not found, got %v", err)
	}
	if f.repo.saves != 0 {
		t.Fatalf("expected no store writes, got %d", f.repo.saves)
	}
	if len(f.publisher.published) != 0 {
		t.Fatalf("expected no events, got %v", f.publisher.published)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.SubscriptionRequest)
	}{
		{name: "empty name", mutate: func(r *domain.SubscriptionRequest) { r.Name = "  " }},
		{name: "negative amount", mutate: func(r *domain.SubscriptionRequest) { r.Amount = decimal.RequireFromString("-1") }},
		{name: "zero billing cycle", mutate: func(r *domain.SubscriptionRequest) { r.BillingCycle = 0 }},
		{name: "missing subscription date", mutate: func(r *domain.SubscriptionRequest) { r.SubscriptionDate = domain.Date{} }},
		{name: "missing from currency", mutate: func(r *domain.SubscriptionRequest) { r.FromCurrency = "" }},
		{name: "missing to currency", mutate: func(r *domain.SubscriptionRequest) { r.ToCurrency = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(map[string]string{"USD": "1"})
			req := validRequest()
			tt.mutate(&req)

			_, err := f.service.Create(context.Background(), req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if f.repo.saves != 0 {
				t.Fatalf("expected no store writes, got %d", f.repo.saves)
			}
		})
	}
}

func TestReadMissingSubscription(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	_, err := f.service.Read(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReadAll(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	all, err := f.service.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(all))
	}

	for i := 0; i < 3; i++ {
		if _, err := f.service.Create(context.Background(), validRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	all, err = f.service.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestUpdateUnchangedCurrencyKeepsConvertedAmount(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1", "EUR": "0.9"})

	created, err := f.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Move the rate table; an unchanged source currency must not re-convert.
	f.rates.table["USD"] = decimal.RequireFromString("2")

	req := validRequest()
	req.Name = "Netflix Premium"
	req.FromCurrency = "usd" // case-insensitive compare against stored "USD"
	req.Amount = decimal.RequireFromString("14.99")
	req.CreatedAt = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	if err := f.service.Update(context.Background(), created.ID, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := f.service.Read(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.ConvertedAmount.Equal(created.ConvertedAmount) {
		t.Fatalf("expected converted amount %s preserved, got %s", created.ConvertedAmount, updated.ConvertedAmount)
	}
	if updated.Name != "Netflix Premium" {
		t.Fatalf("expected name overwrite, got %q", updated.Name)
	}
	if !updated.Amount.Equal(req.Amount) {
		t.Fatalf("expected amount %s, got %s", req.Amount, updated.Amount)
	}
	if !updated.CreatedAt.Equal(req.CreatedAt) {
		t.Fatalf("expected createdAt overwritten from request, got %s", updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updatedAt restamped, got %s", updated.UpdatedAt)
	}
	if !updated.NextSubscriptionDate.Equal(created.NextSubscriptionDate.Time) {
		t.Fatalf("expected next subscription date untouched on update, got %s", updated.NextSubscriptionDate)
	}
}

func TestUpdateChangedCurrencyRecomputesConvertedAmount(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1", "EUR": "0.9"})

	created, err := f.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := validRequest()
	req.FromCurrency = "EUR"
	req.ToCurrency = "USD"
	req.Amount = decimal.RequireFromString("100.00")

	if err := f.service.Update(context.Background(), created.ID, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := f.service.Read(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.ConvertedAmount.Equal(decimal.RequireFromString("111.11")) {
		t.Fatalf("expected recomputed converted amount 111.11, got %s", updated.ConvertedAmount)
	}
	if updated.Currency != "EUR" {
		t.Fatalf("expected currency EUR, got %q", updated.Currency)
	}
}

func TestUpdateMissingIDIsSilentNoOp(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	id := uuid.New()
	if err := f.service.Update(context.Background(), id, validRequest()); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if f.repo.saves != 0 {
		t.Fatalf("expected no store writes, got %d", f.repo.saves)
	}
	if _, err := f.service.Read(context.Background(), id); !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("expected not found after no-op update, got %v", err)
	}
}

func TestDeleteThenRead(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})

	created, err := f.service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.service.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.Read(context.Background(), created.ID); !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	// Deleting again is idempotent.
	if err := f.service.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	f := newServiceFixture(map[string]string{"USD": "1"})
	storeErr := errors.New("connection reset")
	f.repo.saveErr = storeErr

	_, err := f.service.Create(context.Background(), validRequest())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}
