/**
 * @description
 * This file contains the core business logic for the subscription service.
 * The Service layer orchestrates the repository, the currency converter and
 * the event producer, and owns validation and billing-date arithmetic.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finflow/subscription-service/internal/domain"
	"github.com/finflow/subscription-service/internal/store"
)

// ErrInvalidRequest marks a request rejected by validation before any store
// mutation. Handlers map it to a client error.
var ErrInvalidRequest = errors.New("invalid subscription request")

const (
	eventsExchange           = "subscription_events"
	eventSubscriptionCreated = "subscription.created"
	eventSubscriptionUpdated = "subscription.updated"
	eventSubscriptionDeleted = "subscription.deleted"
)

// Repository defines the interface for database operations that the service needs.
type Repository interface {
	Save(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	FindAll(ctx context.Context) ([]domain.Subscription, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Publisher is the interface implemented by types that can publish lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Service provides the business logic for subscription management.
type Service struct {
	repo      Repository
	converter *Converter
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a new subscription service. publisher may be nil when no
// broker is configured.
func NewService(repo Repository, converter *Converter, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		converter: converter,
		publisher: publisher,
		logger:    logger,
	}
}

// Create validates the request, converts the amount into the target currency
// and persists a new subscription. The conversion runs before the insert, so
// an unknown currency leaves no record behind.
func (s *Service) Create(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	convertedAmount, err := s.converter.Convert(ctx, req.Amount, req.FromCurrency, req.ToCurrency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		Name:                 req.Name,
		Currency:             req.FromCurrency,
		Amount:               req.Amount,
		ConvertedAmount:      convertedAmount,
		BillingCycle:         req.BillingCycle,
		SubscriptionDate:     req.SubscriptionDate,
		NextSubscriptionDate: req.SubscriptionDate.AddMonths(req.BillingCycle),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	saved, err := s.repo.Save(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscription created", "id", saved.ID, "name", saved.Name)
	s.publishEvent(ctx, eventSubscriptionCreated, saved)

	resp := saved.Response()
	return &resp, nil
}

// Read retrieves one subscription by id. A missing id surfaces as
// store.ErrSubscriptionNotFound.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (*domain.SubscriptionResponse, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := sub.Response()
	return &resp, nil
}

// ReadAll retrieves every stored subscription.
func (s *Service) ReadAll(ctx context.Context) ([]domain.SubscriptionResponse, error) {
	subs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]domain.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, subs[i].Response())
	}
	return responses, nil
}

// Update overwrites a stored subscription from the request. Updating a
// missing id is a silent no-op; callers observe it through a follow-up Read.
// The converted amount is only recomputed when the source currency actually
// changes, so an unchanged currency keeps the conversion made at the time of
// the last currency change even if the rate table has moved since.
// NextSubscriptionDate is set at creation only and is not recomputed here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req domain.SubscriptionRequest) error {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			s.logger.Warn("subscription not found for update", "id", id)
			return nil
		}
		return err
	}

	if !strings.EqualFold(req.FromCurrency, sub.Currency) {
		convertedAmount, err := s.converter.Convert(ctx, req.Amount, req.FromCurrency, req.ToCurrency)
		if err != nil {
			return err
		}
		sub.ConvertedAmount = convertedAmount
	}

	sub.ApplyRequest(req)
	sub.UpdatedAt = time.Now().UTC()

	if _, err := s.repo.Save(ctx, sub); err != nil {
		return err
	}
	s.logger.Info("subscription updated", "id", id)
	s.publishEvent(ctx, eventSubscriptionUpdated, sub)
	return nil
}

// Delete removes a subscription by id. Deleting a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("subscription deleted", "id", id)
	s.publishEvent(ctx, eventSubscriptionDeleted, &domain.Subscription{ID: id})
	return nil
}

// publishEvent sends a lifecycle event. Events are best effort: a broker
// failure is logged and never fails the subscription operation itself.
func (s *Service) publishEvent(ctx context.Context, routingKey string, sub *domain.Subscription) {
	if s.publisher == nil {
		return
	}
	event := domain.SubscriptionEvent{
		SubscriptionID: sub.ID,
		Name:           sub.Name,
		Currency:       sub.Currency,
		Amount:         sub.Amount,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, eventsExchange, routingKey, event); err != nil {
		s.logger.Warn("failed to publish subscription event", "routing_key", routingKey, "id", sub.ID, "error", err)
	}
}

func validateRequest(req domain.SubscriptionRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	case req.Amount.Sign() < 0:
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidRequest)
	case req.BillingCycle < 1:
		return fmt.Errorf("%w: billing cycle must be at least one month", ErrInvalidRequest)
	case req.SubscriptionDate.IsZero():
		return fmt.Errorf("%w: subscription date is required", ErrInvalidRequest)
	case strings.TrimSpace(req.FromCurrency) == "":
		return fmt.Errorf("%w: from currency is required", ErrInvalidRequest)
	case strings.TrimSpace(req.ToCurrency) == "":
		return fmt.Errorf("%w: to currency is required", ErrInvalidRequest)
	}
	return nil
}
