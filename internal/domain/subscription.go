/**
 * @description
 * This file defines the core domain models for the subscription-service.
 * It includes the Subscription entity that maps to the subscriptions table,
 * the request/response shapes exchanged with the API layer, and the mapping
 * between them.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subscription represents a recurring financial subscription as stored in the
// database. Amount is denominated in Currency; ConvertedAmount is the same
// amount expressed in the target currency of the last create/update that
// changed the source currency.
type Subscription struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Currency             string          `json:"currency"`
	Amount               decimal.Decimal `json:"amount"`
	ConvertedAmount      decimal.Decimal `json:"converted_amount"`
	BillingCycle         int             `json:"billing_cycle"` // months between renewals
	SubscriptionDate     Date            `json:"subscription_date"`
	NextSubscriptionDate Date            `json:"next_subscription_date"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// SubscriptionRequest is the payload accepted by the create and update
// endpoints. CreatedAt/UpdatedAt are carried through on update, where the
// incoming values overwrite the stored ones verbatim.
type SubscriptionRequest struct {
	Name             string          `json:"name"`
	FromCurrency     string          `json:"from_currency"`
	ToCurrency       string          `json:"to_currency"`
	Amount           decimal.Decimal `json:"amount"`
	BillingCycle     int             `json:"billing_cycle"`
	SubscriptionDate Date            `json:"subscription_date"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// SubscriptionResponse is the external representation returned by the API.
type SubscriptionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Currency             string          `json:"currency"`
	Amount               decimal.Decimal `json:"amount"`
	ConvertedAmount      decimal.Decimal `json:"converted_amount"`
	BillingCycle         int             `json:"billing_cycle"`
	SubscriptionDate     Date            `json:"subscription_date"`
	NextSubscriptionDate Date            `json:"next_subscription_date"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ApplyRequest overwrites the mutable fields of the subscription from the
// request. The overwrite is verbatim, including CreatedAt/UpdatedAt; the
// service layer re-stamps UpdatedAt as part of the same operation. Note that
// ConvertedAmount and NextSubscriptionDate are not touched here.
func (s *Subscription) ApplyRequest(req SubscriptionRequest) {
	s.Name = req.Name
	s.Currency = req.FromCurrency
	s.Amount = req.Amount
	s.BillingCycle = req.BillingCycle
	s.SubscriptionDate = req.SubscriptionDate
	s.CreatedAt = req.CreatedAt
	s.UpdatedAt = req.UpdatedAt
}

// Response maps the stored entity to its external representation.
func (s *Subscription) Response() SubscriptionResponse {
	return SubscriptionResponse{
		ID:                   s.ID,
		Name:                 s.Name,
		Currency:             s.Currency,
		Amount:               s.Amount,
		ConvertedAmount:      s.ConvertedAmount,
		BillingCycle:         s.BillingCycle,
		SubscriptionDate:     s.SubscriptionDate,
		NextSubscriptionDate: s.NextSubscriptionDate,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}
