package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionEvent is published to the message broker when a subscription is
// created, updated or deleted. The routing key carries the event kind.
type SubscriptionEvent struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
