package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentKindType string

const (
	PaymentKindDeposit   PaymentKindType = "deposit"
	PaymentKindRemaining PaymentKindType = "remaining_balance"
)

type Payment struct {
	ID                    uuid.UUID       `json:"id"`
	JobID                 uuid.UUID       `json:"job_id"`
	CustomerID            uuid.UUID       `json:"customer_id"`
	Kind                  PaymentKindType `json:"kind"`
	AmountCents           int64           `json:"amount_cents"`
	StripePaymentIntentID *string         `json:"stripe_payment_intent_id,omitempty"`
	Status                string          `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
}
