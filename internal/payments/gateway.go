package payments

import (
	"context"
)

// CustomerInfo identifies the payer when finding or creating a gateway customer.
type CustomerInfo struct {
	Email string
	Name  string
	Phone string
}

// CheckoutRequest describes a hosted deposit checkout.
type CheckoutRequest struct {
	CustomerID        string
	ClientReferenceID string
	AmountCents       int64
	ProductName       string
	Description       string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// ChargeRequest is an off-session charge against a saved payment method.
type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Description     string
	IdempotencyKey  string
	Metadata        map[string]string
}

type ChargeResult struct {
	PaymentIntentID string
	Status          string
}

// Gateway is the payment processor surface used by the booking flows.
type Gateway interface {
	FindOrCreateCustomer(ctx context.Context, info CustomerInfo) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// PaymentMethodForIntent returns the payment method attached to a
	// payment intent, or "" when it has none.
	PaymentMethodForIntent(ctx context.Context, paymentIntentID string) (string, error)
	// DefaultPaymentMethod returns the first saved card of the customer, or "".
	DefaultPaymentMethod(ctx context.Context, customerID string) (string, error)
	ChargeOffSession(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
