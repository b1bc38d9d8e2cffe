package payments

import (
	"context"
	"fmt"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/paymentmethod"
)

// StripeGateway talks to Stripe through the package-level client.
type StripeGateway struct {
	configured bool
}

// NewStripeGateway sets the global Stripe key. An empty key yields a
// gateway whose every call fails with a configuration error.
func NewStripeGateway(secretKey string) *StripeGateway {
	if secretKey == "" {
		utils.Logger.Warn("Stripe secret key is not set; payment operations will fail")
		return &StripeGateway{}
	}
	stripe.Key = secretKey
	return &StripeGateway{configured: true}
}

func (g *StripeGateway) check() error {
	if !g.configured {
		return fmt.Errorf("stripe: %w", utils.ErrNotConfigured)
	}
	return nil
}

func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, info CustomerInfo) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}

	lp := &stripe.CustomerListParams{Email: stripe.String(info.Email)}
	lp.Limit = stripe.Int64(1)
	lp.Context = ctx
	iter := customer.List(lp)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", err
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(info.Email),
		Name:  stripe.String(info.Name),
	}
	if info.Phone != "" {
		params.Phone = stripe.String(info.Phone)
	}
	params.Context = ctx
	c, err := customer.New(params)
	if err != nil {
		return "", err
	}
	utils.Logger.WithField("stripe_customer_id", c.ID).Info("Created Stripe customer")
	return c.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := g.check(); err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:          stripe.String(req.CustomerID),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(constants.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripe.String("off_session"),
			Metadata:         req.Metadata,
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) PaymentMethodForIntent(ctx context.Context, paymentIntentID string) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(paymentIntentID, params)
	if err != nil {
		return "", err
	}
	if pi.PaymentMethod == nil {
		return "", nil
	}
	return pi.PaymentMethod.ID, nil
}

func (g *StripeGateway) DefaultPaymentMethod(ctx context.Context, customerID string) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	lp := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	lp.Limit = stripe.Int64(1)
	lp.Context = ctx
	iter := paymentmethod.List(lp)
	if iter.Next() {
		return iter.PaymentMethod().ID, nil
	}
	return "", iter.Err()
}

func (g *StripeGateway) ChargeOffSession(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(constants.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Description:   stripe.String(req.Description),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Metadata:      req.Metadata,
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return &ChargeResult{PaymentIntentID: pi.ID, Status: string(pi.Status)},
			fmt.Errorf("payment intent %s ended in status %s", pi.ID, pi.Status)
	}
	return &ChargeResult{PaymentIntentID: pi.ID, Status: string(pi.Status)}, nil
}
