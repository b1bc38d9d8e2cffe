package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type StripeEventHandler interface {
	HandleEvent(ctx context.Context, evt stripe.Event) error
}

type StripeWebhookController struct {
	secret        string
	allowUnsigned bool
	eventHandler  StripeEventHandler
	verifyOptions webhook.ConstructEventOptions
}

func NewStripeWebhookController(secret string, allowUnsigned bool, h StripeEventHandler) *StripeWebhookController {
	return &StripeWebhookController{
		secret:        secret,
		allowUnsigned: allowUnsigned,
		eventHandler:  h,
		verifyOptions: webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	}
}

// WebhookHandler -> POST /api/v1/webhooks/stripe
func (c *StripeWebhookController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body", nil, err)
		return
	}

	event, ok := c.verify(w, r, payload)
	if !ok {
		return
	}

	if err := c.eventHandler.HandleEvent(r.Context(), event); err != nil {
		// 5xx makes Stripe redeliver; the claim was released.
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to process webhook event", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.WebhookAckResponse{Received: true})
}

func (c *StripeWebhookController) verify(w http.ResponseWriter, r *http.Request, payload []byte) (stripe.Event, bool) {
	var event stripe.Event

	if c.secret == "" {
		if !c.allowUnsigned {
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeNotConfigured, "Webhook verification is not configured", nil,
			)
			return event, false
		}
		utils.Logger.Warn("STRIPE_WEBHOOK_SECRET is unset; accepting Stripe webhook WITHOUT signature verification")
		if err := json.Unmarshal(payload, &event); err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid webhook payload", nil, err)
			return event, false
		}
		return event, true
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing Stripe-Signature header", nil)
		return event, false
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.secret, c.verifyOptions)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeUnauthorized, "Webhook signature verification failed", nil, err,
		)
		return event, false
	}
	return event, true
}
