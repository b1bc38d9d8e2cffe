package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type SubscriptionManager interface {
	CreateSubscription(ctx context.Context, req dtos.CreateSubscriptionRequest) (*dtos.CreateSubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id uuid.UUID) (*dtos.CancelSubscriptionResponse, error)
}

type AdminSubscriptionsController struct {
	subs SubscriptionManager
}

func NewAdminSubscriptionsController(subs SubscriptionManager) *AdminSubscriptionsController {
	return &AdminSubscriptionsController{subs: subs}
}

// POST /api/v1/admin/subscriptions
func (c *AdminSubscriptionsController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateSubscriptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := c.subs.CreateSubscription(r.Context(), req)
	if err != nil {
		adminLogger(r, "CreateSubscriptionHandler").WithError(err).WithField("customer_id", req.CustomerID).
			Error("Subscription setup failed")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// POST /api/v1/admin/subscriptions/{id}/cancel
func (c *AdminSubscriptionsController) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := c.subs.CancelSubscription(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
