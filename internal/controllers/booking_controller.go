package controllers

import (
	"context"
	"net/http"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/pricing"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type Quoter interface {
	Quote(ctx context.Context, in pricing.Input) (pricing.Quote, int64, error)
}

type CheckoutStarter interface {
	StartCheckout(ctx context.Context, req dtos.CheckoutRequest) (*dtos.CheckoutResponse, error)
}

// BookingController serves the public booking funnel.
type BookingController struct {
	quotes   Quoter
	checkout CheckoutStarter
}

func NewBookingController(quotes Quoter, checkout CheckoutStarter) *BookingController {
	return &BookingController{quotes: quotes, checkout: checkout}
}

// POST /api/v1/quote
func (c *BookingController) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.QuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, version, err := c.quotes.Quote(r.Context(), req.Input())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewQuoteResponse(q, constants.DepositPercent, version))
}

// POST /api/v1/checkout
func (c *BookingController) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CheckoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.checkout.StartCheckout(r.Context(), req)
	if err != nil {
		utils.Logger.WithError(err).WithField("email", req.Email).Error("Checkout failed")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
