package dtos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type CreateSubscriptionRequest struct {
	CustomerID        uuid.UUID            `json:"customer_id" validate:"required"`
	Frequency         models.FrequencyType `json:"frequency" validate:"required,oneof=weekly biweekly monthly"`
	PreferredDay      time.Weekday         `json:"preferred_day" validate:"min=0,max=6"`
	PreferredTimeSlot string               `json:"preferred_time_slot" validate:"omitempty,max=50"`
	Sqft              int                  `json:"sqft" validate:"required,min=1,max=20000"`
	Bedrooms          int                  `json:"bedrooms" validate:"min=0,max=20"`
	Bathrooms         float64              `json:"bathrooms" validate:"min=0,max=20"`
	BasePriceCents    *int64               `json:"base_price_cents,omitempty" validate:"omitempty,min=1"`
	StartsOn          *string              `json:"starts_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	HorizonMonths     int                  `json:"horizon_months,omitempty" validate:"omitempty,min=1,max=12"`
	Notes             string               `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type CreateSubscriptionResponse struct {
	Subscription *models.Subscription `json:"subscription"`
	JobsCreated  int                  `json:"jobs_created"`
	DatesSkipped []string             `json:"dates_skipped"`
}

type CancelSubscriptionResponse struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	JobsCancelled  int64     `json:"jobs_cancelled"`
}

type AssignCleanerResponse struct {
	JobID                    uuid.UUID  `json:"job_id"`
	Assigned                 bool       `json:"assigned"`
	CleanerID                *uuid.UUID `json:"cleaner_id,omitempty"`
	CleanerName              string     `json:"cleaner_name,omitempty"`
	RequiresManualAssignment bool       `json:"requires_manual_assignment"`
}

type ChargeBalancesRequest struct {
	// Date defaults to today in the business time zone.
	Date string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ChargeResult struct {
	JobID           uuid.UUID `json:"job_id"`
	Success         bool      `json:"success"`
	AmountCents     int64     `json:"amount_cents"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	Error           string    `json:"error,omitempty"`
}

type ChargeBalancesResponse struct {
	Date      string         `json:"date"`
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []ChargeResult `json:"results"`
}

type JobResponse struct {
	Job *models.Job `json:"job"`
}

type PricingSettingsResponse struct {
	Version   int64           `json:"version"`
	Settings  any             `json:"settings"`
	Overrides json.RawMessage `json:"overrides,omitempty"`
}

type UpdatePricingSettingsRequest struct {
	Overrides json.RawMessage `json:"overrides" validate:"required"`
}

type RecordRatingRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type TaskRequest struct {
	Task string `json:"task" validate:"required"`
}

type TaskResponse struct {
	Task   string `json:"task"`
	Result any    `json:"result"`
}
