package dtos

import (
	"github.com/google/uuid"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

// CheckoutRequest is what the booking funnel posts after the customer picks
// a date. ClientTotal is informational only; the server re-quotes.
type CheckoutRequest struct {
	FirstName     string               `json:"first_name" validate:"required,min=1,max=100"`
	LastName      string               `json:"last_name" validate:"omitempty,max=100"`
	Email         string               `json:"email" validate:"required,email"`
	Phone         string               `json:"phone" validate:"required,min=10,max=20"`
	Address       string               `json:"address" validate:"required,min=3,max=255"`
	City          string               `json:"city" validate:"omitempty,max=100"`
	State         string               `json:"state" validate:"omitempty,max=14"`
	ZipCode       string               `json:"zip_code" validate:"required,min=5,max=10"`
	Sqft          int                  `json:"sqft" validate:"required,min=1,max=20000"`
	Bedrooms      int                  `json:"bedrooms" validate:"min=0,max=20"`
	Bathrooms     float64              `json:"bathrooms" validate:"min=0,max=20"`
	Frequency     models.FrequencyType `json:"frequency" validate:"required,oneof=onetime weekly biweekly monthly"`
	ScheduledDate string               `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	TimeSlot      string               `json:"time_slot" validate:"omitempty,max=50"`
	Notes         string               `json:"notes" validate:"omitempty,max=1000"`
	ClientTotal   *float64             `json:"client_total,omitempty" validate:"omitempty,gte=0"`
}

type CheckoutResponse struct {
	BookingID      uuid.UUID `json:"booking_id"`
	SessionID      string    `json:"session_id"`
	URL            string    `json:"url"`
	TotalCents     int64     `json:"total_cents"`
	DepositCents   int64     `json:"deposit_cents"`
	RemainingCents int64     `json:"remaining_cents"`
}
