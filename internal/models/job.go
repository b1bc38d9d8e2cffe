package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatusType string

const (
	JobStatusLead             JobStatusType = "lead"
	JobStatusPaymentInitiated JobStatusType = "payment_initiated"
	JobStatusConfirmed        JobStatusType = "confirmed"
	JobStatusCompleted        JobStatusType = "completed"
	JobStatusChargeFailed     JobStatusType = "charge_failed"
	JobStatusCancelled        JobStatusType = "cancelled"
)

type PaymentStatusType string

const (
	PaymentStatusUnpaid      PaymentStatusType = "unpaid"
	PaymentStatusScheduled   PaymentStatusType = "scheduled" // recurring job, card on file, charged day-of
	PaymentStatusDepositPaid PaymentStatusType = "deposit_paid"
	PaymentStatusPaid        PaymentStatusType = "paid"
	PaymentStatusFailed      PaymentStatusType = "failed"
)

type FrequencyType string

const (
	FrequencyOnetime  FrequencyType = "onetime"
	FrequencyWeekly   FrequencyType = "weekly"
	FrequencyBiweekly FrequencyType = "biweekly"
	FrequencyMonthly  FrequencyType = "monthly"
)

func (f FrequencyType) Valid() bool {
	switch f {
	case FrequencyOnetime, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

func (f FrequencyType) Recurring() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly || f == FrequencyMonthly
}

// jobTransitions lists, for each target status, the statuses it may be
// reached from. Statuses only move forward; charge_failed and cancelled
// are side branches.
var jobTransitions = map[JobStatusType][]JobStatusType{
	JobStatusPaymentInitiated: {JobStatusLead},
	JobStatusConfirmed:        {JobStatusLead, JobStatusPaymentInitiated, JobStatusChargeFailed},
	JobStatusCompleted:        {JobStatusConfirmed},
	JobStatusChargeFailed:     {JobStatusConfirmed},
	JobStatusCancelled:        {JobStatusLead, JobStatusPaymentInitiated, JobStatusConfirmed, JobStatusChargeFailed},
}

// AllowedFrom returns the statuses a job may hold before moving to `to`.
func AllowedFrom(to JobStatusType) []JobStatusType {
	return jobTransitions[to]
}

// CanTransition reports whether a job can move from `from` to `to`.
func CanTransition(from, to JobStatusType) bool {
	for _, s := range jobTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal is true for statuses no action moves a job out of.
func (s JobStatusType) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

type Job struct {
	Versioned

	ID             uuid.UUID     `json:"id"`
	CustomerID     uuid.UUID     `json:"customer_id"`
	SubscriptionID *uuid.UUID    `json:"subscription_id,omitempty"`
	Sqft           int           `json:"sqft"`
	Bedrooms       int           `json:"bedrooms"`
	Bathrooms      float64       `json:"bathrooms"`
	Frequency      FrequencyType `json:"frequency"`

	FirstCleanPriceCents int64   `json:"first_clean_price_cents"`
	RecurringPriceCents  int64   `json:"recurring_price_cents"`
	TotalPriceCents      int64   `json:"total_price_cents"`
	DepositAmountCents   int64   `json:"deposit_amount_cents"`
	RemainingAmountCents int64   `json:"remaining_amount_cents"`
	EstimatedHours       float64 `json:"estimated_hours"`

	Status        JobStatusType     `json:"status"`
	PaymentStatus PaymentStatusType `json:"payment_status"`

	ScheduledDate time.Time `json:"scheduled_date"`
	TimeSlot      string    `json:"time_slot"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Notes   string `json:"notes,omitempty"`

	CleanerID                *uuid.UUID `json:"cleaner_id,omitempty"`
	RequiresManualAssignment bool       `json:"requires_manual_assignment"`
	// NeedsReview marks a paid booking that landed on a date the customer
	// already holds. It is skipped by assignment and charging.
	NeedsReview bool `json:"needs_review"`

	StripeCheckoutSessionID *string    `json:"stripe_checkout_session_id,omitempty"`
	StripePaymentMethodID   *string    `json:"stripe_payment_method_id,omitempty"`
	RemainingPaidAt         *time.Time `json:"remaining_paid_at,omitempty"`
	LastChargeError         *string    `json:"last_charge_error,omitempty"`

	Rating      *int       `json:"rating,omitempty"`
	RatedAt     *time.Time `json:"rated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j *Job) GetID() string {
	return j.ID.String()
}
