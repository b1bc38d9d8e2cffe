package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ActivityAction string

const (
	ActivityBookingConfirmed   ActivityAction = "booking_confirmed"
	ActivityBookingNeedsReview ActivityAction = "booking_needs_review"
	ActivityCleanerAssigned    ActivityAction = "cleaner_assigned"
	ActivityManualAssignment   ActivityAction = "manual_assignment_required"
	ActivityBalanceCharged     ActivityAction = "balance_charged"
	ActivityBalanceChargeFail  ActivityAction = "balance_charge_failed"
	ActivityJobCompleted       ActivityAction = "job_completed"
	ActivityJobCancelled       ActivityAction = "job_cancelled"
	ActivityJobRated           ActivityAction = "job_rated"
	ActivitySubscriptionCreate ActivityAction = "subscription_created"
	ActivitySubscriptionCancel ActivityAction = "subscription_cancelled"
	ActivitySMSOptOut          ActivityAction = "sms_opt_out"
	ActivitySMSOptIn           ActivityAction = "sms_opt_in"
	ActivityPricingUpdated     ActivityAction = "pricing_settings_updated"
)

type ActivityTargetType string

const (
	TargetJob          ActivityTargetType = "job"
	TargetCustomer     ActivityTargetType = "customer"
	TargetCleaner      ActivityTargetType = "cleaner"
	TargetSubscription ActivityTargetType = "subscription"
	TargetSettings     ActivityTargetType = "pricing_settings"
)

// ActivityLogEntry is the append-only audit trail of state changes.
type ActivityLogEntry struct {
	ID         uuid.UUID          `json:"id"`
	Actor      string             `json:"actor"`
	Action     ActivityAction     `json:"action"`
	TargetType ActivityTargetType `json:"target_type"`
	TargetID   *uuid.UUID         `json:"target_id,omitempty"`
	Details    *json.RawMessage   `json:"details,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}
