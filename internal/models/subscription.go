package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatusType string

const (
	SubscriptionStatusActive    SubscriptionStatusType = "active"
	SubscriptionStatusPaused    SubscriptionStatusType = "paused"
	SubscriptionStatusCancelled SubscriptionStatusType = "cancelled"
)

type Subscription struct {
	ID                uuid.UUID              `json:"id"`
	CustomerID        uuid.UUID              `json:"customer_id"`
	Frequency         FrequencyType          `json:"frequency"`
	PreferredDay      time.Weekday           `json:"preferred_day"`
	PreferredTimeSlot string                 `json:"preferred_time_slot"`
	BasePriceCents    int64                  `json:"base_price_cents"`
	EstimatedHours    float64                `json:"estimated_hours"`
	Status            SubscriptionStatusType `json:"status"`
	StartsOn          time.Time              `json:"starts_on"`
	HorizonMonths     int                    `json:"horizon_months"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}
