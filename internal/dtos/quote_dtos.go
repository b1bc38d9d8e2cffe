package dtos

import (
	"github.com/shopspring/decimal"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/pricing"
)

type QuoteRequest struct {
	Sqft      int                  `json:"sqft" validate:"required,min=1,max=20000"`
	Bedrooms  int                  `json:"bedrooms" validate:"min=0,max=20"`
	Bathrooms float64              `json:"bathrooms" validate:"min=0,max=20"`
	Frequency models.FrequencyType `json:"frequency" validate:"required,oneof=onetime weekly biweekly monthly"`
}

func (r QuoteRequest) Input() pricing.Input {
	return pricing.Input{
		Sqft:      r.Sqft,
		Bedrooms:  r.Bedrooms,
		Bathrooms: r.Bathrooms,
		Frequency: r.Frequency,
	}
}

type QuoteResponse struct {
	Frequency            models.FrequencyType `json:"frequency"`
	EstimatedHours       decimal.Decimal      `json:"estimated_hours"`
	RecurringPrice       decimal.Decimal      `json:"recurring_price"`
	FirstCleanPrice      decimal.Decimal      `json:"first_clean_price"`
	RecurringPriceCents  int64                `json:"recurring_price_cents"`
	FirstCleanPriceCents int64                `json:"first_clean_price_cents"`
	DepositCents         int64                `json:"deposit_cents"`
	DiscountApplied      bool                 `json:"discount_applied"`
	SettingsVersion      int64                `json:"settings_version"`
}

func NewQuoteResponse(q pricing.Quote, depositPercent int, settingsVersion int64) QuoteResponse {
	return QuoteResponse{
		Frequency:            q.Frequency,
		EstimatedHours:       q.EstimatedHours,
		RecurringPrice:       q.RecurringPrice,
		FirstCleanPrice:      q.FirstCleanPrice,
		RecurringPriceCents:  q.RecurringCents(),
		FirstCleanPriceCents: q.FirstCleanCents(),
		DepositCents:         pricing.DepositCents(q.FirstCleanCents(), depositPercent),
		DiscountApplied:      q.DiscountApplied,
		SettingsVersion:      settingsVersion,
	}
}
