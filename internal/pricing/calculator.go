// Package pricing turns home attributes and a cleaning frequency into a price
// and duration estimate. It has no I/O; callers pass in the settings version
// they loaded for the request.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

var (
	ErrInvalidInput    = errors.New("invalid_quote_input")
	ErrInvalidSettings = errors.New("invalid_pricing_settings")
)

const (
	MaxSqft      = 20000
	MaxBedrooms  = 20
	MaxBathrooms = 20
)

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
	one      = decimal.NewFromInt(1)
)

type Input struct {
	Sqft      int                  `json:"sqft"`
	Bedrooms  int                  `json:"bedrooms"`
	Bathrooms float64              `json:"bathrooms"`
	Frequency models.FrequencyType `json:"frequency"`
}

type Quote struct {
	Frequency       models.FrequencyType
	TotalHours      decimal.Decimal // buffered labour hours, unrounded
	EstimatedHours  decimal.Decimal // TotalHours to two places
	DiscountedPrice decimal.Decimal // after the efficiency discount, before the frequency multiplier
	DiscountApplied bool
	RecurringPrice  decimal.Decimal
	FirstCleanPrice decimal.Decimal
}

func (q Quote) RecurringCents() int64  { return ToCents(q.RecurringPrice) }
func (q Quote) FirstCleanCents() int64 { return ToCents(q.FirstCleanPrice) }

// EffectiveHourlyRate is the per-hour price before the frequency multiplier.
func (q Quote) EffectiveHourlyRate() decimal.Decimal {
	if q.TotalHours.IsZero() {
		return decimal.Zero
	}
	return q.DiscountedPrice.Div(q.TotalHours)
}

// Validate applies the bounds the booking UI normally clamps to.
func (in Input) Validate() error {
	if in.Sqft <= 0 || in.Sqft > MaxSqft {
		return fmt.Errorf("%w: sqft must be between 1 and %d", ErrInvalidInput, MaxSqft)
	}
	if in.Bedrooms < 0 || in.Bedrooms > MaxBedrooms {
		return fmt.Errorf("%w: bedrooms must be between 0 and %d", ErrInvalidInput, MaxBedrooms)
	}
	if in.Bathrooms < 0 || in.Bathrooms > MaxBathrooms {
		return fmt.Errorf("%w: bathrooms must be between 0 and %d", ErrInvalidInput, MaxBathrooms)
	}
	if !decimal.NewFromFloat(in.Bathrooms).Mul(decimal.NewFromInt(2)).IsInteger() {
		return fmt.Errorf("%w: bathrooms must be a multiple of 0.5", ErrInvalidInput)
	}
	if !in.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, in.Frequency)
	}
	return nil
}

// Calculate prices one home.
func Calculate(s Settings, in Input) (Quote, error) {
	if err := in.Validate(); err != nil {
		return Quote{}, err
	}

	hours := EstimateHours(s, in)

	raw := hours.Mul(dec(s.HourlyRate))
	discounted := raw
	discountApplied := false
	if hours.GreaterThan(dec(s.EfficiencyThresholdHours)) {
		discounted = raw.Mul(one.Sub(dec(s.EfficiencyDiscount)))
		discountApplied = true
	}

	mult, ok := s.FrequencyMultipliers[in.Frequency]
	if !ok {
		return Quote{}, fmt.Errorf("%w: no multiplier for frequency %q", ErrInvalidSettings, in.Frequency)
	}
	recurring := roundTo(discounted.Mul(dec(mult)), dec(s.RoundTo))

	return Quote{
		Frequency:       in.Frequency,
		TotalHours:      hours,
		EstimatedHours:  hours.Round(2),
		DiscountedPrice: discounted,
		DiscountApplied: discountApplied,
		RecurringPrice:  recurring,
		FirstCleanPrice: recurring.Add(dec(s.FirstCleanPremium)),
	}, nil
}

// EstimateHours is the buffered labour estimate on its own; subscriptions use
// it for job durations without needing a price.
func EstimateHours(s Settings, in Input) decimal.Decimal {
	sqft := decimal.NewFromInt(int64(in.Sqft))
	base := dec(s.SqftBaseHours)
	if in.Sqft >= 1000 {
		base = base.Add(sqft.Sub(thousand).Div(thousand).Mul(dec(s.SqftPerThousandHours)))
	}
	rooms := dec(in.Bathrooms).Mul(dec(s.BathroomHours)).
		Add(decimal.NewFromInt(int64(in.Bedrooms)).Mul(dec(s.BedroomHours)))

	return base.Add(rooms).Mul(dec(s.OrganicBuffer))
}

// ToCents converts a dollar amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// DepositCents is the deposit share of a total, in cents.
func DepositCents(totalCents int64, percent int) int64 {
	return decimal.NewFromInt(totalCents).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
}

func roundTo(d, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return d.Round(2)
	}
	r := d.Div(step).Round(0).Mul(step)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
