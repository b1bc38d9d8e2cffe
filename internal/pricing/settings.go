package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

// Settings holds every constant the price formula reads. Stored overrides are
// partial JSON objects of this shape merged over DefaultSettings.
type Settings struct {
	SqftBaseHours            float64                          `json:"sqft_base_hours"`
	SqftPerThousandHours     float64                          `json:"sqft_per_thousand_hours"`
	BathroomHours            float64                          `json:"bathroom_hours"`
	BedroomHours             float64                          `json:"bedroom_hours"`
	OrganicBuffer            float64                          `json:"organic_buffer"`
	HourlyRate               float64                          `json:"hourly_rate"`
	EfficiencyThresholdHours float64                          `json:"efficiency_threshold_hours"`
	EfficiencyDiscount       float64                          `json:"efficiency_discount"`
	FrequencyMultipliers     map[models.FrequencyType]float64 `json:"frequency_multipliers"`
	RoundTo                  float64                          `json:"round_to"`
	FirstCleanPremium        float64                          `json:"first_clean_premium"`
}

// DefaultSettings returns a fresh copy of the built-in constants.
func DefaultSettings() Settings {
	return Settings{
		SqftBaseHours:            2.0,
		SqftPerThousandHours:     1.0,
		BathroomHours:            0.5,
		BedroomHours:             0.25,
		OrganicBuffer:            1.10,
		HourlyRate:               55,
		EfficiencyThresholdHours: 5,
		EfficiencyDiscount:       0.10,
		FrequencyMultipliers: map[models.FrequencyType]float64{
			models.FrequencyOnetime:  1.35,
			models.FrequencyWeekly:   0.65,
			models.FrequencyBiweekly: 0.75,
			models.FrequencyMonthly:  0.90,
		},
		RoundTo:           5,
		FirstCleanPremium: 50,
	}
}

// Merge applies a partial JSON override on top of the defaults. Frequency
// multipliers merge key by key; unknown frequency keys are rejected.
func Merge(overrides json.RawMessage) (Settings, error) {
	s := DefaultSettings()
	if len(overrides) == 0 || string(overrides) == "null" {
		return s, nil
	}
	// DefaultSettings hands out a fresh map, so decoding into it merges keys.
	if err := json.Unmarshal(overrides, &s); err != nil {
		return Settings{}, fmt.Errorf("decode pricing overrides: %w", err)
	}
	if s.FrequencyMultipliers == nil {
		return Settings{}, fmt.Errorf("%w: frequency_multipliers must not be null", ErrInvalidSettings)
	}
	for f := range s.FrequencyMultipliers {
		if !f.Valid() {
			return Settings{}, fmt.Errorf("%w: unknown frequency %q in overrides", ErrInvalidSettings, f)
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings that would produce negative or nonsensical prices.
func (s Settings) Validate() error {
	checks := []struct {
		name string
		val  float64
	}{
		{"sqft_base_hours", s.SqftBaseHours},
		{"sqft_per_thousand_hours", s.SqftPerThousandHours},
		{"bathroom_hours", s.BathroomHours},
		{"bedroom_hours", s.BedroomHours},
		{"hourly_rate", s.HourlyRate},
		{"efficiency_threshold_hours", s.EfficiencyThresholdHours},
		{"round_to", s.RoundTo},
		{"first_clean_premium", s.FirstCleanPremium},
	}
	for _, c := range checks {
		if c.val < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSettings, c.name)
		}
	}
	if s.OrganicBuffer < 1 {
		return fmt.Errorf("%w: organic_buffer must be at least 1", ErrInvalidSettings)
	}
	if s.EfficiencyDiscount < 0 || s.EfficiencyDiscount >= 1 {
		return fmt.Errorf("%w: efficiency_discount must be in [0,1)", ErrInvalidSettings)
	}
	for _, f := range []models.FrequencyType{models.FrequencyOnetime, models.FrequencyWeekly, models.FrequencyBiweekly, models.FrequencyMonthly} {
		m, ok := s.FrequencyMultipliers[f]
		if !ok || m <= 0 {
			return fmt.Errorf("%w: frequency multiplier for %s must be positive", ErrInvalidSettings, f)
		}
	}
	return nil
}
