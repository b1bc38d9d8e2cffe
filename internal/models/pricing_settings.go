package models

import (
	"encoding/json"
	"time"
)

// PricingSettingsRecord is one saved version of the admin pricing overrides.
// Overrides holds a partial settings object merged over the built-in defaults.
type PricingSettingsRecord struct {
	Version   int64           `json:"version"`
	Overrides json.RawMessage `json:"overrides"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
