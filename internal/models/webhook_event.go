package models

import "time"

// ProcessedWebhookEvent marks a provider event id as applied.
type ProcessedWebhookEvent struct {
	Provider    string    `json:"provider"`
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
}
