package dtos

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
