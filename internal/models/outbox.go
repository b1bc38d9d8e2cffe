package models

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatusType string

const (
	OutboxStatusPending OutboxStatusType = "pending"
	OutboxStatusSent    OutboxStatusType = "sent"
	OutboxStatusFailed  OutboxStatusType = "failed"
)

// OutboxMessage is a notification queued by a state change and delivered
// later by the outbox drainer.
type OutboxMessage struct {
	ID             uuid.UUID        `json:"id"`
	Channel        ChannelType      `json:"channel"`
	Template       string           `json:"template"`
	RecipientName  string           `json:"recipient_name"`
	RecipientEmail string           `json:"recipient_email,omitempty"`
	RecipientPhone string           `json:"recipient_phone,omitempty"`
	Subject        string           `json:"subject,omitempty"`
	TextBody       string           `json:"text_body"`
	HTMLBody       string           `json:"html_body,omitempty"`
	CustomerID     *uuid.UUID       `json:"customer_id,omitempty"`
	CleanerID      *uuid.UUID       `json:"cleaner_id,omitempty"`
	JobID          *uuid.UUID       `json:"job_id,omitempty"`
	Status         OutboxStatusType `json:"status"`
	Attempts       int              `json:"attempts"`
	LastError      *string          `json:"last_error,omitempty"`
	NextAttemptAt  time.Time        `json:"next_attempt_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
