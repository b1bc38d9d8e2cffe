package models

import (
	"time"

	"github.com/google/uuid"
)

type ChannelType string

const (
	ChannelSMS   ChannelType = "sms"
	ChannelEmail ChannelType = "email"
	ChannelBoth  ChannelType = "both"
)

type DirectionType string

const (
	DirectionOutbound DirectionType = "outbound"
	DirectionInbound  DirectionType = "inbound"
)

// CommunicationLogEntry is an append-only record of one SMS/email attempt.
type CommunicationLogEntry struct {
	ID                uuid.UUID     `json:"id"`
	CustomerID        *uuid.UUID    `json:"customer_id,omitempty"`
	CleanerID         *uuid.UUID    `json:"cleaner_id,omitempty"`
	JobID             *uuid.UUID    `json:"job_id,omitempty"`
	Channel           ChannelType   `json:"channel"`
	Direction         DirectionType `json:"direction"`
	Template          string        `json:"template"`
	Recipient         string        `json:"recipient"`
	Body              string        `json:"body"`
	ProviderMessageID *string       `json:"provider_message_id,omitempty"`
	Success           bool          `json:"success"`
	Error             *string       `json:"error,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}
