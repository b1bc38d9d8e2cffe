package models

import (
	"time"

	"github.com/google/uuid"
)

type CustomerStatusType string

const (
	CustomerStatusLead   CustomerStatusType = "lead"
	CustomerStatusActive CustomerStatusType = "active"
)

type Customer struct {
	ID               uuid.UUID          `json:"id"`
	FirstName        string             `json:"first_name"`
	LastName         string             `json:"last_name"`
	Email            string             `json:"email"`
	Phone            string             `json:"phone"`
	Address          string             `json:"address"`
	City             string             `json:"city"`
	State            string             `json:"state"`
	ZipCode          string             `json:"zip_code"`
	StripeCustomerID *string            `json:"stripe_customer_id,omitempty"`
	Status           CustomerStatusType `json:"status"`
	SMSOptOut        bool               `json:"sms_opt_out"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
