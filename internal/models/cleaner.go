package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Cleaner struct {
	Versioned

	ID               uuid.UUID      `json:"id"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	Active           bool           `json:"active"`
	AvailableDays    []time.Weekday `json:"available_days"`
	ServiceAreas     []string       `json:"service_areas"` // zip codes; empty = serves everywhere
	LastAssignedAt   *time.Time     `json:"last_assigned_at,omitempty"`
	TotalAssignments int            `json:"total_assignments"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (c *Cleaner) GetID() string {
	return c.ID.String()
}

func (c *Cleaner) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

func (c *Cleaner) AvailableOn(day time.Weekday) bool {
	return slices.Contains(c.AvailableDays, day)
}

func (c *Cleaner) Serves(zip string) bool {
	return len(c.ServiceAreas) == 0 || zip == "" || slices.Contains(c.ServiceAreas, zip)
}
