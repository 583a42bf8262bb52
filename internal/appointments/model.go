// Package appointments materializes validated call extractions into
// appointment records and owns the intake flow that links calls, customers,
// and appointments together.
package appointments

import (
	"errors"
	"time"

	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
)

// ErrAppointmentNotFound is returned when no appointment matches the lookup.
var ErrAppointmentNotFound = errors.New("appointments: appointment not found")

// AppointmentStatus tracks an appointment through its life.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a service visit request produced from a call.
type Appointment struct {
	ID            string                 `json:"id"`
	CustomerID    string                 `json:"customer_id,omitempty"`
	CallID        string                 `json:"call_id,omitempty"`
	Service       string                 `json:"service"`
	PreferredDate string                 `json:"preferred_date,omitempty"`
	PreferredTime string                 `json:"preferred_time,omitempty"`
	Urgency       extraction.CallUrgency `json:"urgency,omitempty"`
	Address       string                 `json:"address,omitempty"`
	Budget        *float64               `json:"budget,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	Status        AppointmentStatus      `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// CreateParams carries the fields for a new appointment.
type CreateParams struct {
	CustomerID    string
	CallID        string
	Service       string
	PreferredDate string
	PreferredTime string
	Urgency       extraction.CallUrgency
	Address       string
	Budget        *float64
	Notes         string
}

// ListFilter narrows admin appointment listings.
type ListFilter struct {
	Status AppointmentStatus
	Limit  int
	Offset int
}
