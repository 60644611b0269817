// Package appointments owns the booking ledger: the active appointment rows
// that conflict checks run against.
package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is an appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusMissed    Status = "missed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

// Appointment is one ledger entry. DurationMinutes is resolved from the
// service at creation time so later catalog edits never move an existing
// booking's interval.
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	ClinicID        string    `json:"clinic_id"`
	DentistID       uuid.UUID `json:"dentist_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	ServiceID       uuid.UUID `json:"service_id"`
	Date            time.Time `json:"date"`
	StartMinute     int       `json:"start_minute"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// EndMinute is the exclusive end of the appointment's interval.
func (a *Appointment) EndMinute() int {
	return a.StartMinute + a.DurationMinutes
}
