package scheduling

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed or missing required field. The caller
// can recover by correcting input; it is never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports that the requested interval overlaps an existing
// active booking. It carries the conflicting interval so the caller can
// re-offer alternative slots.
type ConflictError struct {
	Conflicting Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with an existing booking from %s to %s",
		FormatMinute(e.Conflicting.StartMinute), FormatMinute(e.Conflicting.EndMinute()))
}

// AvailabilityError reports that the dentist has no configured window covering
// the requested date. Distinct from ConflictError so the UI can say "no
// schedule" rather than "already booked".
type AvailabilityError struct {
	DentistID string
	Date      time.Time
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("dentist %s has no availability on %s", e.DentistID, FormatDate(e.Date))
}

// NotFoundError reports that a referenced dentist, patient, service or clinic
// does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
