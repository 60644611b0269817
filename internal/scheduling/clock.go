// Package scheduling implements the slot generation and booking-conflict
// engine shared by every booking surface (patient self-booking and staff
// booking-on-behalf).
package scheduling

import "time"

// Clock supplies the current time. Slot generation reads "now" through this
// interface so past-time cutoffs stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }
