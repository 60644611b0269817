package scheduling

import "time"

// Default clinic operating hours, used when a clinic has no hours of its own.
const (
	DefaultOpenMinute  = 10 * 60 // 10:00
	DefaultCloseMinute = 20 * 60 // 20:00
)

// CandidateSlot is an offerable start time for one date. Ephemeral: produced
// for presentation, never persisted.
type CandidateSlot struct {
	StartMinute int
	Label       string
	Booked      bool
}

// Interval of the slot given the service duration it was generated for.
func (s CandidateSlot) Interval(durationMinutes int) Interval {
	return Interval{StartMinute: s.StartMinute, DurationMinutes: durationMinutes}
}

// GenerateSlots emits the ordered candidate start times for one calendar day.
// Starting at openMinute it steps by durationMinutes and stops before any slot
// that would extend past closeMinute; such a slot is dropped, not truncated.
// When date is the current day, start times at or before "now" are omitted.
func GenerateSlots(date time.Time, durationMinutes, openMinute, closeMinute int, now time.Time) []CandidateSlot {
	if durationMinutes <= 0 {
		return nil
	}
	if openMinute < 0 || closeMinute > minutesPerDay || openMinute >= closeMinute {
		return nil
	}

	today := sameCalendarDay(date, now)
	nowMinute := MinuteOfDay(now)

	var slots []CandidateSlot
	for start := openMinute; start+durationMinutes <= closeMinute; start += durationMinutes {
		if today && start <= nowMinute {
			continue
		}
		slots = append(slots, CandidateSlot{
			StartMinute: start,
			Label:       Label12Hour(start),
		})
	}
	return slots
}
