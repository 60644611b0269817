package scheduling

// FallbackDurationMinutes is substituted when a ledger entry's service can no
// longer be resolved to a duration. Callers must surface the substitution in
// logs and metrics; it is never applied silently.
const FallbackDurationMinutes = 30

// Interval is a half-open [start, start+duration) span of minutes within one
// calendar day.
type Interval struct {
	StartMinute     int
	DurationMinutes int
}

// EndMinute is the exclusive end of the interval.
func (iv Interval) EndMinute() int { return iv.StartMinute + iv.DurationMinutes }

// Overlaps reports whether two half-open intervals share at least one instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.StartMinute < other.EndMinute() && iv.EndMinute() > other.StartMinute
}

// LedgerEntry is an existing active appointment interval for the dentist and
// date under consideration. Cancelled entries must be filtered out before the
// ledger is handed to the detector.
type LedgerEntry struct {
	StartMinute     int
	DurationMinutes int
}

// Interval returns the entry's span, substituting the fallback duration when
// the stored value is missing.
func (e LedgerEntry) Interval() Interval {
	d, _ := ResolveDuration(e.DurationMinutes)
	return Interval{StartMinute: e.StartMinute, DurationMinutes: d}
}

// ResolveDuration returns the duration to use for conflict arithmetic and
// whether the fallback was substituted for a missing value.
func ResolveDuration(minutes int) (int, bool) {
	if minutes <= 0 {
		return FallbackDurationMinutes, true
	}
	return minutes, false
}

// IsBooked reports whether the candidate interval overlaps any ledger entry.
// Pure predicate: no I/O, no writes, no domain errors.
func IsBooked(candidate Interval, entries []LedgerEntry) bool {
	_, conflict := FindConflict(candidate, entries)
	return conflict
}

// FindConflict returns the interval of the first ledger entry overlapping the
// candidate, so callers can report which booking is in the way.
func FindConflict(candidate Interval, entries []LedgerEntry) (Interval, bool) {
	for _, entry := range entries {
		if iv := entry.Interval(); candidate.Overlaps(iv) {
			return iv, true
		}
	}
	return Interval{}, false
}

// MarkBooked flags every candidate whose interval overlaps the ledger. The
// input order is preserved.
func MarkBooked(slots []CandidateSlot, durationMinutes int, entries []LedgerEntry) []CandidateSlot {
	for i := range slots {
		slots[i].Booked = IsBooked(slots[i].Interval(durationMinutes), entries)
	}
	return slots
}

// CountFallbacks reports how many entries needed the fallback duration, for
// callers to log and count in telemetry.
func CountFallbacks(entries []LedgerEntry) int {
	n := 0
	for _, entry := range entries {
		if _, fallback := ResolveDuration(entry.DurationMinutes); fallback {
			n++
		}
	}
	return n
}
