package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// DateLayout is the wire format for clinic-local calendar days. Dates are
// naive: no time zone conversion is applied anywhere in the engine.
const DateLayout = "2006-01-02"

// ParseMinute converts a 24-hour "HH:MM" string to minutes from midnight.
func ParseMinute(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("scheduling: invalid time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("scheduling: invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("scheduling: invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

// FormatMinute renders minutes from midnight as 24-hour "HH:MM".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Label12Hour renders minutes from midnight as "h:mm AM/PM" for display.
func Label12Hour(m int) string {
	hour := m / 60
	minute := m % 60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

// ParseDate parses a clinic-local calendar day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduling: invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a calendar day in wire format.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// MinuteOfDay extracts minutes from midnight of an instant.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
