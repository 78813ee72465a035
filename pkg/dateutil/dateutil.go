package dateutil

import (
	"fmt"
	"time"
)

// Date truncates t to the beginning of its day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func BeginningOfDay(t time.Time) time.Time {
	return Date(t)
}

// NextDay returns the beginning of the day after t.
func NextDay(t time.Time) time.Time {
	return Date(t).AddDate(0, 0, 1)
}

// CurrentWeek returns the beginning of Monday of the week containing t.
func CurrentWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	return Date(t).AddDate(0, 0, 1-weekday)
}

func LastWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -7)
}

func LastMonth(t time.Time) time.Time {
	return t.AddDate(0, -1, 0)
}

func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ClockTime is a wall clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// NextOccurrence returns the next time after now falling on the given
// weekday at the given wall clock time, in the location of now. If the
// occurrence of the current week is already past, the result moves forward
// exactly one week, keeping the same wall clock time across DST changes.
func NextOccurrence(now time.Time, weekday time.Weekday, at ClockTime) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(),
		at.Hour, at.Minute, at.Second, 0, now.Location()).AddDate(0, 0, days)

	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}

	return next
}

// FormatCountdown renders a duration with a precision adapted to its
// magnitude.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	d = d.Round(time.Second)
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
