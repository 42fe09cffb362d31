package ledger

import "time"

// =============================================================================
// DAY - Calendar-date key for daily gates and counters
// =============================================================================

// Day is a calendar date in "2006-01-02" form. Days sort correctly as
// strings, which the bounded counter retention relies on.
type Day string

const dayLayout = "2006-01-02"

// DayOf returns the Day a time falls on, in UTC.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayLayout))
}

// Today returns the current Day.
func Today() Day { return DayOf(time.Now()) }

// Time returns midnight UTC of the day. Zero time if malformed.
func (d Day) Time() time.Time {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n days later (negative n for earlier).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Prev returns the previous calendar day.
func (d Day) Prev() Day { return d.AddDays(-1) }

// Before reports whether d is an earlier date than other.
func (d Day) Before(other Day) bool { return d < other }
