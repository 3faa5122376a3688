package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrIntervalInverted = errors.New("interval start is after its end")

// Interval is a closed date range [Start, End], both ends inclusive,
// at calendar-day granularity. Start == End denotes a single-day booking.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds a day-truncated interval and rejects inverted ranges.
func NewInterval(start, end time.Time) (Interval, error) {
	start = TruncateToDay(start)
	end = TruncateToDay(end)
	if start.After(end) {
		return Interval{}, ErrIntervalInverted
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether i and other share at least one calendar day.
// Both boundaries are inclusive, so an interval ending on day D conflicts
// with one starting on day D.
func (i Interval) Overlaps(other Interval) bool {
	return !i.Start.After(other.End) && !i.End.Before(other.Start)
}

// ContainsDay reports whether the calendar day of t falls inside i.
func (i Interval) ContainsDay(t time.Time) bool {
	day := TruncateToDay(t)
	return !day.Before(i.Start) && !day.After(i.End)
}

// Days enumerates every calendar day in the interval, in order.
func (i Interval) Days() []time.Time {
	var days []time.Time
	for d := i.Start; !d.After(i.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", i.Start.Format("2006-01-02"), i.End.Format("2006-01-02"))
}

// TruncateToDay drops the time-of-day component, normalizing to UTC so
// that two timestamps on the same calendar day compare equal.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports calendar-date equality regardless of time of day.
func SameDay(a, b time.Time) bool {
	return TruncateToDay(a).Equal(TruncateToDay(b))
}
