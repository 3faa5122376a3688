// Package availability decides whether a candidate date range can be
// granted against a product's current booking state. Evaluation is pure:
// it never touches storage, so it is safe both for speculative
// "check availability" probes and as the authoritative check re-run at
// commit time.
package availability

import (
	"sort"
	"time"

	"gorakhpur-rentals/internal/domain"
)

// Reason explains why a candidate interval was not granted.
type Reason string

const (
	ReasonProductDisabled Reason = "PRODUCT_DISABLED"
	ReasonDateConflict    Reason = "DATE_CONFLICT"
	ReasonDateNotOffered  Reason = "DATE_NOT_OFFERED"
)

// Result is the judgment for a single candidate interval. When the
// rejection is a booking conflict, Conflict carries the existing
// interval that collided, for user-facing messaging.
type Result struct {
	Available bool             `json:"available"`
	Reason    Reason           `json:"reason,omitempty"`
	Conflict  *domain.Interval `json:"conflict,omitempty"`
}

func available() Result {
	return Result{Available: true}
}

func unavailable(reason Reason) Result {
	return Result{Available: false, Reason: reason}
}

// Evaluate judges whether candidate can be granted against the snapshot.
// Rules, in order:
//  1. A product with the bookable flag off never grants anything.
//  2. The candidate must not overlap any confirmed interval. Overlap is
//     inclusive on both ends, so touching endpoints conflict.
//  3. If the product carries an allow-list of open days, every calendar
//     day of the candidate must be a member, by date equality.
func Evaluate(snapshot *domain.ProductSnapshot, candidate domain.Interval) Result {
	if !snapshot.IsBookable {
		return unavailable(ReasonProductDisabled)
	}

	for _, booked := range snapshot.BookedIntervals {
		if candidate.Overlaps(booked.Interval) {
			conflict := booked.Interval
			return Result{Available: false, Reason: ReasonDateConflict, Conflict: &conflict}
		}
	}

	if snapshot.HasAllowList() {
		offered := make(map[string]struct{}, len(snapshot.AvailableDates))
		for _, d := range snapshot.AvailableDates {
			offered[dayKey(d)] = struct{}{}
		}
		for _, day := range candidate.Days() {
			if _, ok := offered[dayKey(day)]; !ok {
				return unavailable(ReasonDateNotOffered)
			}
		}
	}

	return available()
}

// OpenDates returns the allow-list days that are not covered by any
// confirmed interval. Products without an allow-list return nil.
func OpenDates(snapshot *domain.ProductSnapshot) []time.Time {
	if !snapshot.HasAllowList() {
		return nil
	}

	open := make([]time.Time, 0, len(snapshot.AvailableDates))
	for _, d := range snapshot.AvailableDates {
		day := domain.TruncateToDay(d)
		booked := false
		for _, b := range snapshot.BookedIntervals {
			if b.ContainsDay(day) {
				booked = true
				break
			}
		}
		if !booked {
			open = append(open, day)
		}
	}

	sort.Slice(open, func(i, j int) bool { return open[i].Before(open[j]) })
	return open
}

func dayKey(t time.Time) string {
	return domain.TruncateToDay(t).Format("2006-01-02")
}
