package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is a confirmed booking of a product for a date range.
// It is created only by a successful reservation commit and is never
// mutated afterwards.
type Reservation struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Interval returns the booked date range of the reservation.
func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartDate, End: r.EndDate}
}
