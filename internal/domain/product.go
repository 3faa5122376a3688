package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a rentable item in the catalog
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PricePerDay float64   `json:"price_per_day" db:"price_per_day"`
	Category    string    `json:"category" db:"category"`
	Color       string    `json:"color" db:"color"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	IsBookable  bool      `json:"is_bookable" db:"is_bookable"`
	Version     int64     `json:"-" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// BookedInterval is a confirmed reservation held against a product.
type BookedInterval struct {
	Interval
	HolderID uuid.UUID `json:"holder_id"`
}

// ProductSnapshot is the read-only booking state of a single product:
// the bookable flag, every confirmed interval, and the optional
// allow-list of open calendar days. Availability rules are evaluated
// against a snapshot, never against live storage.
type ProductSnapshot struct {
	ProductID       uuid.UUID
	IsBookable      bool
	BookedIntervals []BookedInterval
	AvailableDates  []time.Time
}

// HasAllowList reports whether the product restricts bookings to an
// explicit set of calendar days.
func (s *ProductSnapshot) HasAllowList() bool {
	return len(s.AvailableDates) > 0
}
