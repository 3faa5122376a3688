package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorakhpur-rentals/internal/domain"

	"github.com/google/uuid"
)

// BookingStore is the persistence collaborator of the reservation commit
// path. LoadForUpdate returns a product's booking snapshot together with
// an opaque version token; CommitIfVersion persists a new reservation
// only if the product row still carries that version, so a concurrent
// commit in between is detected as a lost race rather than silently
// double-booking the product.
type BookingStore interface {
	LoadForUpdate(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, int64, error)
	CommitIfVersion(ctx context.Context, productID uuid.UUID, version int64, reservation *domain.Reservation) (bool, error)
}

type bookingStore struct {
	db *sql.DB
}

// NewBookingStore creates a Postgres-backed BookingStore
func NewBookingStore(db *sql.DB) BookingStore {
	return &bookingStore{db: db}
}

// LoadForUpdate reads the product's bookable flag and version, its
// confirmed booking intervals, and its allow-list of available dates.
func (s *bookingStore) LoadForUpdate(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, int64, error) {
	snapshot := &domain.ProductSnapshot{ProductID: productID}

	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT is_bookable, version FROM products WHERE id = $1`,
		productID,
	).Scan(&snapshot.IsBookable, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, ErrProductNotFound
		}
		return nil, 0, fmt.Errorf("failed to load product for booking: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, start_date, end_date FROM bookings WHERE product_id = $1`,
		productID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load booked intervals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var booked domain.BookedInterval
		if err := rows.Scan(&booked.HolderID, &booked.Start, &booked.End); err != nil {
			return nil, 0, fmt.Errorf("failed to scan booked interval: %w", err)
		}
		booked.Start = domain.TruncateToDay(booked.Start)
		booked.End = domain.TruncateToDay(booked.End)
		snapshot.BookedIntervals = append(snapshot.BookedIntervals, booked)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating booked intervals: %w", err)
	}

	dateRows, err := s.db.QueryContext(ctx,
		`SELECT available_on FROM product_available_dates WHERE product_id = $1 ORDER BY available_on`,
		productID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load available dates: %w", err)
	}
	defer dateRows.Close()

	for dateRows.Next() {
		var day time.Time
		if err := dateRows.Scan(&day); err != nil {
			return nil, 0, fmt.Errorf("failed to scan available date: %w", err)
		}
		snapshot.AvailableDates = append(snapshot.AvailableDates, domain.TruncateToDay(day))
	}
	if err := dateRows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating available dates: %w", err)
	}

	return snapshot, version, nil
}

// CommitIfVersion appends the reservation in a single transaction guarded
// by a conditional version bump on the product row. Returns false without
// error when another writer committed first.
func (s *bookingStore) CommitIfVersion(ctx context.Context, productID uuid.UUID, version int64, reservation *domain.Reservation) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET version = version + 1, updated_at = NOW() WHERE id = $1 AND version = $2`,
		productID, version,
	)
	if err != nil {
		return false, fmt.Errorf("failed to bump product version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Lost the race or product disappeared; caller decides.
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, product_id, user_id, start_date, end_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reservation.ID,
		reservation.ProductID,
		reservation.UserID,
		reservation.StartDate,
		reservation.EndDate,
		reservation.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return true, nil
}
