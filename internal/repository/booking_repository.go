package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorakhpur-rentals/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
)

// BookingRepository defines read access to confirmed reservations
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListAll(ctx context.Context) ([]*domain.Reservation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error)
}

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new instance of BookingRepository
func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// FindByID retrieves a single reservation
func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	query := `
		SELECT id, product_id, user_id, start_date, end_date, created_at
		FROM bookings
		WHERE id = $1
	`

	reservation := &domain.Reservation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reservation.ID,
		&reservation.ProductID,
		&reservation.UserID,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}

	return reservation, nil
}

// ListAll retrieves every reservation, newest first (admin surface)
func (r *bookingRepository) ListAll(ctx context.Context) ([]*domain.Reservation, error) {
	query := `
		SELECT id, product_id, user_id, start_date, end_date, created_at
		FROM bookings
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListByUser retrieves the reservations held by one user, newest first
func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	query := `
		SELECT id, product_id, user_id, start_date, end_date, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := []*domain.Reservation{}
	for rows.Next() {
		reservation := &domain.Reservation{}
		err := rows.Scan(
			&reservation.ID,
			&reservation.ProductID,
			&reservation.UserID,
			&reservation.StartDate,
			&reservation.EndDate,
			&reservation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return reservations, nil
}
