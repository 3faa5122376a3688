package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorakhpur-rentals/internal/availability"
	"gorakhpur-rentals/internal/domain"
	"gorakhpur-rentals/internal/repository"

	"github.com/google/uuid"
)

const (
	// DefaultMaxCommitAttempts bounds the optimistic retry loop when a
	// concurrent writer wins the version race.
	DefaultMaxCommitAttempts = 3

	// DefaultCommitTimeout bounds each load+commit round trip.
	DefaultCommitTimeout = 5 * time.Second
)

var (
	ErrInvalidInterval    = errors.New("invalid booking interval")
	ErrContentionExceeded = errors.New("booking contention retries exhausted, try again")
)

// Rejection is a business-rule denial of a reservation: the product is
// disabled, the dates conflict with an existing booking, or the dates are
// not on the product's allow-list. Rejections are permanent for the given
// input; retrying the identical request cannot succeed.
type Rejection struct {
	Reason   availability.Reason
	Conflict *domain.Interval
}

func (r *Rejection) Error() string {
	if r.Conflict != nil {
		return fmt.Sprintf("booking rejected: %s (conflicts with %s)", r.Reason, r.Conflict)
	}
	return fmt.Sprintf("booking rejected: %s", r.Reason)
}

// Retryable distinguishes "will never succeed as given" from "may succeed
// if retried" for callers deciding between re-prompting and auto-retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrContentionExceeded)
}

// BookingService coordinates the check-then-commit reservation protocol
type BookingService interface {
	Reserve(ctx context.Context, productID uuid.UUID, start, end time.Time, requester uuid.UUID) (*domain.Reservation, error)
	CheckAvailability(ctx context.Context, productID uuid.UUID, start, end time.Time) (availability.Result, error)
	OpenDates(ctx context.Context, productID uuid.UUID) ([]time.Time, error)
	ListAll(ctx context.Context) ([]*domain.Reservation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error)
}

type bookingService struct {
	store       repository.BookingStore
	bookings    repository.BookingRepository
	maxAttempts int
	timeout     time.Duration
	now         func() time.Time
}

// NewBookingService creates a new instance of BookingService.
// maxAttempts and timeout fall back to defaults when non-positive.
func NewBookingService(store repository.BookingStore, bookings repository.BookingRepository, maxAttempts int, timeout time.Duration) BookingService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCommitAttempts
	}
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	return &bookingService{
		store:       store,
		bookings:    bookings,
		maxAttempts: maxAttempts,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Reserve grants the candidate interval to the requester if the product
// is free for it, guaranteeing that of two concurrent overlapping
// requests at most one succeeds. The commit is a conditional write keyed
// on the product version read with the snapshot; losing that race
// triggers a bounded re-evaluation against fresh state.
func (s *bookingService) Reserve(ctx context.Context, productID uuid.UUID, start, end time.Time, requester uuid.UUID) (*domain.Reservation, error) {
	candidate, err := s.validateInterval(start, end)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		reservation, committed, err := s.tryReserve(ctx, productID, candidate, requester)
		if err != nil {
			return nil, err
		}
		if committed {
			return reservation, nil
		}
		// Another writer bumped the version first; reload and re-check.
	}

	return nil, ErrContentionExceeded
}

func (s *bookingService) tryReserve(ctx context.Context, productID uuid.UUID, candidate domain.Interval, requester uuid.UUID) (*domain.Reservation, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot, version, err := s.store.LoadForUpdate(attemptCtx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to load booking state: %w", err)
	}

	// Authoritative re-check against the fresh snapshot.
	result := availability.Evaluate(snapshot, candidate)
	if !result.Available {
		return nil, false, &Rejection{Reason: result.Reason, Conflict: result.Conflict}
	}

	reservation := &domain.Reservation{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    requester,
		StartDate: candidate.Start,
		EndDate:   candidate.End,
		CreatedAt: s.now(),
	}

	committed, err := s.store.CommitIfVersion(attemptCtx, productID, version, reservation)
	if err != nil {
		return nil, false, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return reservation, committed, nil
}

// CheckAvailability runs the evaluator speculatively, without reserving
func (s *bookingService) CheckAvailability(ctx context.Context, productID uuid.UUID, start, end time.Time) (availability.Result, error) {
	candidate, err := s.validateInterval(start, end)
	if err != nil {
		return availability.Result{}, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot, _, err := s.store.LoadForUpdate(probeCtx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return availability.Result{}, err
		}
		return availability.Result{}, fmt.Errorf("failed to load booking state: %w", err)
	}

	return availability.Evaluate(snapshot, candidate), nil
}

// OpenDates returns the product's allow-list days not covered by any
// confirmed booking
func (s *bookingService) OpenDates(ctx context.Context, productID uuid.UUID) ([]time.Time, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot, _, err := s.store.LoadForUpdate(probeCtx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load booking state: %w", err)
	}

	return availability.OpenDates(snapshot), nil
}

// ListAll retrieves every reservation (admin)
func (s *bookingService) ListAll(ctx context.Context) ([]*domain.Reservation, error) {
	reservations, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return reservations, nil
}

// ListByUser retrieves the reservations held by one user
func (s *bookingService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	reservations, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	return reservations, nil
}

// validateInterval enforces start <= end and forbids intervals beginning
// before today, both at day granularity.
func (s *bookingService) validateInterval(start, end time.Time) (domain.Interval, error) {
	candidate, err := domain.NewInterval(start, end)
	if err != nil {
		return domain.Interval{}, ErrInvalidInterval
	}

	today := domain.TruncateToDay(s.now())
	if candidate.Start.Before(today) {
		return domain.Interval{}, ErrInvalidInterval
	}

	return candidate, nil
}
