package transport

import (
	"errors"
	"net/http"
	"time"

	"gorakhpur-rentals/internal/availability"
	"gorakhpur-rentals/internal/domain"
	"gorakhpur-rentals/internal/middleware"
	"gorakhpur-rentals/internal/repository"
	"gorakhpur-rentals/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReserveRequest represents the reservation request payload. Dates are
// calendar days in YYYY-MM-DD form.
type ReserveRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// AvailabilityRequest represents a speculative availability probe
type AvailabilityRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// ReservationResponse represents a confirmed reservation
type ReservationResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CreatedAt string `json:"created_at"`
}

const dateLayout = "2006-01-02"

// BookingHandler handles HTTP requests for reservations and availability
type BookingHandler struct {
	bookingService service.BookingService
	logger         *zap.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// RegisterRoutes registers booking and availability routes. rateLimiter
// guards the reservation commit path.
func (h *BookingHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, rateLimiter)
			r.Post("/", h.Reserve)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/me", h.ListMine)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Get("/", h.ListAll)
		})
	})

	r.Route("/api/products/{id}", func(r chi.Router) {
		r.Post("/availability", h.CheckAvailability)
		r.Get("/open-dates", h.OpenDates)
	})
}

// Reserve handles a reservation request
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user identity")
		return
	}

	var req ReserveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "dates must be in YYYY-MM-DD form")
		return
	}

	reservation, err := h.bookingService.Reserve(r.Context(), productID, start, end, userID)
	if err != nil {
		h.respondReserveError(w, err)
		return
	}

	h.logger.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("product_id", productID.String()),
		zap.String("user_id", userID.String()),
	)

	middleware.RespondWithJSON(w, http.StatusCreated, ReservationResponse{
		ID:        reservation.ID.String(),
		ProductID: reservation.ProductID.String(),
		UserID:    reservation.UserID.String(),
		StartDate: reservation.StartDate.Format(dateLayout),
		EndDate:   reservation.EndDate.Format(dateLayout),
		CreatedAt: reservation.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) respondReserveError(w http.ResponseWriter, err error) {
	var rejection *service.Rejection
	switch {
	case errors.Is(err, service.ErrInvalidInterval):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid booking interval")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.As(err, &rejection):
		h.respondRejection(w, rejection)
	case errors.Is(err, service.ErrContentionExceeded):
		middleware.RespondWithError(w, http.StatusConflict, "product is in high demand, please try again")
	default:
		h.logger.Error("Reservation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create booking")
	}
}

func (h *BookingHandler) respondRejection(w http.ResponseWriter, rejection *service.Rejection) {
	details := map[string]interface{}{"reason": string(rejection.Reason)}
	if rejection.Conflict != nil {
		details["conflict"] = map[string]string{
			"start_date": rejection.Conflict.Start.Format(dateLayout),
			"end_date":   rejection.Conflict.End.Format(dateLayout),
		}
	}

	switch rejection.Reason {
	case availability.ReasonDateConflict:
		middleware.RespondWithErrorDetails(w, http.StatusConflict, "product is already booked for these dates", details)
	case availability.ReasonDateNotOffered:
		middleware.RespondWithErrorDetails(w, http.StatusUnprocessableEntity, "product is not offered on these dates", details)
	case availability.ReasonProductDisabled:
		middleware.RespondWithErrorDetails(w, http.StatusUnprocessableEntity, "product is not bookable", details)
	default:
		middleware.RespondWithErrorDetails(w, http.StatusConflict, "booking rejected", details)
	}
}

// CheckAvailability runs a side-effect-free availability probe
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req AvailabilityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "dates must be in YYYY-MM-DD form")
		return
	}

	result, err := h.bookingService.CheckAvailability(r.Context(), productID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInterval):
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid booking interval")
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		default:
			h.logger.Error("Availability check failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to check availability")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// OpenDates returns the product's allow-list days not yet booked
func (h *BookingHandler) OpenDates(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	dates, err := h.bookingService.OpenDates(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Open dates lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch open dates")
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format(dateLayout))
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"open_dates": formatted})
}

// ListAll returns every reservation (admin)
func (h *BookingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.bookingService.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toReservationResponses(reservations))
}

// ListMine returns the authenticated user's reservations
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user identity")
		return
	}

	reservations, err := h.bookingService.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list user bookings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toReservationResponses(reservations))
}

func toReservationResponses(reservations []*domain.Reservation) []ReservationResponse {
	responses := make([]ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		responses = append(responses, ReservationResponse{
			ID:        res.ID.String(),
			ProductID: res.ProductID.String(),
			UserID:    res.UserID.String(),
			StartDate: res.StartDate.Format(dateLayout),
			EndDate:   res.EndDate.Format(dateLayout),
			CreatedAt: res.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return responses
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startDate, endDate, nil
}
