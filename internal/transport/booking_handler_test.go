package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
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

type mockBookingService struct {
	reserveFn      func(ctx context.Context, productID uuid.UUID, start, end time.Time, requester uuid.UUID) (*domain.Reservation, error)
	availabilityFn func(ctx context.Context, productID uuid.UUID, start, end time.Time) (availability.Result, error)
	openDatesFn    func(ctx context.Context, productID uuid.UUID) ([]time.Time, error)
	listAllFn      func(ctx context.Context) ([]*domain.Reservation, error)
	listByUserFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error)
}

func (m *mockBookingService) Reserve(ctx context.Context, productID uuid.UUID, start, end time.Time, requester uuid.UUID) (*domain.Reservation, error) {
	return m.reserveFn(ctx, productID, start, end, requester)
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, productID uuid.UUID, start, end time.Time) (availability.Result, error) {
	return m.availabilityFn(ctx, productID, start, end)
}

func (m *mockBookingService) OpenDates(ctx context.Context, productID uuid.UUID) ([]time.Time, error) {
	return m.openDatesFn(ctx, productID)
}

func (m *mockBookingService) ListAll(ctx context.Context) ([]*domain.Reservation, error) {
	return m.listAllFn(ctx)
}

func (m *mockBookingService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	return m.listByUserFn(ctx, userID)
}

func reserveRequest(t *testing.T, userID uuid.UUID, body ReserveRequest) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	return req.WithContext(ctx)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	errPayload, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("response carries no error object: %v", body)
	}
	return errPayload
}

func TestReserveHandlerSuccess(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	start := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)

	mock := &mockBookingService{
		reserveFn: func(ctx context.Context, gotProduct uuid.UUID, gotStart, gotEnd time.Time, requester uuid.UUID) (*domain.Reservation, error) {
			if gotProduct != productID {
				t.Errorf("Reserve called with product %s, want %s", gotProduct, productID)
			}
			if requester != userID {
				t.Errorf("Reserve called with requester %s, want %s", requester, userID)
			}
			return &domain.Reservation{
				ID:        uuid.New(),
				ProductID: gotProduct,
				UserID:    requester,
				StartDate: gotStart,
				EndDate:   gotEnd,
				CreatedAt: time.Now(),
			}, nil
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, userID, ReserveRequest{
		ProductID: productID.String(),
		StartDate: start.Format(dateLayout),
		EndDate:   start.AddDate(0, 0, 2).Format(dateLayout),
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp ReservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ProductID != productID.String() {
		t.Errorf("response product_id = %s, want %s", resp.ProductID, productID)
	}
	if resp.StartDate != "2027-06-01" {
		t.Errorf("response start_date = %s, want 2027-06-01", resp.StartDate)
	}
}

func TestReserveHandlerRequiresAuthentication(t *testing.T) {
	handler := NewBookingHandler(&mockBookingService{}, zap.NewNop())

	payload, _ := json.Marshal(ReserveRequest{ProductID: uuid.New().String(), StartDate: "2027-06-01", EndDate: "2027-06-02"})
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.Reserve(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestReserveHandlerDateConflict(t *testing.T) {
	conflict := domain.Interval{
		Start: time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2027, 6, 3, 0, 0, 0, 0, time.UTC),
	}
	mock := &mockBookingService{
		reserveFn: func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (*domain.Reservation, error) {
			return nil, &service.Rejection{Reason: availability.ReasonDateConflict, Conflict: &conflict}
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, uuid.New(), ReserveRequest{
		ProductID: uuid.New().String(),
		StartDate: "2027-06-02",
		EndDate:   "2027-06-04",
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	errPayload := decodeErrorBody(t, rec)
	details, ok := errPayload["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("conflict response carries no details: %v", errPayload)
	}
	if details["reason"] != string(availability.ReasonDateConflict) {
		t.Errorf("details reason = %v, want %s", details["reason"], availability.ReasonDateConflict)
	}
	conflictPayload, ok := details["conflict"].(map[string]interface{})
	if !ok {
		t.Fatalf("conflict response carries no conflicting interval: %v", details)
	}
	if conflictPayload["start_date"] != "2027-06-01" || conflictPayload["end_date"] != "2027-06-03" {
		t.Errorf("conflicting interval = %v, want 2027-06-01..2027-06-03", conflictPayload)
	}
}

func TestReserveHandlerDateNotOffered(t *testing.T) {
	mock := &mockBookingService{
		reserveFn: func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (*domain.Reservation, error) {
			return nil, &service.Rejection{Reason: availability.ReasonDateNotOffered}
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, uuid.New(), ReserveRequest{
		ProductID: uuid.New().String(),
		StartDate: "2027-06-02",
		EndDate:   "2027-06-04",
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestReserveHandlerInvalidInterval(t *testing.T) {
	mock := &mockBookingService{
		reserveFn: func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (*domain.Reservation, error) {
			return nil, service.ErrInvalidInterval
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, uuid.New(), ReserveRequest{
		ProductID: uuid.New().String(),
		StartDate: "2027-06-04",
		EndDate:   "2027-06-02",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReserveHandlerContentionExceeded(t *testing.T) {
	mock := &mockBookingService{
		reserveFn: func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (*domain.Reservation, error) {
			return nil, service.ErrContentionExceeded
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, uuid.New(), ReserveRequest{
		ProductID: uuid.New().String(),
		StartDate: "2027-06-02",
		EndDate:   "2027-06-04",
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestReserveHandlerProductNotFound(t *testing.T) {
	mock := &mockBookingService{
		reserveFn: func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (*domain.Reservation, error) {
			return nil, repository.ErrProductNotFound
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, uuid.New(), ReserveRequest{
		ProductID: uuid.New().String(),
		StartDate: "2027-06-02",
		EndDate:   "2027-06-04",
	}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestReserveHandlerRejectsMalformedDates(t *testing.T) {
	handler := NewBookingHandler(&mockBookingService{}, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Reserve(rec, reserveRequest(t, uuid.New(), ReserveRequest{
		ProductID: uuid.New().String(),
		StartDate: "June 2nd",
		EndDate:   "2027-06-04",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCheckAvailabilityHandler(t *testing.T) {
	productID := uuid.New()
	mock := &mockBookingService{
		availabilityFn: func(ctx context.Context, gotProduct uuid.UUID, start, end time.Time) (availability.Result, error) {
			if gotProduct != productID {
				t.Errorf("CheckAvailability called with product %s, want %s", gotProduct, productID)
			}
			return availability.Result{Available: true}, nil
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r, passthroughMiddleware, passthroughMiddleware, passthroughMiddleware)

	payload, _ := json.Marshal(AvailabilityRequest{StartDate: "2027-06-02", EndDate: "2027-06-04"})
	req := httptest.NewRequest(http.MethodPost, "/api/products/"+productID.String()+"/availability", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var result availability.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Available {
		t.Error("probe result should be available")
	}
}

func TestOpenDatesHandler(t *testing.T) {
	productID := uuid.New()
	mock := &mockBookingService{
		openDatesFn: func(ctx context.Context, gotProduct uuid.UUID) ([]time.Time, error) {
			return []time.Time{
				time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2027, 6, 3, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r, passthroughMiddleware, passthroughMiddleware, passthroughMiddleware)

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+productID.String()+"/open-dates", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body struct {
		OpenDates []string `json:"open_dates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.OpenDates) != 2 || body.OpenDates[0] != "2027-06-01" || body.OpenDates[1] != "2027-06-03" {
		t.Errorf("open_dates = %v, want [2027-06-01 2027-06-03]", body.OpenDates)
	}
}

func TestListMineHandler(t *testing.T) {
	userID := uuid.New()
	mock := &mockBookingService{
		listByUserFn: func(ctx context.Context, gotUser uuid.UUID) ([]*domain.Reservation, error) {
			if gotUser != userID {
				t.Errorf("ListByUser called with %s, want %s", gotUser, userID)
			}
			return []*domain.Reservation{{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				UserID:    gotUser,
				StartDate: time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2027, 6, 2, 0, 0, 0, 0, time.UTC),
				CreatedAt: time.Now(),
			}}, nil
		},
	}

	handler := NewBookingHandler(mock, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/api/bookings/me", nil)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())

	rec := httptest.NewRecorder()
	handler.ListMine(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []ReservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].UserID != userID.String() {
		t.Errorf("response = %v, want one reservation for %s", resp, userID)
	}
}

func passthroughMiddleware(next http.Handler) http.Handler {
	return next
}
