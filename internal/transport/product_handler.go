package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gorakhpur-rentals/internal/middleware"
	"gorakhpur-rentals/internal/repository"
	"gorakhpur-rentals/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update payload for a product
type ProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	PricePerDay float64 `json:"price_per_day" validate:"required,gt=0"`
	Category    string  `json:"category"`
	Color       string  `json:"color"`
	ImageURL    string  `json:"image_url"`
	IsBookable  bool    `json:"is_bookable"`
}

// AvailableDatesRequest replaces a product's allow-list of open days
type AvailableDatesRequest struct {
	Dates []string `json:"dates" validate:"required"`
}

// ProductListResponse wraps a product page with its total count
type ProductListResponse struct {
	Products interface{} `json:"products"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.GetByID)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Put("/{id}/available-dates", h.SetAvailableDates)
		})
	})
}

// Create handles product creation (admin)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), toProductInput(req))
	if err != nil {
		h.logger.Error("Product creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles product updates (admin)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Update(r.Context(), id, toProductInput(req))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Product update failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles product removal (admin)
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Product deletion failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// GetByID returns a single product
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Product lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// List returns a page of products, optionally filtered by category
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 20)
	sortOrder := repository.SortOrderDesc
	if q.Get("sort_order") == "asc" {
		sortOrder = repository.SortOrderAsc
	}

	products, total, err := h.productService.List(r.Context(), q.Get("category"), page, pageSize, q.Get("sort_by"), sortOrder)
	if err != nil {
		h.logger.Error("Product listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Search returns products matching the query string
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 20)

	products, total, err := h.productService.Search(r.Context(), q.Get("q"), page, pageSize)
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// SetAvailableDates replaces the product's allow-list (admin)
func (h *ProductHandler) SetAvailableDates(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req AvailableDatesRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "dates must be in YYYY-MM-DD form")
			return
		}
		dates = append(dates, date)
	}

	if err := h.productService.SetAvailableDates(r.Context(), id, dates); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Setting available dates failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to set available dates")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "available dates updated"})
}

func toProductInput(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		Category:    req.Category,
		Color:       req.Color,
		ImageURL:    req.ImageURL,
		IsBookable:  req.IsBookable,
	}
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
