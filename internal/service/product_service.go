package service

import (
	"context"
	"fmt"
	"time"

	"gorakhpur-rentals/internal/domain"
	"gorakhpur-rentals/internal/repository"

	"github.com/google/uuid"
)

// ProductInput carries the caller-supplied catalog attributes of a product
type ProductInput struct {
	Name        string
	Description string
	PricePerDay float64
	Category    string
	Color       string
	ImageURL    string
	IsBookable  bool
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, category string, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	SetAvailableDates(ctx context.Context, id uuid.UUID, dates []time.Time) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create adds a new product to the catalog
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		PricePerDay: input.PricePerDay,
		Category:    input.Category,
		Color:       input.Color,
		ImageURL:    input.ImageURL,
		IsBookable:  input.IsBookable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update replaces the catalog attributes of an existing product
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.PricePerDay = input.PricePerDay
	product.Category = input.Category
	product.Color = input.Color
	product.ImageURL = input.ImageURL
	product.IsBookable = input.IsBookable
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product from the catalog
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a single product
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves products with category filtering, pagination, and sorting
func (s *productService) List(ctx context.Context, category string, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.List(ctx, category, page, pageSize, sortBy, sortOrder)
}

// Search searches products by name or description
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// SetAvailableDates replaces the product's allow-list of bookable days
func (s *productService) SetAvailableDates(ctx context.Context, id uuid.UUID, dates []time.Time) error {
	return s.productRepo.ReplaceAvailableDates(ctx, id, dates)
}
