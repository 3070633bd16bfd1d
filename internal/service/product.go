package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/msomdec/storefront-api/internal/domain"
)

// ProductInput carries the client-editable product fields.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if len(in.Name) > 200 {
		return fmt.Errorf("%w: name must be 200 characters or fewer", domain.ErrInvalidInput)
	}
	if len(in.Description) > 2000 {
		return fmt.Errorf("%w: description must be 2000 characters or fewer", domain.ErrInvalidInput)
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", domain.ErrInvalidInput)
	}
	return nil
}

// ProductService handles catalogue operations.
type ProductService struct {
	products domain.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(products domain.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	slog.InfoContext(ctx, "product created", "product_id", p.ID)
	return p, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// Update replaces the editable fields of product id. Fields are assigned one
// by one; nothing outside ProductInput can be changed through here.
func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock

	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	slog.InfoContext(ctx, "product updated", "product_id", p.ID)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	slog.WarnContext(ctx, "product removed", "product_id", id)
	return nil
}
