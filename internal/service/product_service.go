package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// ProductService manages the product catalog.
type ProductService struct {
	products repository.ProductRepository
}

// NewProductService builds the service.
func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// ProductInput carries writable product fields. Nil fields are left unchanged on update.
type ProductInput struct {
	Name        *string
	SKU         *string
	Description *string
	Quantity    *int
	Price       *float64
	CategoryID  *string
	SupplierID  *string
}

func (in ProductInput) apply(p *domain.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CategoryID != nil {
		p.CategoryID = strings.TrimSpace(*in.CategoryID)
	}
	if in.SupplierID != nil {
		p.SupplierID = strings.TrimSpace(*in.SupplierID)
	}
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{}
	input.apply(product)
	errs := productFieldErrors(product)
	if input.Price == nil {
		errs["price"] = "is required"
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, productWriteError(err, product.ID)
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, productWriteError(err, id)
	}
	product.Category, product.Supplier = nil, nil
	input.apply(product)
	if err := productFieldErrors(product).err(); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, productWriteError(err, id)
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return productWriteError(s.products.Delete(ctx, id), id)
}

// Get returns the product with its category and supplier.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, productWriteError(err, id)
	}
	return product, nil
}

// List returns every product with its category and supplier.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func productFieldErrors(p *domain.Product) fieldErrors {
	errs := fieldErrors{}
	errs.required("name", p.Name)
	errs.required("sku", p.SKU)
	errs.required("categoryId", p.CategoryID)
	errs.required("supplierId", p.SupplierID)
	switch {
	case p.Quantity < 0:
		errs["quantity"] = "must not be negative"
	case p.Quantity > math.MaxInt32:
		errs["quantity"] = "must be at most 2147483647"
	}
	if p.Price < 0 {
		errs["price"] = "must not be negative"
	}
	return errs
}

func productWriteError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("Product", map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("A product with this SKU already exists.", nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewValidationError("Category or supplier does not exist.", map[string]any{
			"categoryId": "must reference an existing category",
			"supplierId": "must reference an existing supplier",
		})
	default:
		return err
	}
}
