package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// CategoryService manages categories.
type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

// NewCategoryService builds the service.
func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository) *CategoryService {
	return &CategoryService{categories: categories, products: products}
}

// CategoryInput carries writable category fields. Nil fields are left unchanged on update.
type CategoryInput struct {
	Name *string
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	category := &domain.Category{}
	if input.Name != nil {
		category.Name = strings.TrimSpace(*input.Name)
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, categoryWriteError(err, category.ID)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, categoryWriteError(err, id)
	}
	if input.Name != nil {
		category.Name = strings.TrimSpace(*input.Name)
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, categoryWriteError(err, id)
	}
	return category, nil
}

// Delete fails with a conflict while products still reference the category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	err := s.categories.Delete(ctx, id)
	if errors.Is(err, repository.ErrReferenced) {
		return apperrors.NewConflict("Category still has products.", map[string]any{"id": id})
	}
	return categoryWriteError(err, id)
}

// Get returns the category with its products.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, categoryWriteError(err, id)
	}
	products, err := s.products.ListByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Products = products
	return category, nil
}

// List returns every category with its products.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]domain.Product, len(categories))
	for _, p := range products {
		p.Category, p.Supplier = nil, nil
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}
	for i := range categories {
		categories[i].Products = byCategory[categories[i].ID]
	}
	return categories, nil
}

func validateCategory(c *domain.Category) error {
	errs := fieldErrors{}
	errs.required("name", c.Name)
	return errs.err()
}

func categoryWriteError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("Category", map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("A category with this name already exists.", nil)
	default:
		return err
	}
}
