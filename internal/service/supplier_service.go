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

// SupplierService manages suppliers.
type SupplierService struct {
	suppliers repository.SupplierRepository
	products  repository.ProductRepository
}

// NewSupplierService builds the service.
func NewSupplierService(suppliers repository.SupplierRepository, products repository.ProductRepository) *SupplierService {
	return &SupplierService{suppliers: suppliers, products: products}
}

// SupplierInput carries writable supplier fields. Nil fields are left unchanged on update.
type SupplierInput struct {
	Name         *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
}

func (in SupplierInput) apply(s *domain.Supplier) {
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.ContactName != nil {
		s.ContactName = strings.TrimSpace(*in.ContactName)
	}
	if in.ContactEmail != nil {
		s.ContactEmail = NormalizeEmail(*in.ContactEmail)
	}
	if in.ContactPhone != nil {
		s.ContactPhone = strings.TrimSpace(*in.ContactPhone)
	}
}

func (s *SupplierService) Create(ctx context.Context, input SupplierInput) (*domain.Supplier, error) {
	supplier := &domain.Supplier{}
	input.apply(supplier)
	if err := validateSupplier(supplier); err != nil {
		return nil, err
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, supplierWriteError(err, supplier.ID)
	}
	return supplier, nil
}

func (s *SupplierService) Update(ctx context.Context, id string, input SupplierInput) (*domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, supplierWriteError(err, id)
	}
	input.apply(supplier)
	if err := validateSupplier(supplier); err != nil {
		return nil, err
	}
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, supplierWriteError(err, id)
	}
	return supplier, nil
}

// Delete fails with a conflict while products still reference the supplier.
func (s *SupplierService) Delete(ctx context.Context, id string) error {
	err := s.suppliers.Delete(ctx, id)
	if errors.Is(err, repository.ErrReferenced) {
		return apperrors.NewConflict("Supplier still has products.", map[string]any{"id": id})
	}
	return supplierWriteError(err, id)
}

// Get returns the supplier with its products.
func (s *SupplierService) Get(ctx context.Context, id string) (*domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, supplierWriteError(err, id)
	}
	products, err := s.products.ListBySupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Products = products
	return supplier, nil
}

// List returns every supplier with its products.
func (s *SupplierService) List(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	bySupplier := make(map[string][]domain.Product, len(suppliers))
	for _, p := range products {
		p.Category, p.Supplier = nil, nil
		bySupplier[p.SupplierID] = append(bySupplier[p.SupplierID], p)
	}
	for i := range suppliers {
		suppliers[i].Products = bySupplier[suppliers[i].ID]
	}
	return suppliers, nil
}

func validateSupplier(s *domain.Supplier) error {
	errs := fieldErrors{}
	errs.required("name", s.Name)
	if s.ContactEmail != "" {
		errs.email("contactEmail", s.ContactEmail)
	}
	return errs.err()
}

func supplierWriteError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("Supplier", map[string]any{"id": id})
	default:
		return err
	}
}
