// Package seed bootstraps an administrator account and an optional sample catalog.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
	"github.com/spec-kit/inventory-service/internal/service"
)

// Repositories groups the stores the seeder writes to.
type Repositories struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Suppliers  repository.SupplierRepository
	Products   repository.ProductRepository
}

// Seeder writes bootstrap data.
type Seeder struct {
	repos      Repositories
	bcryptCost int
	logger     *zap.Logger
}

// New builds a Seeder.
func New(repos Repositories, bcryptCost int, logger *zap.Logger) *Seeder {
	return &Seeder{repos: repos, bcryptCost: bcryptCost, logger: logger}
}

// EnsureAdmin creates a verified ADMIN account, or promotes an existing
// account with the same email. The password of an existing account is kept.
func (s *Seeder) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = service.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, errors.New("admin email is required")
	}

	existing, err := s.repos.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repos.Users.Promote(ctx, existing.ID, domain.RoleAdmin); err != nil {
			return nil, fmt.Errorf("promote %s: %w", email, err)
		}
		s.logger.Info("existing account promoted to admin", zap.String("user_id", existing.ID))
		return s.repos.Users.GetByID(ctx, existing.ID)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}

	if len(password) < 8 || len(password) > 72 {
		return nil, errors.New("admin password must be between 8 and 72 bytes")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "Admin User"
	}
	admin := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.repos.Users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin account created", zap.String("user_id", admin.ID))
	return admin, nil
}

// SampleCatalog inserts a small demo catalog. It does nothing when any category exists.
func (s *Seeder) SampleCatalog(ctx context.Context) error {
	existing, err := s.repos.Categories.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		s.logger.Info("catalog already populated; skipping sample data")
		return nil
	}

	electronics := &domain.Category{Name: "Electronics"}
	office := &domain.Category{Name: "Office Supplies"}
	for _, c := range []*domain.Category{electronics, office} {
		if err := s.repos.Categories.Create(ctx, c); err != nil {
			return fmt.Errorf("create category %s: %w", c.Name, err)
		}
	}

	tech := &domain.Supplier{
		Name:         "Global Tech Inc.",
		ContactName:  "Jane Doe",
		ContactEmail: "jane.doe@globaltech.com",
		ContactPhone: "111-222-3333",
	}
	essentials := &domain.Supplier{
		Name:         "Office Essentials Ltd.",
		ContactName:  "John Smith",
		ContactEmail: "john.smith@officeessentials.com",
		ContactPhone: "444-555-6666",
	}
	for _, sup := range []*domain.Supplier{tech, essentials} {
		if err := s.repos.Suppliers.Create(ctx, sup); err != nil {
			return fmt.Errorf("create supplier %s: %w", sup.Name, err)
		}
	}

	products := []*domain.Product{
		{
			Name: `14" Laptop Pro`, SKU: "LP-PRO-14-2025",
			Description: "High-performance laptop for professionals.",
			Quantity:    50, Price: 1499.99,
			CategoryID: electronics.ID, SupplierID: tech.ID,
		},
		{
			Name: "Wireless Ergonomic Mouse", SKU: "MSE-ERGO-WL-25",
			Description: "Comfortable mouse for all-day use.",
			Quantity:    200, Price: 79.99,
			CategoryID: electronics.ID, SupplierID: tech.ID,
		},
		{
			Name: "A4 Printer Paper (500 Sheets)", SKU: "PPR-A4-500S",
			Description: "High-quality paper for all office printers.",
			Quantity:    1000, Price: 9.99,
			CategoryID: office.ID, SupplierID: essentials.ID,
		},
	}
	for _, p := range products {
		if err := s.repos.Products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %s: %w", p.SKU, err)
		}
	}

	s.logger.Info("sample catalog created", zap.Int("products", len(products)))
	return nil
}
