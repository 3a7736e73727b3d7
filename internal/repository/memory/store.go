// Package memory provides map-backed repositories used when no PostgreSQL DSN
// is configured. They honour the same uniqueness and reference rules as the
// SQL schema and report failures with the same sentinel errors.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
)

// Store holds every table behind one lock so reference checks are atomic.
type Store struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	categories map[string]domain.Category
	suppliers  map[string]domain.Supplier
	products   map[string]domain.Product
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		categories: make(map[string]domain.Category),
		suppliers:  make(map[string]domain.Supplier),
		products:   make(map[string]domain.Product),
		now:        time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Categories returns the category repository view of the store.
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

// Suppliers returns the supplier repository view of the store.
func (s *Store) Suppliers() repository.SupplierRepository { return &supplierRepo{s} }

// Products returns the product repository view of the store.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) GetAuthUser(ctx context.Context, id string) (*domain.AuthUser, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Projection()
	return &p, nil
}

func (r *userRepo) SetOTP(_ context.Context, id, otpHash string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.IsVerified {
		return pgx.ErrNoRows
	}
	u.OTPHash, u.OTPExpires = &otpHash, &expires
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *userRepo) MarkVerified(_ context.Context, id, otpHash string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.IsVerified || u.OTPHash == nil || *u.OTPHash != otpHash {
		return nil, pgx.ErrNoRows
	}
	u.IsVerified = true
	u.OTPHash, u.OTPExpires = nil, nil
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) Promote(_ context.Context, id string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	u.IsVerified = true
	u.OTPHash, u.OTPExpires = nil, nil
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func cloneUser(u domain.User) domain.User {
	if u.OTPHash != nil {
		h := *u.OTPHash
		u.OTPHash = &h
	}
	if u.OTPExpires != nil {
		e := *u.OTPExpires
		u.OTPExpires = &e
	}
	return u
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := r.s.now()
	category.CreatedAt, category.UpdatedAt = now, now
	stored := *category
	stored.Products = nil
	r.s.categories[category.ID] = stored
	return nil
}

func (r *categoryRepo) Update(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.categories[category.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	for id, c := range r.s.categories {
		if id != category.ID && c.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	current.Name = category.Name
	current.UpdatedAt = r.s.now()
	category.UpdatedAt = current.UpdatedAt
	r.s.categories[category.ID] = current
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type supplierRepo struct{ s *Store }

func (r *supplierRepo) Create(_ context.Context, supplier *domain.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	now := r.s.now()
	supplier.CreatedAt, supplier.UpdatedAt = now, now
	stored := *supplier
	stored.Products = nil
	r.s.suppliers[supplier.ID] = stored
	return nil
}

func (r *supplierRepo) Update(_ context.Context, supplier *domain.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.suppliers[supplier.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	current.Name = supplier.Name
	current.ContactName = supplier.ContactName
	current.ContactEmail = supplier.ContactEmail
	current.ContactPhone = supplier.ContactPhone
	current.UpdatedAt = r.s.now()
	supplier.UpdatedAt = current.UpdatedAt
	r.s.suppliers[supplier.ID] = current
	return nil
}

func (r *supplierRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.suppliers[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, p := range r.s.products {
		if p.SupplierID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.suppliers, id)
	return nil
}

func (r *supplierRepo) GetByID(_ context.Context, id string) (*domain.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	s, ok := r.s.suppliers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r *supplierRepo) List(_ context.Context) ([]domain.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Supplier, 0, len(r.s.suppliers))
	for _, s := range r.s.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type productRepo struct{ s *Store }

// checkRefs must be called with the lock held.
func (r *productRepo) checkRefs(p *domain.Product) error {
	for id, other := range r.s.products {
		if id != p.ID && other.SKU == p.SKU {
			return repository.ErrDuplicate
		}
	}
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.s.suppliers[p.SupplierID]; !ok {
		return repository.ErrReferenced
	}
	return nil
}

func (r *productRepo) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := r.checkRefs(product); err != nil {
		return err
	}
	now := r.s.now()
	product.CreatedAt, product.UpdatedAt = now, now
	stored := *product
	stored.Category, stored.Supplier = nil, nil
	r.s.products[product.ID] = stored
	return nil
}

func (r *productRepo) Update(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.products[product.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := r.checkRefs(product); err != nil {
		return err
	}
	updated := *product
	updated.Category, updated.Supplier = nil, nil
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.s.now()
	product.UpdatedAt = updated.UpdatedAt
	r.s.products[product.ID] = updated
	return nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.products, id)
	return nil
}

// detail must be called with the read lock held.
func (r *productRepo) detail(p domain.Product) domain.Product {
	if c, ok := r.s.categories[p.CategoryID]; ok {
		p.Category = &domain.Category{ID: c.ID, Name: c.Name}
	}
	if s, ok := r.s.suppliers[p.SupplierID]; ok {
		p.Supplier = &domain.Supplier{
			ID: s.ID, Name: s.Name, ContactName: s.ContactName,
			ContactEmail: s.ContactEmail, ContactPhone: s.ContactPhone,
		}
	}
	return p
}

func (r *productRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := r.detail(p)
	return &out, nil
}

func (r *productRepo) List(_ context.Context) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, r.detail(p))
	}
	sortProducts(out)
	return out, nil
}

func (r *productRepo) ListByCategory(_ context.Context, categoryID string) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.CategoryID == categoryID }), nil
}

func (r *productRepo) ListBySupplier(_ context.Context, supplierID string) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.SupplierID == supplierID }), nil
}

func (r *productRepo) filter(keep func(domain.Product) bool) []domain.Product {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Product{}
	for _, p := range r.s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out
}

func sortProducts(ps []domain.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}
