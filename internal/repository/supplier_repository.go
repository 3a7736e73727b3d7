package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// SupplierRepository manages supplier persistence.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Supplier, error)
	List(ctx context.Context) ([]domain.Supplier, error)
}

type supplierRepository struct {
	db DB
}

// NewSupplierRepository builds the repository.
func NewSupplierRepository(db DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	const query = `
        INSERT INTO suppliers (id, name, contact_name, contact_email, contact_phone)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.ContactName,
		supplier.ContactEmail,
		supplier.ContactPhone,
	).Scan(&supplier.CreatedAt, &supplier.UpdatedAt)
	return mapWriteError(err)
}

func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	const query = `
        UPDATE suppliers SET name=$1, contact_name=$2, contact_email=$3, contact_phone=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		supplier.Name,
		supplier.ContactName,
		supplier.ContactEmail,
		supplier.ContactPhone,
		supplier.ID,
	).Scan(&supplier.UpdatedAt)
	return mapWriteError(err)
}

func (r *supplierRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM suppliers WHERE id=$1`
	return expectOne(r.db.Exec(ctx, query, id))
}

func (r *supplierRepository) GetByID(ctx context.Context, id string) (*domain.Supplier, error) {
	const query = `
        SELECT id, name, contact_name, contact_email, contact_phone, created_at, updated_at
        FROM suppliers WHERE id=$1`
	var supplier domain.Supplier
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.ContactName,
		&supplier.ContactEmail,
		&supplier.ContactPhone,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	const query = `
        SELECT id, name, contact_name, contact_email, contact_phone, created_at, updated_at
        FROM suppliers ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Supplier{}
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactName, &s.ContactEmail, &s.ContactPhone, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
