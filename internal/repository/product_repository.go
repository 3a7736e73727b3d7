package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// ProductRepository manages product persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error)
}

type productRepository struct {
	db DB
}

// NewProductRepository builds the repository.
func NewProductRepository(db DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, sku, description, quantity, price, category_id, supplier_id, created_at, updated_at`

const productDetailQuery = `
        SELECT p.id, p.name, p.sku, p.description, p.quantity, p.price, p.category_id, p.supplier_id,
               p.created_at, p.updated_at,
               c.name, s.name, s.contact_name, s.contact_email, s.contact_phone
        FROM products p
        JOIN categories c ON c.id = p.category_id
        JOIN suppliers s ON s.id = p.supplier_id`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (id, name, sku, description, quantity, price, category_id, supplier_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.SKU,
		product.Description,
		product.Quantity,
		product.Price,
		product.CategoryID,
		product.SupplierID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	return mapWriteError(err)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products
        SET name=$1, sku=$2, description=$3, quantity=$4, price=$5, category_id=$6, supplier_id=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		product.Name,
		product.SKU,
		product.Description,
		product.Quantity,
		product.Price,
		product.CategoryID,
		product.SupplierID,
		product.ID,
	).Scan(&product.UpdatedAt)
	return mapWriteError(err)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM products WHERE id=$1`
	return expectOne(r.db.Exec(ctx, query, id))
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return scanProductDetail(r.db.QueryRow(ctx, productDetailQuery+` WHERE p.id=$1`, id))
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, productDetailQuery+` ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		product, err := scanProductDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

func (r *productRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE category_id=$1 ORDER BY name`
	return r.listPlain(ctx, query, categoryID)
}

func (r *productRepository) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE supplier_id=$1 ORDER BY name`
	return r.listPlain(ctx, query, supplierID)
}

func (r *productRepository) listPlain(ctx context.Context, query string, arg string) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.Description, &p.Quantity, &p.Price,
			&p.CategoryID, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProductDetail(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		category domain.Category
		supplier domain.Supplier
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Description, &p.Quantity, &p.Price,
		&p.CategoryID, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt,
		&category.Name, &supplier.Name, &supplier.ContactName, &supplier.ContactEmail, &supplier.ContactPhone,
	); err != nil {
		return nil, err
	}
	category.ID = p.CategoryID
	supplier.ID = p.SupplierID
	p.Category = &category
	p.Supplier = &supplier
	return &p, nil
}
