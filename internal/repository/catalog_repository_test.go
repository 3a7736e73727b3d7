package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-service/internal/domain"
)

func TestCategoryRepository_CreateAndList(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCategoryRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO categories \(id, name\)`).
		WithArgs(pgxmock.AnyArg(), "Electronics").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	category := &domain.Category{Name: "Electronics"}
	require.NoError(t, repo.Create(context.Background(), category))
	assert.NotEmpty(t, category.ID)

	mock.ExpectQuery(`SELECT id, name, created_at, updated_at\s+FROM categories ORDER BY name`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("c-1", "Electronics", now, now).
			AddRow("c-2", "Office Supplies", now, now))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Office Supplies", list[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_DeleteReferenced(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectExec(`DELETE FROM categories WHERE id=\$1`).
		WithArgs("c-1").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, repo.Delete(context.Background(), "c-1"), ErrReferenced)

	mock.ExpectExec(`DELETE FROM categories WHERE id=\$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepository_UpdateNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSupplierRepository(mock)

	mock.ExpectQuery(`UPDATE suppliers SET name=\$1`).
		WithArgs("Acme", "Jane", "jane@acme.test", "111", "missing").
		WillReturnError(pgx.ErrNoRows)

	err := repo.Update(context.Background(), &domain.Supplier{
		ID: "missing", Name: "Acme", ContactName: "Jane", ContactEmail: "jane@acme.test", ContactPhone: "111",
	})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDIncludesRelations(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`FROM products p\s+JOIN categories c ON c.id = p.category_id\s+JOIN suppliers s ON s.id = p.supplier_id WHERE p.id=\$1`).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "sku", "description", "quantity", "price", "category_id", "supplier_id",
			"created_at", "updated_at", "c_name", "s_name", "contact_name", "contact_email", "contact_phone",
		}).AddRow("p-1", "Laptop", "LP-1", "fast", 50, 1499.99, "c-1", "s-1",
			now, now, "Electronics", "Global Tech", "Jane", "jane@globaltech.test", "111"))

	product, err := repo.GetByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 50, product.Quantity)
	assert.InDelta(t, 1499.99, product.Price, 0.001)
	require.NotNil(t, product.Category)
	assert.Equal(t, "c-1", product.Category.ID)
	assert.Equal(t, "Electronics", product.Category.Name)
	require.NotNil(t, product.Supplier)
	assert.Equal(t, "Global Tech", product.Supplier.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateWithUnknownCategory(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(pgxmock.AnyArg(), "Laptop", "LP-1", "", 1, 10.0, "nope", "s-1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &domain.Product{
		Name: "Laptop", SKU: "LP-1", Quantity: 1, Price: 10, CategoryID: "nope", SupplierID: "s-1",
	})
	assert.ErrorIs(t, err, ErrReferenced)
}
