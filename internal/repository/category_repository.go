package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// CategoryRepository manages category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	db DB
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (id, name)
        VALUES ($1,$2)
        RETURNING created_at, updated_at`
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, query, category.ID, category.Name).Scan(&category.CreatedAt, &category.UpdatedAt)
	return mapWriteError(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, category.Name, category.ID).Scan(&category.UpdatedAt)
	return mapWriteError(err)
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM categories WHERE id=$1`
	return expectOne(r.db.Exec(ctx, query, id))
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM categories ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

