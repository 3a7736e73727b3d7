package dto

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// CategoryRequest payload. Omitted fields keep their value on update.
type CategoryRequest struct {
	Name *string `json:"name"`
}

// SupplierRequest payload. Omitted fields keep their value on update.
type SupplierRequest struct {
	Name         *string `json:"name"`
	ContactName  *string `json:"contactName"`
	ContactEmail *string `json:"contactEmail"`
	ContactPhone *string `json:"contactPhone"`
}

// ProductRequest payload. Omitted fields keep their value on update.
type ProductRequest struct {
	Name        *string  `json:"name"`
	SKU         *string  `json:"sku"`
	Description *string  `json:"description"`
	Quantity    *int     `json:"quantity"`
	Price       *float64 `json:"price"`
	CategoryID  *string  `json:"categoryId"`
	SupplierID  *string  `json:"supplierId"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Products  []ProductResponse `json:"products,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// SupplierResponse view.
type SupplierResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ContactName  string            `json:"contactName"`
	ContactEmail string            `json:"contactEmail"`
	ContactPhone string            `json:"contactPhone"`
	Products     []ProductResponse `json:"products,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ProductResponse view. Category and Supplier are present on detailed reads.
type ProductResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Description string            `json:"description"`
	Quantity    int               `json:"quantity"`
	Price       float64           `json:"price"`
	CategoryID  string            `json:"categoryId"`
	SupplierID  string            `json:"supplierId"`
	Category    *CategoryResponse `json:"category,omitempty"`
	Supplier    *SupplierResponse `json:"supplier,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// NewCategoryResponse maps a category.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Products:  NewProductResponses(c.Products),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewSupplierResponse maps a supplier.
func NewSupplierResponse(s *domain.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:           s.ID,
		Name:         s.Name,
		ContactName:  s.ContactName,
		ContactEmail: s.ContactEmail,
		ContactPhone: s.ContactPhone,
		Products:     NewProductResponses(s.Products),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// NewProductResponse maps a product.
func NewProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		c := NewCategoryResponse(p.Category)
		resp.Category = &c
	}
	if p.Supplier != nil {
		s := NewSupplierResponse(p.Supplier)
		resp.Supplier = &s
	}
	return resp
}

// NewProductResponses maps a product list; nil stays nil.
func NewProductResponses(ps []domain.Product) []ProductResponse {
	if ps == nil {
		return nil
	}
	out := make([]ProductResponse, 0, len(ps))
	for i := range ps {
		out = append(out, NewProductResponse(&ps[i]))
	}
	return out
}
