package domain

import "time"

// Product is a stocked item. Category and Supplier are populated on detailed reads only.
type Product struct {
	ID          string
	Name        string
	SKU         string
	Description string
	Quantity    int
	Price       float64
	CategoryID  string
	SupplierID  string
	Category    *Category
	Supplier    *Supplier
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
