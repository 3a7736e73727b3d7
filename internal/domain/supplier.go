package domain

import "time"

// Supplier is a vendor that products are sourced from.
type Supplier struct {
	ID           string
	Name         string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Products     []Product
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
