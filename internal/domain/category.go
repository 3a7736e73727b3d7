package domain

import "time"

// Category groups products.
type Category struct {
	ID        string
	Name      string
	Products  []Product
	CreatedAt time.Time
	UpdatedAt time.Time
}
