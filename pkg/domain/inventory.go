package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stocked inventory line.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	Quantity     int        `json:"quantity"`
	ReorderLevel int        `json:"reorderLevel"`
	UnitPrice    float64    `json:"unitPrice"`
	SupplierID   *uuid.UUID `json:"supplierId,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// LowStock returns true when the quantity is at or below the reorder level.
func (i Item) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// Supplier is a vendor items are sourced from.
type Supplier struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ItemCount   int       `json:"itemCount"`
}
