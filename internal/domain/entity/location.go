package entity

import "time"

// Tipos de ubicación.
const (
	LocationTypeStore     = "store"
	LocationTypeWarehouse = "warehouse"
)

// Location local o bodega de una empresa. Solo IsActive es mutable.
type Location struct {
	ID        string
	CompanyID string
	Name      string
	Type      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
}
