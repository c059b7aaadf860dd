package repository

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// ChangeFilter filtros del historial de auditoría. Campos vacíos no filtran.
type ChangeFilter struct {
	CompanyID         string
	LocationID        string
	ProductID         string
	Size              string
	TransferRequestID string
	Limit             int
}

// InventoryChangeRepository historial inmutable de cambios de inventario.
type InventoryChangeRepository interface {
	Create(ctx context.Context, change *entity.InventoryChange) error
	// List devuelve los cambios más recientes primero.
	List(ctx context.Context, filter ChangeFilter) ([]*entity.InventoryChange, error)
}
