package repository

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para locales y bodegas.
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Location, error)
	// SetActive es la única mutación permitida sobre una ubicación.
	SetActive(ctx context.Context, id string, active bool) error
}
