package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// TransferFilter filtros para listados de solicitudes. Campos vacíos no filtran.
type TransferFilter struct {
	CompanyID          string
	RequesterID        string
	CourierID          string
	OriginalTransferID string
	SourceLocationIDs  []string
	Statuses           []entity.TransferStatus
	Purpose            entity.Purpose
	PickupMode         entity.PickupMode
	HoldExpiredBefore  *time.Time
}

// TransferRepository persistencia de solicitudes de transferencia y devolución.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.TransferRequest) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.TransferRequest, error)
	// GetForUpdate bloquea la fila de la solicitud hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error)
	// Update guarda si la versión coincide con la persistida e incrementa t.Version;
	// si no coincide devuelve domain.ErrConflict.
	Update(ctx context.Context, t *entity.TransferRequest) error
	// List ordena por requested_at ascendente.
	List(ctx context.Context, filter TransferFilter) ([]*entity.TransferRequest, error)
}
