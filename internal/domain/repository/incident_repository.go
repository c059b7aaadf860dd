package repository

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// IncidentRepository incidencias de transporte.
type IncidentRepository interface {
	Create(ctx context.Context, incident *entity.TransportIncident) error
	ListByTransfer(ctx context.Context, transferID string) ([]*entity.TransportIncident, error)
}
