package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.IncidentRepository = (*IncidentRepo)(nil)

// IncidentRepo incidencias de transporte.
type IncidentRepo struct {
	q Querier
}

// NewIncidentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIncidentRepository(q Querier) *IncidentRepo {
	return &IncidentRepo{q: q}
}

func (r *IncidentRepo) Create(ctx context.Context, i *entity.TransportIncident) error {
	const q = `
		INSERT INTO transport_incidents (id, transfer_request_id, courier_id, incident_type, description, reported_at, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, q, i.ID, i.TransferRequestID, i.CourierID, i.IncidentType, i.Description, i.ReportedAt, i.Resolved)
	if err != nil {
		return wrapErr("insert transport incident", err)
	}
	return nil
}

func (r *IncidentRepo) ListByTransfer(ctx context.Context, transferID string) ([]*entity.TransportIncident, error) {
	const q = `
		SELECT id, transfer_request_id, courier_id, incident_type, description, reported_at, resolved
		FROM transport_incidents WHERE transfer_request_id = $1 ORDER BY reported_at`
	rows, err := r.q.Query(ctx, q, transferID)
	if err != nil {
		return nil, wrapErr("list transport incidents", err)
	}
	defer rows.Close()
	var list []*entity.TransportIncident
	for rows.Next() {
		var i entity.TransportIncident
		if err := rows.Scan(&i.ID, &i.TransferRequestID, &i.CourierID, &i.IncidentType, &i.Description,
			&i.ReportedAt, &i.Resolved); err != nil {
			return nil, fmt.Errorf("scan transport incident: %w", err)
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}
