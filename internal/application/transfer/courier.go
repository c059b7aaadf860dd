package transfer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

// AssignCourier asigna el corredor. Un corredor solo puede tomarla para sí mismo; un
// bodeguero de origen puede asignar a cualquier corredor. El bloqueo de la solicitud decide
// la carrera: el perdedor recibe *domain.ClaimError.
func (e *Engine) AssignCourier(ctx context.Context, actor entity.Actor, id, courierID string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandAssignCourier, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if actor.Is(entity.RoleCourier) {
			if courierID != "" && courierID != actor.UserID {
				return "", denied(actor, "asignar a otro corredor", "")
			}
			courierID = actor.UserID
		} else {
			if err := canCustody(actor, t, "asignar corredor"); err != nil {
				return "", err
			}
			if courierID == "" {
				return "", domain.ErrInvalidInput
			}
		}
		if t.PickupMode != entity.PickupModeCourier {
			return "", &domain.TransitionError{TransferID: t.ID, From: string(t.Status),
				Command: string(transfer.CommandAssignCourier), Reason: "la solicitud es de retiro propio"}
		}
		if t.CourierID != "" {
			return "", &domain.ClaimError{TransferID: t.ID, Status: string(t.Status), ClaimedBy: t.CourierID}
		}
		if err := advance(t, transfer.CommandAssignCourier); err != nil {
			return "", err
		}
		t.CourierID = courierID
		t.CourierAssignedAt = e.stamp()
		return ports.EventCourierAssigned, nil
	})
}

// ConfirmPickup el corredor asignado recoge la mercancía: se descuenta del origen.
func (e *Engine) ConfirmPickup(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandConfirmPickup, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := isAssignedCourier(actor, t, "confirmar recogida"); err != nil {
			return "", err
		}
		if err := advance(t, transfer.CommandConfirmPickup); err != nil {
			return "", err
		}
		if err := e.ship(ctx, tx, actor, t); err != nil {
			return "", err
		}
		t.PickedUpAt = e.stamp()
		return ports.EventTransferInTransit, nil
	})
}

// ConfirmDelivery el corredor informa la entrega en destino o su fallo. La mercancía no se
// acredita aquí: lo hace la recepción del destino.
func (e *Engine) ConfirmDelivery(ctx context.Context, actor entity.Actor, id string, delivered bool, notes string) (*entity.TransferRequest, error) {
	cmd := transfer.CommandConfirmDelivery
	if !delivered {
		cmd = transfer.CommandReportFailure
	}
	return e.step(ctx, actor, id, cmd, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := isAssignedCourier(actor, t, "confirmar entrega"); err != nil {
			return "", err
		}
		if err := advance(t, cmd); err != nil {
			return "", err
		}
		t.Notes = appendNote(t.Notes, notes)
		if !delivered {
			return ports.EventDeliveryFailed, nil
		}
		t.DeliveredAt = e.stamp()
		return ports.EventTransferDelivered, nil
	})
}

// RetryDelivery vuelve a poner en tránsito una entrega fallida.
func (e *Engine) RetryDelivery(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandRetryAfterFailure, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := isAssignedCourier(actor, t, "reintentar entrega"); err != nil {
			return "", err
		}
		if err := advance(t, transfer.CommandRetryAfterFailure); err != nil {
			return "", err
		}
		return ports.EventTransferInTransit, nil
	})
}

// IncidentInput incidencia de transporte.
type IncidentInput struct {
	IncidentType string
	Description  string
}

// ReportIncident el corredor asignado registra una incidencia durante el transporte.
// No cambia el estado de la solicitud.
func (e *Engine) ReportIncident(ctx context.Context, actor entity.Actor, id string, in IncidentInput) (*entity.TransportIncident, error) {
	if strings.TrimSpace(in.IncidentType) == "" {
		return nil, domain.ErrInvalidInput
	}
	var incident *entity.TransportIncident
	err := e.txRunner.Run(ctx, func(tx ports.Tx) error {
		t, err := e.lockTransfer(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if err := isAssignedCourier(actor, t, "reportar incidencia"); err != nil {
			return err
		}
		if transfer.IsTerminal(t.Status) {
			return &domain.TransitionError{TransferID: t.ID, From: string(t.Status), Command: "report_incident"}
		}
		incident = &entity.TransportIncident{
			ID:                uuid.New().String(),
			TransferRequestID: t.ID,
			CourierID:         actor.UserID,
			IncidentType:      in.IncidentType,
			Description:       in.Description,
			ReportedAt:        e.now(),
		}
		if err := tx.Incidents().Create(ctx, incident); err != nil {
			return err
		}
		e.emit(ctx, tx, ports.EventIncidentReported, t, actor, map[string]string{"incident_type": in.IncidentType})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Warn().Str("transfer_id", id).Str("incident_type", in.IncidentType).Str("actor", actor.UserID).
		Msg("incidencia de transporte")
	return incident, nil
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return existing
	case existing == "":
		return note
	}
	return existing + "\n" + note
}
