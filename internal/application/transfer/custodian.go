package transfer

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

// Accept el bodeguero de origen toma la solicitud. Con la solicitud y las filas de origen
// bloqueadas vuelve a validar disponibilidad. Si otro bodeguero ya la aceptó devuelve
// *domain.ClaimError. Las devoluciones se aceptan con AcceptReturn.
func (e *Engine) Accept(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandAccept, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if t.IsReturn() {
			return e.acceptReturn(ctx, tx, actor, t)
		}
		if err := canCustody(actor, t, "aceptar"); err != nil {
			return "", err
		}
		if err := claimedForAccept(t); err != nil {
			return "", err
		}
		if err := advance(t, transfer.CommandAccept); err != nil {
			return "", err
		}
		if err := e.checkSource(ctx, tx, t); err != nil {
			return "", err
		}
		t.CustodianID = actor.UserID
		t.AcceptedAt = e.stamp()
		return ports.EventTransferAccepted, nil
	})
}

// Reject rechaza una solicitud pendiente o aceptada con un motivo. Si es una devolución ya
// aceptada, vuelve a formar los pares que había revertido.
func (e *Engine) Reject(ctx context.Context, actor entity.Actor, id, reason string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandReject, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := canCustody(actor, t, "rechazar"); err != nil {
			return "", err
		}
		if err := advance(t, transfer.CommandReject); err != nil {
			return "", err
		}
		if err := e.undoReversal(ctx, tx, actor, t); err != nil {
			return "", err
		}
		t.CustodianID = actor.UserID
		t.RejectionReason = reason
		return ports.EventTransferRejected, nil
	})
}

// HandToRequester entrega directa al solicitante (retiro propio): la mercancía sale del origen.
func (e *Engine) HandToRequester(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandHandToRequester, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := canCustody(actor, t, "entregar al solicitante"); err != nil {
			return "", err
		}
		if t.PickupMode != entity.PickupModeSelf {
			return "", &domain.TransitionError{TransferID: t.ID, From: string(t.Status),
				Command: string(transfer.CommandHandToRequester), Reason: "la solicitud es con corredor"}
		}
		if err := advance(t, transfer.CommandHandToRequester); err != nil {
			return "", err
		}
		if err := e.ship(ctx, tx, actor, t); err != nil {
			return "", err
		}
		t.PickedUpAt = e.stamp()
		return ports.EventTransferInTransit, nil
	})
}

// Cancel cancela una solicitud que aún no salió del origen. Igual que Reject, una devolución
// aceptada devuelve sus pares revertidos al vínculo de la original.
func (e *Engine) Cancel(ctx context.Context, actor entity.Actor, id, reason string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandCancel, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := canCancel(actor, t); err != nil {
			return "", err
		}
		if err := advance(t, transfer.CommandCancel); err != nil {
			return "", err
		}
		if err := e.undoReversal(ctx, tx, actor, t); err != nil {
			return "", err
		}
		t.CancelledAt = e.stamp()
		if reason != "" {
			t.RejectionReason = reason
		}
		return ports.EventTransferCancelled, nil
	})
}

// claimedForAccept distingue la carrera perdida (otro ya aceptó) de un comando inválido.
func claimedForAccept(t *entity.TransferRequest) error {
	switch t.Status {
	case entity.TransferStatusPending, entity.TransferStatusRejected, entity.TransferStatusCancelled:
		return nil
	}
	return &domain.ClaimError{TransferID: t.ID, Status: string(t.Status), ClaimedBy: t.CustodianID}
}

// checkSource valida con bloqueo que el origen cubra la solicitud. Para pies sueltos cuentan
// los sueltos del lado y los pares que se pueden dividir.
func (e *Engine) checkSource(ctx context.Context, tx ports.Tx, t *entity.TransferRequest) error {
	key := t.SourceKey()
	if !key.UnitType.IsHalf() {
		_, err := e.ledger.Reserve(ctx, tx, t.CompanyID, key, t.Quantity, ledger.ReservationTransfer)
		return err
	}
	rows, err := e.ledger.Lock(ctx, tx, t.CompanyID, key.AllTypes()...)
	if err != nil {
		return err
	}
	_, err = inventory.PlanSplit(key, t.Quantity, rows.Qty(key), rows.Qty(key.WithType(entity.UnitTypePair)))
	return err
}

// ship descuenta la mercancía del origen en el momento de la salida física. Para pies
// sueltos divide pares si los sueltos no alcanzan.
func (e *Engine) ship(ctx context.Context, tx ports.Tx, actor entity.Actor, t *entity.TransferRequest) error {
	ct := entity.ChangeTransferPickup
	if t.IsReturn() {
		ct = entity.ChangeReturnPickup
	}
	audit := auditFor(actor, t, ct)
	key := t.SourceKey()
	if key.UnitType.IsHalf() {
		if _, err := e.pairing.SplitForShipment(ctx, tx, pairing.SpotOf(key), key.UnitType, t.Quantity, audit); err != nil {
			return err
		}
	}
	_, err := e.ledger.Adjust(ctx, tx, key, -t.Quantity, audit)
	return err
}
