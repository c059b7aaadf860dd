package transfer

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

// ReturnInput solicitud de devolución de una transferencia completada.
type ReturnInput struct {
	Quantity   int
	PickupMode entity.PickupMode
	Notes      string
}

const commandRequestReturn = "request_return"

// RequestReturn crea una devolución pendiente que recorre el camino inverso de la original.
// La cantidad no puede superar lo recibido menos lo ya devuelto (devoluciones no rechazadas
// ni canceladas). La original queda bloqueada para serializar devoluciones concurrentes.
func (e *Engine) RequestReturn(ctx context.Context, actor entity.Actor, originalID string, in ReturnInput) (*entity.TransferRequest, error) {
	if in.PickupMode == "" {
		in.PickupMode = entity.PickupModeCourier
	}
	if in.Quantity <= 0 || !in.PickupMode.Valid() {
		return nil, domain.ErrInvalidInput
	}
	var ret *entity.TransferRequest
	err := e.txRunner.Run(ctx, func(tx ports.Tx) error {
		orig, err := e.lockTransfer(ctx, tx, actor, originalID)
		if err != nil {
			return err
		}
		if actor.UserID != orig.RequesterID && !actor.Manages(orig.DestinationLocationID) {
			return denied(actor, "solicitar devolución", orig.DestinationLocationID)
		}
		if orig.IsReturn() {
			return &domain.TransitionError{TransferID: orig.ID, From: string(orig.Status), Command: commandRequestReturn,
				Reason: "una devolución no se puede devolver"}
		}
		if orig.Status != entity.TransferStatusCompleted {
			return &domain.TransitionError{TransferID: orig.ID, From: string(orig.Status), Command: commandRequestReturn}
		}
		returnable, err := e.returnable(ctx, tx, orig)
		if err != nil {
			return err
		}
		if in.Quantity > returnable {
			return &domain.InsufficientStockError{
				LocationID: orig.DestinationLocationID, ProductID: orig.ProductID, Size: orig.Size,
				UnitType: string(orig.UnitType), Requested: in.Quantity, Available: returnable,
			}
		}

		now := e.now()
		ret = &entity.TransferRequest{
			ID:                    uuid.New().String(),
			CompanyID:             orig.CompanyID,
			RequesterID:           actor.UserID,
			SourceLocationID:      orig.DestinationLocationID,
			DestinationLocationID: orig.SourceLocationID,
			ProductID:             orig.ProductID,
			ReferenceCode:         orig.ReferenceCode,
			Size:                  orig.Size,
			UnitType:              orig.UnitType,
			Quantity:              in.Quantity,
			Purpose:               entity.PurposeReturn,
			PickupMode:            in.PickupMode,
			Status:                entity.TransferStatusPending,
			Notes:                 in.Notes,
			OriginalTransferID:    orig.ID,
			RequestedAt:           now,
			UpdatedAt:             now,
		}
		if err := tx.Transfers().Create(ctx, ret); err != nil {
			return err
		}
		e.emit(ctx, tx, ports.EventReturnRequested, ret, actor, map[string]string{"original_transfer_id": orig.ID})
		return nil
	})
	if err != nil {
		e.log.Warn().Err(err).Str("transfer_id", originalID).Str("actor", actor.UserID).Msg("devolución rechazada")
		return nil, err
	}
	e.log.Info().Str("transfer_id", ret.ID).Str("original_transfer_id", originalID).Int("quantity", in.Quantity).
		Str("actor", actor.UserID).Msg("devolución solicitada")
	return ret, nil
}

// AcceptReturn acepta la devolución en una sola transacción: primero revierte los pares que
// formó la recepción original (si siguen existiendo) y luego deja los pies a devolver sueltos,
// dividiendo pares si hace falta. Si los pares formados ya se vendieron falla con
// *domain.IrreversibleError y no modifica nada.
func (e *Engine) AcceptReturn(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandAccept, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if !t.IsReturn() {
			return "", &domain.TransitionError{TransferID: t.ID, From: string(t.Status),
				Command: string(transfer.CommandAccept), Reason: "la solicitud no es una devolución"}
		}
		return e.acceptReturn(ctx, tx, actor, t)
	})
}

// acceptReturn bloquea la original después de la devolución (orden fijo: devolución, original,
// filas de inventario).
func (e *Engine) acceptReturn(ctx context.Context, tx ports.Tx, actor entity.Actor, t *entity.TransferRequest) (string, error) {
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) ||
		(!actor.Manages(t.SourceLocationID) && !actor.Manages(t.DestinationLocationID)) {
		return "", denied(actor, "aceptar devolución", t.SourceLocationID)
	}
	if err := claimedForAccept(t); err != nil {
		return "", err
	}
	if err := advance(t, transfer.CommandAccept); err != nil {
		return "", err
	}
	orig, err := tx.Transfers().GetForUpdate(ctx, t.OriginalTransferID)
	if err != nil {
		return "", err
	}
	if orig == nil {
		return "", domain.ErrNotFound
	}

	key := t.SourceKey()
	spot := pairing.SpotOf(key)
	audit := auditFor(actor, t, entity.ChangeReturnReversal)
	if !key.UnitType.IsHalf() {
		if _, err := e.ledger.Reserve(ctx, tx, t.CompanyID, key, t.Quantity, ledger.ReservationTransfer); err != nil {
			return "", err
		}
	} else {
		link := orig.AutoFormedPairLink
		if link != nil && link.LocationID == t.SourceLocationID && link.Remaining() > 0 {
			n := min(t.Quantity, link.Remaining())
			if err := e.pairing.Reverse(ctx, tx, spot, n, audit); err != nil {
				return "", err
			}
			link.Reversed += n
			t.ReversedPairs = n
			if err := e.save(ctx, tx, orig); err != nil {
				return "", err
			}
		}
		if _, err := e.pairing.SplitForReturn(ctx, tx, spot, key.UnitType, t.Quantity, audit); err != nil {
			return "", err
		}
	}
	t.CustodianID = actor.UserID
	t.AcceptedAt = e.stamp()
	return ports.EventReturnAccepted, nil
}

// undoReversal vuelve a formar los pares que la devolución revirtió al aceptarse y se los
// devuelve al vínculo de la original. Solo se reforman los que siguen sueltos en la ubicación;
// los pares divididos del stock propio para completar la devolución quedan sueltos.
func (e *Engine) undoReversal(ctx context.Context, tx ports.Tx, actor entity.Actor, t *entity.TransferRequest) error {
	if !t.IsReturn() || t.ReversedPairs == 0 {
		return nil
	}
	orig, err := tx.Transfers().GetForUpdate(ctx, t.OriginalTransferID)
	if err != nil {
		return err
	}
	if orig == nil || orig.AutoFormedPairLink == nil {
		return domain.ErrNotFound
	}
	key := t.SourceKey()
	formed, err := e.pairing.AutoForm(ctx, tx, pairing.SpotOf(key), key.UnitType, t.ReversedPairs,
		auditFor(actor, t, entity.ChangePairFormation))
	if err != nil {
		return err
	}
	if formed == 0 {
		return nil
	}
	orig.AutoFormedPairLink.Reversed -= formed
	t.ReversedPairs -= formed
	if err := e.save(ctx, tx, orig); err != nil {
		return err
	}
	e.emit(ctx, tx, ports.EventPairsFormed, t, actor, map[string]string{"formed": strconv.Itoa(formed)})
	return nil
}

// returnable cantidad recibida de la original que aún no está comprometida en devoluciones.
func (e *Engine) returnable(ctx context.Context, tx ports.Tx, orig *entity.TransferRequest) (int, error) {
	received := orig.Quantity
	if orig.ReceivedQuantity != nil {
		received = *orig.ReceivedQuantity
	}
	returns, err := tx.Transfers().List(ctx, repository.TransferFilter{CompanyID: orig.CompanyID, OriginalTransferID: orig.ID})
	if err != nil {
		return 0, err
	}
	for _, r := range returns {
		if r.Status == entity.TransferStatusRejected || r.Status == entity.TransferStatusCancelled {
			continue
		}
		received -= r.Quantity
	}
	return max(received, 0), nil
}
