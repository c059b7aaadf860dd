package transfer

import (
	"context"
	"strconv"

	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

// ReceptionInput confirmación del destino.
type ReceptionInput struct {
	ReceivedQuantity int
	ConditionOK      bool
	Notes            string
}

// ConfirmReception quien gestiona el destino confirma lo recibido y completa la solicitud.
// Con la mercancía en buen estado acredita el destino y, si son pies sueltos, forma pares
// con los opuestos disponibles dejando el vínculo para una eventual devolución.
func (e *Engine) ConfirmReception(ctx context.Context, actor entity.Actor, id string, in ReceptionInput) (*entity.TransferRequest, error) {
	return e.step(ctx, actor, id, transfer.CommandConfirmReception, func(tx ports.Tx, t *entity.TransferRequest) (string, error) {
		if err := canReceive(actor, t); err != nil {
			return "", err
		}
		if in.ReceivedQuantity < 0 || in.ReceivedQuantity > t.Quantity {
			return "", domain.ErrInvalidInput
		}
		if err := advance(t, transfer.CommandConfirmReception); err != nil {
			return "", err
		}

		ct := entity.ChangeTransferReception
		if t.IsReturn() {
			ct = entity.ChangeReturnReception
		}
		if in.ConditionOK && in.ReceivedQuantity > 0 {
			key := t.DestinationKey()
			audit := auditFor(actor, t, ct)
			if key.UnitType.IsHalf() {
				// La formación posterior toca las tres filas: se toman todas antes de acreditar.
				if _, err := e.ledger.Lock(ctx, tx, t.CompanyID, key.AllTypes()...); err != nil {
					return "", err
				}
			}
			if _, err := e.ledger.Adjust(ctx, tx, key, in.ReceivedQuantity, audit); err != nil {
				return "", err
			}
			if key.UnitType.IsHalf() {
				formed, err := e.pairing.AutoForm(ctx, tx, pairing.SpotOf(key), key.UnitType, in.ReceivedQuantity, audit)
				if err != nil {
					return "", err
				}
				if formed > 0 && !t.IsReturn() {
					t.AutoFormedPairLink = &entity.PairLink{
						LocationID: t.DestinationLocationID,
						Quantity:   formed,
						FormedAt:   e.now(),
					}
				}
				if formed > 0 {
					e.emit(ctx, tx, ports.EventPairsFormed, t, actor, map[string]string{"formed": strconv.Itoa(formed)})
				}
			}
		}

		received := in.ReceivedQuantity
		t.ReceivedQuantity = &received
		t.ReceptionNotes = in.Notes
		t.CompletedAt = e.stamp()
		if d := t.Discrepancy(); d > 0 || !in.ConditionOK {
			e.log.Warn().Str("transfer_id", t.ID).Int("requested", t.Quantity).Int("received", received).
				Bool("condition_ok", in.ConditionOK).Msg("recepción con discrepancia")
		}
		if t.IsReturn() {
			return ports.EventReturnCompleted, nil
		}
		return ports.EventTransferCompleted, nil
	})
}
