package ledger

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// ReservationKind define qué parte de la fila puede comprometerse.
type ReservationKind int

const (
	// ReservationSale solo cantidad vendible: la exhibición queda protegida.
	ReservationSale ReservationKind = iota
	// ReservationTransfer la cantidad completa de la fila.
	ReservationTransfer
)

// Reservation validación de disponibilidad con la fila bloqueada. No descuenta nada hasta
// Commit, que debe llamarse en la misma transacción.
type Reservation struct {
	ledger   *Ledger
	tx       ports.Tx
	Key      entity.UnitKey
	Quantity int
}

// Reserve bloquea la fila y comprueba que cubra qty según kind.
func (l *Ledger) Reserve(ctx context.Context, tx ports.Tx, companyID string, key entity.UnitKey, qty int, kind ReservationKind) (*Reservation, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("reserva de %d unidades: %w", qty, domain.ErrInvalidInput)
	}
	rows, err := l.Lock(ctx, tx, companyID, key)
	if err != nil {
		return nil, err
	}
	u := rows[key]
	available := u.Quantity
	if kind == ReservationSale {
		available = u.Sellable()
	}
	if available < qty {
		return nil, &domain.InsufficientStockError{
			LocationID: key.LocationID,
			ProductID:  key.ProductID,
			Size:       key.Size,
			UnitType:   string(key.UnitType),
			Requested:  qty,
			Available:  available,
		}
	}
	return &Reservation{ledger: l, tx: tx, Key: key, Quantity: qty}, nil
}

// Commit descuenta la cantidad reservada y deja la auditoría.
func (r *Reservation) Commit(ctx context.Context, audit Audit) (int, error) {
	return r.ledger.Adjust(ctx, r.tx, r.Key, -r.Quantity, audit)
}
