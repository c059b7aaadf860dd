// Package pairing forma y divide pares. Nunca crea ni destruye unidades: cada operación
// conserva los pies de cada lado y solo escribe a través del ledger.
package pairing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

// Engine motor de formación, división y reversión de pares.
type Engine struct {
	txRunner ports.TxRunner
	ledger   *ledger.Ledger
	units    repository.InventoryUnitRepository
	notifier ports.Notifier
	log      *logger.Logger
}

// NewEngine construye el motor. units es el repositorio de lectura sin bloqueo.
func NewEngine(txRunner ports.TxRunner, l *ledger.Ledger, units repository.InventoryUnitRepository, notifier ports.Notifier, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{txRunner: txRunner, ledger: l, units: units, notifier: notifier, log: log}
}

// Spot ubicación-producto-talla sobre la que actúa el motor.
type Spot struct {
	LocationID string
	ProductID  string
	Size       string
}

func (s Spot) key(t entity.UnitType) entity.UnitKey {
	return entity.UnitKey{LocationID: s.LocationID, ProductID: s.ProductID, Size: s.Size, UnitType: t}
}

// SpotOf ubicación-producto-talla de una clave.
func SpotOf(k entity.UnitKey) Spot {
	return Spot{LocationID: k.LocationID, ProductID: k.ProductID, Size: k.Size}
}

// lockSpot bloquea las tres filas de la ubicación en orden canónico.
func (e *Engine) lockSpot(ctx context.Context, tx ports.Tx, companyID string, s Spot) (ledger.Rows, error) {
	return e.ledger.Lock(ctx, tx, companyID, s.key(entity.UnitTypePair).AllTypes()...)
}

// AutoForm forma min(received, opuestos disponibles) pares tras recibir `received` pies del
// lado side. Devuelve la cantidad formada (0 si no hay opuestos).
func (e *Engine) AutoForm(ctx context.Context, tx ports.Tx, s Spot, side entity.UnitType, received int, audit ledger.Audit) (int, error) {
	if !side.IsHalf() || received <= 0 {
		return 0, nil
	}
	rows, err := e.lockSpot(ctx, tx, audit.CompanyID, s)
	if err != nil {
		return 0, err
	}
	n := inventory.PlanFormation(min(received, rows.Qty(s.key(side))), rows.Qty(s.key(side.Opposite())))
	if n == 0 {
		return 0, nil
	}
	if err := e.form(ctx, tx, s, n, audit); err != nil {
		return 0, err
	}
	return n, nil
}

func (e *Engine) form(ctx context.Context, tx ports.Tx, s Spot, n int, audit ledger.Audit) error {
	audit.ChangeType = entity.ChangePairFormation
	return e.ledger.ApplyBatch(ctx, tx, []ledger.Mutation{
		{Key: s.key(entity.UnitTypeLeftOnly), Delta: -n, Audit: audit},
		{Key: s.key(entity.UnitTypeRightOnly), Delta: -n, Audit: audit},
		{Key: s.key(entity.UnitTypePair), Delta: n, Audit: audit},
	})
}

// unpair PAIR −n, LEFT +n, RIGHT +n con el tipo de cambio indicado en audit.
func (e *Engine) unpair(ctx context.Context, tx ports.Tx, s Spot, n int, audit ledger.Audit) error {
	return e.ledger.ApplyBatch(ctx, tx, []ledger.Mutation{
		{Key: s.key(entity.UnitTypePair), Delta: -n, Audit: audit},
		{Key: s.key(entity.UnitTypeLeftOnly), Delta: n, Audit: audit},
		{Key: s.key(entity.UnitTypeRightOnly), Delta: n, Audit: audit},
	})
}

// SplitForReturn deja al menos qty pies sueltos del lado side listos para salir: usa primero
// los sueltos y divide pares por el faltante (el pie opuesto queda en la ubicación).
// Falla con *domain.InsufficientStockError si sueltos + pares < qty.
func (e *Engine) SplitForReturn(ctx context.Context, tx ports.Tx, s Spot, side entity.UnitType, qty int, audit ledger.Audit) (inventory.SplitPlan, error) {
	rows, err := e.lockSpot(ctx, tx, audit.CompanyID, s)
	if err != nil {
		return inventory.SplitPlan{}, err
	}
	plan, err := inventory.PlanSplit(s.key(side), qty, rows.Qty(s.key(side)), rows.Qty(s.key(entity.UnitTypePair)))
	if err != nil {
		return inventory.SplitPlan{}, err
	}
	if plan.PairsSplit > 0 {
		audit.ChangeType = entity.ChangePairSplit
		if err := e.unpair(ctx, tx, s, plan.PairsSplit, audit); err != nil {
			return inventory.SplitPlan{}, err
		}
	}
	return plan, nil
}

// SplitForShipment igual que SplitForReturn, para la salida de una transferencia de pies sueltos.
func (e *Engine) SplitForShipment(ctx context.Context, tx ports.Tx, s Spot, side entity.UnitType, qty int, audit ledger.Audit) (inventory.SplitPlan, error) {
	return e.SplitForReturn(ctx, tx, s, side, qty, audit)
}

// Reverse deshace qty pares formados automáticamente: PAIR −qty, LEFT +qty, RIGHT +qty.
// Si quedan menos pares que qty (p. ej. se vendieron) falla con *domain.IrreversibleError
// sin tocar nada; nunca revierte parcialmente.
func (e *Engine) Reverse(ctx context.Context, tx ports.Tx, s Spot, qty int, audit ledger.Audit) error {
	rows, err := e.lockSpot(ctx, tx, audit.CompanyID, s)
	if err != nil {
		return err
	}
	if err := inventory.PlanReversal(s.key(entity.UnitTypePair), qty, rows.Qty(s.key(entity.UnitTypePair))); err != nil {
		return err
	}
	audit.ChangeType = entity.ChangeReturnReversal
	return e.unpair(ctx, tx, s, qty, audit)
}

// FormAt formación manual: forma hasta qty pares con los sueltos de la ubicación
// (qty <= 0 forma todos los posibles). Devuelve la cantidad formada.
func (e *Engine) FormAt(ctx context.Context, actor entity.Actor, s Spot, qty int) (int, error) {
	if !actor.Manages(s.LocationID) {
		return 0, &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "formar pares", LocationID: s.LocationID}
	}
	var formed int
	err := e.txRunner.Run(ctx, func(tx ports.Tx) error {
		rows, err := e.lockSpot(ctx, tx, actor.CompanyID, s)
		if err != nil {
			return err
		}
		left, right := rows.Qty(s.key(entity.UnitTypeLeftOnly)), rows.Qty(s.key(entity.UnitTypeRightOnly))
		n := min(left, right)
		if qty > 0 {
			if qty > n {
				short := entity.UnitTypeLeftOnly
				if right < left {
					short = entity.UnitTypeRightOnly
				}
				return &domain.InsufficientStockError{
					LocationID: s.LocationID, ProductID: s.ProductID, Size: s.Size,
					UnitType: string(short), Requested: qty, Available: n,
				}
			}
			n = qty
		}
		if n == 0 {
			return fmt.Errorf("no hay pies de ambos lados para formar pares: %w", domain.ErrInsufficientStock)
		}
		formed = n
		return e.form(ctx, tx, s, n, ledger.Audit{CompanyID: actor.CompanyID, UserID: actor.UserID, Notes: "formación manual"})
	})
	if err != nil {
		return 0, err
	}
	e.log.Info().Str("location_id", s.LocationID).Str("product_id", s.ProductID).Str("size", s.Size).
		Int("formed", formed).Str("actor", actor.UserID).Msg("pares formados")
	e.publish(ctx, ports.Event{
		Type:      ports.EventPairsFormed,
		CompanyID: actor.CompanyID,
		ActorID:   actor.UserID,
		Data:      map[string]string{"location_id": s.LocationID, "product_id": s.ProductID, "size": s.Size, "formed": fmt.Sprint(formed)},
	})
	return formed, nil
}

// SplitPair división manual de qty pares vendibles en sus dos pies.
func (e *Engine) SplitPair(ctx context.Context, actor entity.Actor, s Spot, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}
	if !actor.Manages(s.LocationID) {
		return &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "dividir pares", LocationID: s.LocationID}
	}
	return e.txRunner.Run(ctx, func(tx ports.Tx) error {
		if _, err := e.ledger.Reserve(ctx, tx, actor.CompanyID, s.key(entity.UnitTypePair), qty, ledger.ReservationSale); err != nil {
			return err
		}
		return e.unpair(ctx, tx, s, qty, ledger.Audit{
			CompanyID:  actor.CompanyID,
			UserID:     actor.UserID,
			ChangeType: entity.ChangePairSplit,
			Notes:      "división manual",
		})
	})
}

// Opportunities oportunidades de formación (sin bloqueo). productID y size vacíos no filtran.
func (e *Engine) Opportunities(ctx context.Context, companyID, productID, size string) ([]inventory.Opportunity, error) {
	units, err := e.units.List(ctx, repository.UnitFilter{CompanyID: companyID, ProductID: productID, Size: size, HalvesOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return inventory.FindOpportunities(units), nil
}

func (e *Engine) publish(ctx context.Context, ev ports.Event) {
	if e.notifier == nil {
		return
	}
	ev.OccurredAt = e.ledger.Now()
	e.notifier.Publish(context.WithoutCancel(ctx), ev)
}
