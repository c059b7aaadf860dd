package inventory

import (
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// SplitPlan resultado de planear la salida de pies sueltos de un lado:
// primero se consumen los sueltos existentes y el faltante se cubre dividiendo pares.
type SplitPlan struct {
	Requested  int
	LooseUsed  int
	PairsSplit int
}

// PlanSplit calcula cuántos sueltos del lado pedido se usan y cuántos pares hay que dividir.
// key.UnitType es el lado solicitado (LEFT_ONLY o RIGHT_ONLY). Falla si loose+pairs < requested.
func PlanSplit(key entity.UnitKey, requested, loose, pairs int) (SplitPlan, error) {
	if requested <= 0 || !key.UnitType.IsHalf() {
		return SplitPlan{}, domain.ErrInvalidInput
	}
	if loose < 0 {
		loose = 0
	}
	if pairs < 0 {
		pairs = 0
	}
	if loose+pairs < requested {
		return SplitPlan{}, &domain.InsufficientStockError{
			LocationID: key.LocationID,
			ProductID:  key.ProductID,
			Size:       key.Size,
			UnitType:   string(key.UnitType) + "+pair",
			Requested:  requested,
			Available:  loose + pairs,
		}
	}
	used := min(loose, requested)
	return SplitPlan{Requested: requested, LooseUsed: used, PairsSplit: requested - used}, nil
}

// PlanFormation pares a formar al recibir `received` pies de un lado con `opposite` disponibles.
func PlanFormation(received, opposite int) int {
	if received <= 0 || opposite <= 0 {
		return 0
	}
	return min(received, opposite)
}

// PlanReversal valida que existan suficientes pares para deshacer una formación automática.
// Nunca divide por debajo de cero: si ya se vendieron pares formados, falla sin adivinar.
func PlanReversal(key entity.UnitKey, requested, pairs int) error {
	if requested <= 0 {
		return domain.ErrInvalidInput
	}
	if pairs < requested {
		return &domain.IrreversibleError{
			LocationID: key.LocationID,
			ProductID:  key.ProductID,
			Size:       key.Size,
			Requested:  requested,
			Remaining:  pairs,
		}
	}
	return nil
}

// FeetBySide pies de cada lado representados por un conjunto de filas (pares cuentan en ambos lados).
func FeetBySide(units []*entity.InventoryUnit) (left, right int) {
	for _, u := range units {
		switch u.UnitType {
		case entity.UnitTypePair:
			left += u.Quantity
			right += u.Quantity
		case entity.UnitTypeLeftOnly:
			left += u.Quantity
		case entity.UnitTypeRightOnly:
			right += u.Quantity
		}
	}
	return left, right
}
