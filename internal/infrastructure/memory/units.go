package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.InventoryUnitRepository = (*unitRepo)(nil)

type unitRepo struct {
	s  *Store
	tx *memTx
}

func (r *unitRepo) LockForUpdate(ctx context.Context, companyID string, keys []entity.UnitKey) (map[entity.UnitKey]*entity.InventoryUnit, error) {
	if r.tx == nil {
		return nil, fmt.Errorf("lock units: se requiere transacción")
	}
	for _, k := range keys {
		if err := r.tx.lock(ctx, unitLockKey(k)); err != nil {
			return nil, err
		}
	}
	out := make(map[entity.UnitKey]*entity.InventoryUnit, len(keys))
	for _, k := range keys {
		u := r.read(k)
		if u.CompanyID == "" {
			u.CompanyID = companyID
		}
		out[k] = u
	}
	return out, nil
}

func (r *unitRepo) Get(_ context.Context, key entity.UnitKey) (*entity.InventoryUnit, error) {
	return r.read(key), nil
}

func (r *unitRepo) read(key entity.UnitKey) *entity.InventoryUnit {
	if r.tx != nil {
		if u, ok := r.tx.units[key]; ok {
			return cloneUnit(u)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.units[key]; ok {
		return cloneUnit(u)
	}
	return &entity.InventoryUnit{UnitKey: key}
}

// Save dentro de una transacción exige que la fila esté bloqueada por ella.
func (r *unitRepo) Save(_ context.Context, unit *entity.InventoryUnit) error {
	if unit.Quantity < 0 || unit.DisplayQuantity < 0 {
		return fmt.Errorf("save unit %s: cantidad negativa", unit.UnitKey)
	}
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.units[unit.UnitKey] = cloneUnit(unit)
		r.s.mu.Unlock()
		return nil
	}
	if !r.tx.holds(unitLockKey(unit.UnitKey)) {
		return fmt.Errorf("save unit %s: fila no bloqueada en la transacción", unit.UnitKey)
	}
	r.tx.units[unit.UnitKey] = cloneUnit(unit)
	return nil
}

func (r *unitRepo) List(_ context.Context, f repository.UnitFilter) ([]*entity.InventoryUnit, error) {
	merged := make(map[entity.UnitKey]*entity.InventoryUnit)
	r.s.mu.RLock()
	for k, u := range r.s.units {
		merged[k] = u
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for k, u := range r.tx.units {
			merged[k] = u
		}
	}

	var out []*entity.InventoryUnit
	for _, u := range merged {
		if !matchUnit(u, f) {
			continue
		}
		out = append(out, cloneUnit(u))
	}
	sortUnits(out)
	return out, nil
}

func matchUnit(u *entity.InventoryUnit, f repository.UnitFilter) bool {
	switch {
	case f.CompanyID != "" && u.CompanyID != f.CompanyID:
		return false
	case f.LocationID != "" && u.LocationID != f.LocationID:
		return false
	case f.ProductID != "" && u.ProductID != f.ProductID:
		return false
	case f.Size != "" && u.Size != f.Size:
		return false
	case f.HalvesOnly && !u.UnitType.IsHalf():
		return false
	}
	return true
}

func sortUnits(units []*entity.InventoryUnit) {
	keys := make([]entity.UnitKey, len(units))
	byKey := make(map[entity.UnitKey]*entity.InventoryUnit, len(units))
	for i, u := range units {
		keys[i] = u.UnitKey
		byKey[u.UnitKey] = u
	}
	for i, k := range entity.SortUnitKeys(keys) {
		units[i] = byKey[k]
	}
}

func cloneUnit(u *entity.InventoryUnit) *entity.InventoryUnit {
	c := *u
	return &c
}
