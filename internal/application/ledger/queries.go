package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

// Availability cantidades de un producto-talla en una ubicación (lectura sin bloqueo).
type Availability struct {
	LocationID    string `json:"location_id"`
	ProductID     string `json:"product_id"`
	Size          string `json:"size"`
	Pairs         int    `json:"pairs"`
	Left          int    `json:"left"`
	Right         int    `json:"right"`
	DisplayPairs  int    `json:"display_pairs"`
	SellablePairs int    `json:"sellable_pairs"`
}

// QueryAvailability lee las tres filas sin bloquear; el valor puede quedar obsoleto de inmediato.
func (l *Ledger) QueryAvailability(ctx context.Context, locationID, productID, size string) (Availability, error) {
	a := Availability{LocationID: locationID, ProductID: productID, Size: size}
	base := entity.UnitKey{LocationID: locationID, ProductID: productID, Size: size}
	for _, k := range base.AllTypes() {
		u, err := l.units.Get(ctx, k)
		if err != nil {
			return Availability{}, fmt.Errorf("get unit %s: %w", k, err)
		}
		switch k.UnitType {
		case entity.UnitTypePair:
			a.Pairs = u.Quantity
			a.DisplayPairs = u.DisplayQuantity
			a.SellablePairs = u.Sellable()
		case entity.UnitTypeLeftOnly:
			a.Left = u.Quantity
		case entity.UnitTypeRightOnly:
			a.Right = u.Quantity
		}
	}
	return a, nil
}

// QueryGlobalDistribution vista de un producto-talla en todas las ubicaciones de la empresa.
// Se sirve del caché cuando está configurado; se invalida al confirmar cualquier mutación.
func (l *Ledger) QueryGlobalDistribution(ctx context.Context, companyID, productID, size string) (inventory.Distribution, error) {
	if l.cache != nil {
		if d, ok := l.cache.Get(ctx, companyID, productID, size); ok {
			return *d, nil
		}
	}
	units, err := l.units.List(ctx, repository.UnitFilter{CompanyID: companyID, ProductID: productID, Size: size})
	if err != nil {
		return inventory.Distribution{}, fmt.Errorf("list units: %w", err)
	}
	locs, err := l.locationIndex(ctx, companyID)
	if err != nil {
		return inventory.Distribution{}, err
	}
	d := inventory.Summarize(productID, size, units, locs)
	if l.cache != nil {
		l.cache.Set(ctx, companyID, d)
	}
	return d, nil
}

// ListLocationInventory filas con existencias de una ubicación.
func (l *Ledger) ListLocationInventory(ctx context.Context, companyID, locationID string) ([]*entity.InventoryUnit, error) {
	units, err := l.units.List(ctx, repository.UnitFilter{CompanyID: companyID, LocationID: locationID})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	out := units[:0]
	for _, u := range units {
		if u.Quantity > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

// History auditoría de cambios (más recientes primero).
func (l *Ledger) History(ctx context.Context, filter repository.ChangeFilter) ([]*entity.InventoryChange, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return l.changes.List(ctx, filter)
}

func (l *Ledger) locationIndex(ctx context.Context, companyID string) (map[string]*entity.Location, error) {
	list, err := l.locations.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	idx := make(map[string]*entity.Location, len(list))
	for _, loc := range list {
		idx[loc.ID] = loc
	}
	return idx, nil
}

func newID() string { return uuid.New().String() }
