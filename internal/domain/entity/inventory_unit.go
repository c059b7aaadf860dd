package entity

import (
	"fmt"
	"sort"
	"time"
)

// UnitType tipo de unidad de inventario: par completo o pie suelto.
type UnitType string

const (
	UnitTypePair      UnitType = "pair"
	UnitTypeLeftOnly  UnitType = "left_only"
	UnitTypeRightOnly UnitType = "right_only"
)

// Valid indica si el tipo es conocido.
func (t UnitType) Valid() bool {
	switch t {
	case UnitTypePair, UnitTypeLeftOnly, UnitTypeRightOnly:
		return true
	}
	return false
}

// IsHalf indica si el tipo representa un pie suelto.
func (t UnitType) IsHalf() bool {
	return t == UnitTypeLeftOnly || t == UnitTypeRightOnly
}

// Opposite devuelve el pie contrario; para PAIR devuelve PAIR.
func (t UnitType) Opposite() UnitType {
	switch t {
	case UnitTypeLeftOnly:
		return UnitTypeRightOnly
	case UnitTypeRightOnly:
		return UnitTypeLeftOnly
	}
	return t
}

func (t UnitType) rank() int {
	switch t {
	case UnitTypePair:
		return 0
	case UnitTypeLeftOnly:
		return 1
	case UnitTypeRightOnly:
		return 2
	}
	return 3
}

// UnitKey identifica una fila de inventario: (ubicación, producto, talla, tipo).
type UnitKey struct {
	LocationID string
	ProductID  string
	Size       string
	UnitType   UnitType
}

// WithType devuelve la misma clave con otro tipo de unidad.
func (k UnitKey) WithType(t UnitType) UnitKey {
	k.UnitType = t
	return k
}

// AllTypes las tres filas de la misma ubicación/producto/talla, en orden canónico.
func (k UnitKey) AllTypes() []UnitKey {
	return []UnitKey{k.WithType(UnitTypePair), k.WithType(UnitTypeLeftOnly), k.WithType(UnitTypeRightOnly)}
}

func (k UnitKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.LocationID, k.ProductID, k.Size, k.UnitType)
}

func (k UnitKey) less(o UnitKey) bool {
	if k.LocationID != o.LocationID {
		return k.LocationID < o.LocationID
	}
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.Size != o.Size {
		return k.Size < o.Size
	}
	return k.UnitType.rank() < o.UnitType.rank()
}

// SortUnitKeys elimina duplicados y ordena las claves en el orden canónico de bloqueo
// (ubicación, producto, talla, PAIR < LEFT_ONLY < RIGHT_ONLY). Toda transacción que
// bloquee varias filas debe hacerlo en este orden para no producir deadlocks.
func SortUnitKeys(keys []UnitKey) []UnitKey {
	seen := make(map[UnitKey]struct{}, len(keys))
	out := make([]UnitKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// InventoryUnit cantidad de un tipo de unidad en una ubicación (fila mutable del ledger).
// Las filas nunca se borran: una cantidad cero se conserva por continuidad de auditoría.
type InventoryUnit struct {
	UnitKey
	CompanyID       string
	Quantity        int
	DisplayQuantity int // reservado para exhibición, no vendible
	UpdatedAt       time.Time
}

// Sellable cantidad vendible (excluye exhibición).
func (u *InventoryUnit) Sellable() int {
	if u.Quantity < u.DisplayQuantity {
		return 0
	}
	return u.Quantity - u.DisplayQuantity
}
