package inventory

import (
	"sort"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// Tipos de oportunidad de formación de pares.
const (
	OpportunitySameLocation  = "same_location"
	OpportunityCrossLocation = "cross_location"
)

// Opportunity posibilidad de completar pares con pies sueltos.
// Las de misma ubicación se forman sin transporte; las cruzadas requieren transferir FootToMove
// desde FromLocationID hacia ToLocationID.
type Opportunity struct {
	Kind           string          `json:"kind"`
	ProductID      string          `json:"product_id"`
	Size           string          `json:"size"`
	LocationID     string          `json:"location_id,omitempty"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	FootToMove     entity.UnitType `json:"foot_to_move,omitempty"`
	Formable       int             `json:"formable"`
	Priority       string          `json:"priority"`
}

type halves struct {
	left, right int
}

type productSize struct {
	productID, size string
}

// FindOpportunities recorre filas de pies sueltos y devuelve las oportunidades ordenadas:
// primero misma ubicación, luego combinaciones entre una ubicación con exceso de izquierdos
// y otra con exceso de derechos, ambas por cantidad formable descendente.
func FindOpportunities(units []*entity.InventoryUnit) []Opportunity {
	grouped := make(map[productSize]map[string]*halves)
	for _, u := range units {
		if !u.UnitType.IsHalf() || u.Quantity <= 0 {
			continue
		}
		ps := productSize{u.ProductID, u.Size}
		if grouped[ps] == nil {
			grouped[ps] = make(map[string]*halves)
		}
		h := grouped[ps][u.LocationID]
		if h == nil {
			h = &halves{}
			grouped[ps][u.LocationID] = h
		}
		if u.UnitType == entity.UnitTypeLeftOnly {
			h.left += u.Quantity
		} else {
			h.right += u.Quantity
		}
	}

	var same, cross []Opportunity
	for ps, locs := range grouped {
		leftHeavy := make(map[string]int)
		rightHeavy := make(map[string]int)
		for locID, h := range locs {
			if n := min(h.left, h.right); n > 0 {
				same = append(same, Opportunity{
					Kind:       OpportunitySameLocation,
					ProductID:  ps.productID,
					Size:       ps.size,
					LocationID: locID,
					Formable:   n,
					Priority:   "high",
				})
			}
			switch {
			case h.left > h.right:
				leftHeavy[locID] = h.left - h.right
			case h.right > h.left:
				rightHeavy[locID] = h.right - h.left
			}
		}
		for lLoc, lQty := range leftHeavy {
			for rLoc, rQty := range rightHeavy {
				n := min(lQty, rQty)
				op := Opportunity{
					Kind:      OpportunityCrossLocation,
					ProductID: ps.productID,
					Size:      ps.size,
					Formable:  n,
					Priority:  crossPriority(n),
				}
				// Se mueve el lado de la ubicación con menor excedente hacia la de mayor.
				if lQty >= rQty {
					op.FromLocationID, op.ToLocationID, op.FootToMove = rLoc, lLoc, entity.UnitTypeRightOnly
				} else {
					op.FromLocationID, op.ToLocationID, op.FootToMove = lLoc, rLoc, entity.UnitTypeLeftOnly
				}
				cross = append(cross, op)
			}
		}
	}

	sortOpportunities(same)
	sortOpportunities(cross)
	return append(same, cross...)
}

func crossPriority(n int) string {
	if n >= 3 {
		return "medium"
	}
	return "low"
}

func sortOpportunities(ops []Opportunity) {
	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i], ops[j]
		if a.Formable != b.Formable {
			return a.Formable > b.Formable
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		if a.FromLocationID != b.FromLocationID {
			return a.FromLocationID < b.FromLocationID
		}
		return a.ToLocationID < b.ToLocationID
	})
}
