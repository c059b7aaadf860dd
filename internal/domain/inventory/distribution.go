package inventory

import (
	"math"
	"sort"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// Holding cantidades de un producto-talla en una ubicación.
type Holding struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	LocationType string `json:"location_type"`
	Pairs        int    `json:"pairs"`
	Left         int    `json:"left"`
	Right        int    `json:"right"`
	DisplayPairs int    `json:"display_pairs"`
}

// Distribution vista global de un producto-talla en todas las ubicaciones.
type Distribution struct {
	ProductID     string    `json:"product_id"`
	Size          string    `json:"size"`
	Locations     []Holding `json:"locations"`
	TotalPairs    int       `json:"total_pairs"`
	TotalLeft     int       `json:"total_left"`
	TotalRight    int       `json:"total_right"`
	FormablePairs int       `json:"formable_pairs"` // min(total LEFT, total RIGHT)
}

// TotalPotentialPairs pares vendibles si se completaran todos los pares formables.
func (d Distribution) TotalPotentialPairs() int {
	return d.TotalPairs + d.FormablePairs
}

// EfficiencyPct porcentaje del potencial que ya está en pares completos (100 = todo emparejado).
func (d Distribution) EfficiencyPct() float64 {
	potential := d.TotalPotentialPairs()
	if potential == 0 {
		return 0
	}
	return math.Round(float64(d.TotalPairs)/float64(potential)*10000) / 100
}

// Balanced indica si hay tantos izquierdos sueltos como derechos sueltos.
func (d Distribution) Balanced() bool {
	return d.TotalLeft == d.TotalRight
}

// Summarize agrupa filas de inventario por ubicación. locations aporta nombre y tipo.
func Summarize(productID, size string, units []*entity.InventoryUnit, locations map[string]*entity.Location) Distribution {
	byLoc := make(map[string]*Holding)
	for _, u := range units {
		if u.ProductID != productID || u.Size != size {
			continue
		}
		h, ok := byLoc[u.LocationID]
		if !ok {
			h = &Holding{LocationID: u.LocationID}
			if loc, found := locations[u.LocationID]; found && loc != nil {
				h.LocationName = loc.Name
				h.LocationType = loc.Type
			}
			byLoc[u.LocationID] = h
		}
		switch u.UnitType {
		case entity.UnitTypePair:
			h.Pairs += u.Quantity
			h.DisplayPairs += u.DisplayQuantity
		case entity.UnitTypeLeftOnly:
			h.Left += u.Quantity
		case entity.UnitTypeRightOnly:
			h.Right += u.Quantity
		}
	}

	d := Distribution{ProductID: productID, Size: size, Locations: make([]Holding, 0, len(byLoc))}
	for _, h := range byLoc {
		d.Locations = append(d.Locations, *h)
		d.TotalPairs += h.Pairs
		d.TotalLeft += h.Left
		d.TotalRight += h.Right
	}
	sort.Slice(d.Locations, func(i, j int) bool { return d.Locations[i].LocationID < d.Locations[j].LocationID })
	d.FormablePairs = min(d.TotalLeft, d.TotalRight)
	return d
}
