package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
)

func unit(loc string, t entity.UnitType, qty int) *entity.InventoryUnit {
	return &entity.InventoryUnit{UnitKey: entity.UnitKey{LocationID: loc, ProductID: "P", Size: "42", UnitType: t}, Quantity: qty}
}

func TestSummarize_TotalesYMetricas(t *testing.T) {
	units := []*entity.InventoryUnit{
		unit("A", entity.UnitTypePair, 4),
		unit("A", entity.UnitTypeLeftOnly, 3),
		unit("B", entity.UnitTypeRightOnly, 1),
		unit("B", entity.UnitTypePair, 2),
		{UnitKey: entity.UnitKey{LocationID: "A", ProductID: "OTRO", Size: "42", UnitType: entity.UnitTypePair}, Quantity: 9},
	}
	locs := map[string]*entity.Location{"A": {ID: "A", Name: "Local Centro", Type: entity.LocationTypeStore}}

	d := inventory.Summarize("P", "42", units, locs)

	assert.Equal(t, 6, d.TotalPairs)
	assert.Equal(t, 3, d.TotalLeft)
	assert.Equal(t, 1, d.TotalRight)
	assert.Equal(t, 1, d.FormablePairs)
	assert.Equal(t, 7, d.TotalPotentialPairs())
	assert.InDelta(t, 85.71, d.EfficiencyPct(), 0.001)
	assert.False(t, d.Balanced())

	if assert.Len(t, d.Locations, 2) {
		assert.Equal(t, "A", d.Locations[0].LocationID)
		assert.Equal(t, "Local Centro", d.Locations[0].LocationName)
		assert.Equal(t, "B", d.Locations[1].LocationID)
		assert.Empty(t, d.Locations[1].LocationName)
	}
}

func TestSummarize_SinStock(t *testing.T) {
	d := inventory.Summarize("P", "42", nil, nil)
	assert.Zero(t, d.EfficiencyPct())
	assert.True(t, d.Balanced())
	assert.Empty(t, d.Locations)
}
