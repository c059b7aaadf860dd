package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
)

func TestFindOpportunities_MismaUbicacionPrimero(t *testing.T) {
	units := []*entity.InventoryUnit{
		unit("A", entity.UnitTypeLeftOnly, 5),
		unit("A", entity.UnitTypeRightOnly, 1),
		unit("B", entity.UnitTypeRightOnly, 3),
		unit("C", entity.UnitTypePair, 10),
	}

	ops := inventory.FindOpportunities(units)
	require.Len(t, ops, 2)

	same := ops[0]
	assert.Equal(t, inventory.OpportunitySameLocation, same.Kind)
	assert.Equal(t, "A", same.LocationID)
	assert.Equal(t, 1, same.Formable)
	assert.Equal(t, "high", same.Priority)

	cross := ops[1]
	assert.Equal(t, inventory.OpportunityCrossLocation, cross.Kind)
	// A tiene 4 izquierdos de exceso y B 3 derechos: se mueven los derechos de B hacia A.
	assert.Equal(t, "B", cross.FromLocationID)
	assert.Equal(t, "A", cross.ToLocationID)
	assert.Equal(t, entity.UnitTypeRightOnly, cross.FootToMove)
	assert.Equal(t, 3, cross.Formable)
	assert.Equal(t, "medium", cross.Priority)
}

func TestFindOpportunities_SinPiesSueltos(t *testing.T) {
	ops := inventory.FindOpportunities([]*entity.InventoryUnit{unit("A", entity.UnitTypePair, 3)})
	assert.Empty(t, ops)
}
