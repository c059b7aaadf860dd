package repository

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// UnitFilter filtros para listados de filas de inventario. Campos vacíos no filtran.
type UnitFilter struct {
	CompanyID  string
	LocationID string
	ProductID  string
	Size       string
	HalvesOnly bool
}

// InventoryUnitRepository puerto de las filas mutables del ledger.
// Solo el ledger lo usa para escribir; las lecturas fuera de transacción no bloquean.
type InventoryUnitRepository interface {
	// LockForUpdate bloquea las filas en el orden recibido (crea en cero las que no existan)
	// y devuelve una copia de cada una. El llamador pasa las claves ya ordenadas.
	LockForUpdate(ctx context.Context, companyID string, keys []entity.UnitKey) (map[entity.UnitKey]*entity.InventoryUnit, error)
	// Get devuelve la fila o una fila en cero si no existe.
	Get(ctx context.Context, key entity.UnitKey) (*entity.InventoryUnit, error)
	Save(ctx context.Context, unit *entity.InventoryUnit) error
	List(ctx context.Context, filter UnitFilter) ([]*entity.InventoryUnit, error)
}
