package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.InventoryUnitRepository = (*UnitRepo)(nil)

const unitColumns = `company_id, location_id, product_id, size, unit_type, quantity, display_quantity, updated_at`

// UnitRepo filas de inventario_units. LockForUpdate solo es válido dentro de una transacción.
type UnitRepo struct {
	q    Querier
	inTx bool
}

// NewUnitRepository construye el adaptador sobre el pool (lecturas sin bloqueo).
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

// LockForUpdate crea en cero las filas que falten y bloquea cada una con SELECT ... FOR UPDATE
// en el orden recibido.
func (r *UnitRepo) LockForUpdate(ctx context.Context, companyID string, keys []entity.UnitKey) (map[entity.UnitKey]*entity.InventoryUnit, error) {
	if !r.inTx {
		return nil, fmt.Errorf("lock inventory units: se requiere transacción")
	}
	const insertQ = `
		INSERT INTO inventory_units (company_id, location_id, product_id, size, unit_type, quantity, display_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, now())
		ON CONFLICT (location_id, product_id, size, unit_type) DO NOTHING`
	const selectQ = `SELECT ` + unitColumns + ` FROM inventory_units
		WHERE location_id = $1 AND product_id = $2 AND size = $3 AND unit_type = $4
		FOR UPDATE`

	out := make(map[entity.UnitKey]*entity.InventoryUnit, len(keys))
	for _, k := range keys {
		if _, err := r.q.Exec(ctx, insertQ, companyID, k.LocationID, k.ProductID, k.Size, string(k.UnitType)); err != nil {
			return nil, wrapErr("create inventory unit", err)
		}
		u, err := scanUnit(r.q.QueryRow(ctx, selectQ, k.LocationID, k.ProductID, k.Size, string(k.UnitType)))
		if err != nil {
			return nil, wrapErr("lock inventory unit "+k.String(), err)
		}
		out[k] = u
	}
	return out, nil
}

// Get devuelve la fila o una en cero si no existe.
func (r *UnitRepo) Get(ctx context.Context, key entity.UnitKey) (*entity.InventoryUnit, error) {
	const q = `SELECT ` + unitColumns + ` FROM inventory_units
		WHERE location_id = $1 AND product_id = $2 AND size = $3 AND unit_type = $4`
	u, err := scanUnit(r.q.QueryRow(ctx, q, key.LocationID, key.ProductID, key.Size, string(key.UnitType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryUnit{UnitKey: key}, nil
		}
		return nil, wrapErr("get inventory unit", err)
	}
	return u, nil
}

// Save persiste cantidad y exhibición. Las restricciones CHECK de la tabla rechazan negativos.
func (r *UnitRepo) Save(ctx context.Context, u *entity.InventoryUnit) error {
	if u.Quantity < 0 || u.DisplayQuantity < 0 {
		return fmt.Errorf("save inventory unit %s: cantidad negativa: %w", u.UnitKey, domain.ErrInvalidInput)
	}
	const q = `
		INSERT INTO inventory_units (company_id, location_id, product_id, size, unit_type, quantity, display_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (location_id, product_id, size, unit_type)
		DO UPDATE SET quantity = EXCLUDED.quantity, display_quantity = EXCLUDED.display_quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, q, u.CompanyID, u.LocationID, u.ProductID, u.Size, string(u.UnitType),
		u.Quantity, u.DisplayQuantity, u.UpdatedAt)
	if err != nil {
		return wrapErr("save inventory unit", err)
	}
	return nil
}

// List filas que cumplen el filtro en orden canónico.
func (r *UnitRepo) List(ctx context.Context, fl repository.UnitFilter) ([]*entity.InventoryUnit, error) {
	var f filter
	if fl.CompanyID != "" {
		f.add("company_id = $%d", fl.CompanyID)
	}
	if fl.LocationID != "" {
		f.add("location_id = $%d", fl.LocationID)
	}
	if fl.ProductID != "" {
		f.add("product_id = $%d", fl.ProductID)
	}
	if fl.Size != "" {
		f.add("size = $%d", fl.Size)
	}
	if fl.HalvesOnly {
		f.raw("unit_type <> 'pair'")
	}
	q := `SELECT ` + unitColumns + ` FROM inventory_units` + f.where() + `
		ORDER BY location_id, product_id, size,
		CASE unit_type WHEN 'pair' THEN 0 WHEN 'left_only' THEN 1 ELSE 2 END`

	rows, err := r.q.Query(ctx, q, f.args...)
	if err != nil {
		return nil, wrapErr("list inventory units", err)
	}
	defer rows.Close()
	var list []*entity.InventoryUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory unit: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUnit(row pgxScanner) (*entity.InventoryUnit, error) {
	var u entity.InventoryUnit
	var unitType string
	if err := row.Scan(&u.CompanyID, &u.LocationID, &u.ProductID, &u.Size, &unitType,
		&u.Quantity, &u.DisplayQuantity, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.UnitType = entity.UnitType(unitType)
	return &u, nil
}
