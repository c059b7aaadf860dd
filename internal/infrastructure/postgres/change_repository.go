package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.InventoryChangeRepository = (*ChangeRepo)(nil)

// ChangeRepo historial de inventory_changes (solo inserciones).
type ChangeRepo struct {
	q Querier
}

// NewChangeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewChangeRepository(q Querier) *ChangeRepo {
	return &ChangeRepo{q: q}
}

func (r *ChangeRepo) Create(ctx context.Context, c *entity.InventoryChange) error {
	const q = `
		INSERT INTO inventory_changes (id, company_id, product_id, size, location_id, unit_type, change_type,
			quantity_before, quantity_after, user_id, transfer_request_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, q, c.ID, c.CompanyID, c.ProductID, c.Size, c.LocationID, string(c.UnitType),
		string(c.ChangeType), c.QuantityBefore, c.QuantityAfter, c.UserID, nullable(c.TransferRequestID),
		c.Notes, c.CreatedAt)
	if err != nil {
		return wrapErr("insert inventory change", err)
	}
	return nil
}

// List más recientes primero.
func (r *ChangeRepo) List(ctx context.Context, fl repository.ChangeFilter) ([]*entity.InventoryChange, error) {
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
	if fl.TransferRequestID != "" {
		f.add("transfer_request_id = $%d", fl.TransferRequestID)
	}
	q := `
		SELECT id, company_id, product_id, size, location_id, unit_type, change_type,
			quantity_before, quantity_after, user_id, transfer_request_id, notes, created_at
		FROM inventory_changes` + f.where() + ` ORDER BY created_at DESC, id DESC`
	if fl.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", f.next(fl.Limit))
	}

	rows, err := r.q.Query(ctx, q, f.args...)
	if err != nil {
		return nil, wrapErr("list inventory changes", err)
	}
	defer rows.Close()
	var list []*entity.InventoryChange
	for rows.Next() {
		var c entity.InventoryChange
		var unitType, changeType string
		var transferID *string
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.ProductID, &c.Size, &c.LocationID, &unitType, &changeType,
			&c.QuantityBefore, &c.QuantityAfter, &c.UserID, &transferID, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory change: %w", err)
		}
		c.UnitType = entity.UnitType(unitType)
		c.ChangeType = entity.ChangeType(changeType)
		c.TransferRequestID = deref(transferID)
		list = append(list, &c)
	}
	return list, rows.Err()
}
