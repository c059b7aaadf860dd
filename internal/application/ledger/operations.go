package ledger

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// SaleInput venta de pares completos en un local.
type SaleInput struct {
	LocationID string
	ProductID  string
	Size       string
	Quantity   int
	Notes      string
}

// Sell vende pares completos: reserva sobre la cantidad vendible y confirma en la misma
// transacción. Las unidades en exhibición no se venden.
func (l *Ledger) Sell(ctx context.Context, actor entity.Actor, in SaleInput) (*entity.InventoryUnit, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := l.checkLocation(ctx, actor, in.LocationID, "vender"); err != nil {
		return nil, err
	}
	if err := l.checkProduct(ctx, actor.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	key := entity.UnitKey{LocationID: in.LocationID, ProductID: in.ProductID, Size: in.Size, UnitType: entity.UnitTypePair}

	var out *entity.InventoryUnit
	err := l.txRunner.Run(ctx, func(tx ports.Tx) error {
		res, err := l.Reserve(ctx, tx, actor.CompanyID, key, in.Quantity, ReservationSale)
		if err != nil {
			return err
		}
		if _, err := res.Commit(ctx, Audit{
			CompanyID:  actor.CompanyID,
			UserID:     actor.UserID,
			ChangeType: entity.ChangeSale,
			Notes:      in.Notes,
		}); err != nil {
			return err
		}
		out, err = tx.Units().Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("location_id", in.LocationID).Str("product_id", in.ProductID).Str("size", in.Size).
		Int("quantity", in.Quantity).Str("actor", actor.UserID).Msg("venta registrada")
	return out, nil
}

// StockInput alta explícita de unidades (ingreso de mercancía nueva).
type StockInput struct {
	LocationID string
	ProductID  string
	Size       string
	UnitType   entity.UnitType
	Quantity   int
	Notes      string
}

// RegisterStock crea unidades en una ubicación: es el único evento de creación externa.
func (l *Ledger) RegisterStock(ctx context.Context, actor entity.Actor, in StockInput) (*entity.InventoryUnit, error) {
	if err := l.CheckIntake(ctx, actor, in); err != nil {
		return nil, err
	}
	var out *entity.InventoryUnit
	err := l.txRunner.Run(ctx, func(tx ports.Tx) error {
		var err error
		out, err = l.RegisterStockIn(ctx, tx, actor, in)
		return err
	})
	if err != nil {
		l.log.Warn().Err(err).Str("location_id", in.LocationID).Str("product_id", in.ProductID).
			Int("quantity", in.Quantity).Msg("ingreso rechazado")
		return nil, err
	}
	l.log.Info().Str("location_id", in.LocationID).Str("product_id", in.ProductID).Str("size", in.Size).
		Str("unit_type", string(in.UnitType)).Int("delta", in.Quantity).Int("quantity", out.Quantity).
		Str("change_type", string(entity.ChangeIntake)).Msg("inventario ajustado")
	return out, nil
}

// CheckIntake valida el ingreso (datos, rol y ubicación gestionada) sin abrir transacción,
// para rechazarlo antes de escribir nada más. No valida el producto.
func (l *Ledger) CheckIntake(ctx context.Context, actor entity.Actor, in StockInput) error {
	if in.Quantity <= 0 || !in.UnitType.Valid() || in.Size == "" {
		return domain.ErrInvalidInput
	}
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) {
		return &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "registrar ingreso", LocationID: in.LocationID}
	}
	return l.checkLocation(ctx, actor, in.LocationID, "registrar ingreso")
}

// RegisterStockIn ingreso dentro de una transacción en curso. El producto se busca a través
// de tx, así que puede haberse creado en la misma transacción.
func (l *Ledger) RegisterStockIn(ctx context.Context, tx ports.Tx, actor entity.Actor, in StockInput) (*entity.InventoryUnit, error) {
	if err := l.CheckIntake(ctx, actor, in); err != nil {
		return nil, err
	}
	p, err := tx.Products().GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil || p.CompanyID != actor.CompanyID {
		return nil, domain.ErrNotFound
	}
	key := entity.UnitKey{LocationID: in.LocationID, ProductID: in.ProductID, Size: in.Size, UnitType: in.UnitType}
	if _, err := l.Adjust(ctx, tx, key, in.Quantity, Audit{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		ChangeType: entity.ChangeIntake,
		Notes:      in.Notes,
	}); err != nil {
		return nil, err
	}
	return tx.Units().Get(ctx, key)
}

// AdjustStock corrección manual de inventario (conteo físico), en su propia transacción.
func (l *Ledger) AdjustStock(ctx context.Context, actor entity.Actor, key entity.UnitKey, delta int, notes string) (*entity.InventoryUnit, error) {
	if delta == 0 || !key.UnitType.Valid() || key.Size == "" {
		return nil, domain.ErrInvalidInput
	}
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) {
		return nil, &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "ajustar inventario", LocationID: key.LocationID}
	}
	if err := l.checkLocation(ctx, actor, key.LocationID, "ajustar inventario"); err != nil {
		return nil, err
	}
	if err := l.checkProduct(ctx, actor.CompanyID, key.ProductID); err != nil {
		return nil, err
	}
	return l.adjustInTx(ctx, key, delta, Audit{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		ChangeType: entity.ChangeAdjustment,
		Notes:      notes,
	})
}

func (l *Ledger) adjustInTx(ctx context.Context, key entity.UnitKey, delta int, audit Audit) (*entity.InventoryUnit, error) {
	var out *entity.InventoryUnit
	err := l.txRunner.Run(ctx, func(tx ports.Tx) error {
		if _, err := l.Adjust(ctx, tx, key, delta, audit); err != nil {
			return err
		}
		var err error
		out, err = tx.Units().Get(ctx, key)
		return err
	})
	if err != nil {
		l.log.Warn().Err(err).Str("unit", key.String()).Int("delta", delta).Msg("ajuste de inventario rechazado")
		return nil, err
	}
	l.log.Info().Str("unit", key.String()).Int("delta", delta).Int("quantity", out.Quantity).
		Str("change_type", string(audit.ChangeType)).Msg("inventario ajustado")
	return out, nil
}

// SetDisplay fija cuántos pares quedan reservados para exhibición (0 ≤ display ≤ cantidad).
func (l *Ledger) SetDisplay(ctx context.Context, actor entity.Actor, locationID, productID, size string, display int) (*entity.InventoryUnit, error) {
	if display < 0 || size == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := l.checkLocation(ctx, actor, locationID, "cambiar exhibición"); err != nil {
		return nil, err
	}
	key := entity.UnitKey{LocationID: locationID, ProductID: productID, Size: size, UnitType: entity.UnitTypePair}

	var out *entity.InventoryUnit
	err := l.txRunner.Run(ctx, func(tx ports.Tx) error {
		rows, err := l.Lock(ctx, tx, actor.CompanyID, key)
		if err != nil {
			return err
		}
		u := rows[key]
		if display > u.Quantity {
			return &domain.InsufficientStockError{
				LocationID: locationID, ProductID: productID, Size: size,
				UnitType: string(entity.UnitTypePair), Requested: display, Available: u.Quantity,
			}
		}
		before := u.DisplayQuantity
		u.DisplayQuantity = display
		u.UpdatedAt = l.now()
		if err := tx.Units().Save(ctx, u); err != nil {
			return err
		}
		if err := tx.Changes().Create(ctx, &entity.InventoryChange{
			ID:             newID(),
			CompanyID:      actor.CompanyID,
			ProductID:      productID,
			Size:           size,
			LocationID:     locationID,
			UnitType:       entity.UnitTypePair,
			ChangeType:     entity.ChangeDisplay,
			QuantityBefore: before,
			QuantityAfter:  display,
			UserID:         actor.UserID,
			Notes:          "exhibición",
			CreatedAt:      u.UpdatedAt,
		}); err != nil {
			return err
		}
		l.invalidateOnCommit(ctx, tx, actor.CompanyID, key)
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) checkLocation(ctx context.Context, actor entity.Actor, locationID, action string) error {
	loc, err := l.locations.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("get location: %w", err)
	}
	if loc == nil || loc.CompanyID != actor.CompanyID {
		return domain.ErrNotFound
	}
	if !loc.IsActive {
		return fmt.Errorf("ubicación %s inactiva: %w", locationID, domain.ErrInvalidInput)
	}
	if !actor.Manages(locationID) {
		return &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: action, LocationID: locationID}
	}
	return nil
}

func (l *Ledger) checkProduct(ctx context.Context, companyID, productID string) error {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p == nil || p.CompanyID != companyID {
		return domain.ErrNotFound
	}
	return nil
}
