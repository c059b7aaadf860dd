// Package ledger es el único escritor de filas de inventario. Toda mutación pasa por
// Adjust o ApplyBatch dentro de una transacción y deja su registro de auditoría en ella.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

// Ledger libro de inventario por ubicación, producto, talla y tipo de unidad.
type Ledger struct {
	txRunner  ports.TxRunner
	units     repository.InventoryUnitRepository
	changes   repository.InventoryChangeRepository
	locations repository.LocationRepository
	products  repository.ProductRepository
	cache     ports.DistributionCache
	log       *logger.Logger
	now       func() time.Time
}

// Deps dependencias del ledger. Los repositorios son de lectura fuera de transacción.
type Deps struct {
	TxRunner  ports.TxRunner
	Units     repository.InventoryUnitRepository
	Changes   repository.InventoryChangeRepository
	Locations repository.LocationRepository
	Products  repository.ProductRepository
	Cache     ports.DistributionCache // opcional
	Logger    *logger.Logger
	Clock     func() time.Time
}

// New construye el ledger.
func New(d Deps) *Ledger {
	l := &Ledger{
		txRunner:  d.TxRunner,
		units:     d.Units,
		changes:   d.Changes,
		locations: d.Locations,
		products:  d.Products,
		cache:     d.Cache,
		log:       d.Logger,
		now:       d.Clock,
	}
	if l.log == nil {
		l.log = logger.Nop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Now reloj del ledger (inyectable en tests).
func (l *Ledger) Now() time.Time { return l.now() }

// Audit datos del registro de auditoría que acompaña a una mutación.
type Audit struct {
	CompanyID         string
	UserID            string
	ChangeType        entity.ChangeType
	TransferRequestID string
	Notes             string
}

// Mutation variación de una fila dentro de un lote.
type Mutation struct {
	Key   entity.UnitKey
	Delta int
	Audit Audit
}

// Rows copia de las filas bloqueadas por la transacción.
type Rows map[entity.UnitKey]*entity.InventoryUnit

// Qty cantidad de la fila (0 si no fue bloqueada).
func (r Rows) Qty(k entity.UnitKey) int {
	if u, ok := r[k]; ok {
		return u.Quantity
	}
	return 0
}

// Lock bloquea las filas en orden canónico y devuelve su estado actual dentro de tx.
// Es reentrante: volver a bloquear filas ya tomadas por la misma transacción no espera.
func (l *Ledger) Lock(ctx context.Context, tx ports.Tx, companyID string, keys ...entity.UnitKey) (Rows, error) {
	for _, k := range keys {
		if !k.UnitType.Valid() || k.LocationID == "" || k.ProductID == "" || k.Size == "" {
			return nil, fmt.Errorf("clave de inventario %s: %w", k, domain.ErrInvalidInput)
		}
	}
	rows, err := tx.Units().LockForUpdate(ctx, companyID, entity.SortUnitKeys(keys))
	if err != nil {
		return nil, err
	}
	return Rows(rows), nil
}

// Adjust suma delta a la fila (bloqueándola si hace falta) y escribe el InventoryChange en
// la misma transacción. Devuelve la nueva cantidad o *domain.InsufficientStockError si
// quedaría negativa.
func (l *Ledger) Adjust(ctx context.Context, tx ports.Tx, key entity.UnitKey, delta int, audit Audit) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("ajuste en cero: %w", domain.ErrInvalidInput)
	}
	rows, err := l.Lock(ctx, tx, audit.CompanyID, key)
	if err != nil {
		return 0, err
	}
	u := rows[key]
	before := u.Quantity
	after := before + delta
	if after < 0 {
		return 0, &domain.InsufficientStockError{
			LocationID: key.LocationID,
			ProductID:  key.ProductID,
			Size:       key.Size,
			UnitType:   string(key.UnitType),
			Requested:  -delta,
			Available:  before,
		}
	}
	now := l.now()
	u.Quantity = after
	if u.DisplayQuantity > after {
		u.DisplayQuantity = after
	}
	u.UpdatedAt = now
	if u.CompanyID == "" {
		u.CompanyID = audit.CompanyID
	}
	if err := tx.Units().Save(ctx, u); err != nil {
		return 0, err
	}
	change := &entity.InventoryChange{
		ID:                newID(),
		CompanyID:         audit.CompanyID,
		ProductID:         key.ProductID,
		Size:              key.Size,
		LocationID:        key.LocationID,
		UnitType:          key.UnitType,
		ChangeType:        audit.ChangeType,
		QuantityBefore:    before,
		QuantityAfter:     after,
		UserID:            audit.UserID,
		TransferRequestID: audit.TransferRequestID,
		Notes:             audit.Notes,
		CreatedAt:         now,
	}
	if err := tx.Changes().Create(ctx, change); err != nil {
		return 0, err
	}
	l.invalidateOnCommit(ctx, tx, audit.CompanyID, key)
	return after, nil
}

// ApplyBatch bloquea todas las filas del lote en orden canónico antes de mutar y aplica
// cada variación. Cualquier fallo aborta la transacción completa (el llamador la descarta).
func (l *Ledger) ApplyBatch(ctx context.Context, tx ports.Tx, muts []Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	keys := make([]entity.UnitKey, 0, len(muts))
	for _, m := range muts {
		keys = append(keys, m.Key)
	}
	if _, err := l.Lock(ctx, tx, muts[0].Audit.CompanyID, keys...); err != nil {
		return err
	}
	// Primero los incrementos: una fila que baja y sube en el mismo lote no debe fallar
	// por el orden de las variaciones.
	for _, m := range muts {
		if m.Delta > 0 {
			if _, err := l.Adjust(ctx, tx, m.Key, m.Delta, m.Audit); err != nil {
				return err
			}
		}
	}
	for _, m := range muts {
		if m.Delta < 0 {
			if _, err := l.Adjust(ctx, tx, m.Key, m.Delta, m.Audit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Ledger) invalidateOnCommit(ctx context.Context, tx ports.Tx, companyID string, key entity.UnitKey) {
	if l.cache == nil {
		return
	}
	tx.OnCommit(func() {
		l.cache.Invalidate(context.WithoutCancel(ctx), companyID, key.ProductID, key.Size)
	})
}
