package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// DefaultLockTimeout espera máxima por un bloqueo de fila si no se configura otra.
const DefaultLockTimeout = 5 * time.Second

// Store almacenamiento en proceso con semántica transaccional: bloqueos exclusivos por
// fila con timeout, escrituras aisladas por transacción y aplicadas solo en Commit.
// Se usa en tests y con STORAGE_DRIVER=memory.
type Store struct {
	mu        sync.RWMutex
	locations map[string]*entity.Location
	products  map[string]*entity.Product
	units     map[entity.UnitKey]*entity.InventoryUnit
	changes   []*entity.InventoryChange
	transfers map[string]*entity.TransferRequest
	incidents []*entity.TransportIncident

	locks       *lockTable
	lockTimeout time.Duration
}

// New construye un Store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func New(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		locations:   make(map[string]*entity.Location),
		products:    make(map[string]*entity.Product),
		units:       make(map[entity.UnitKey]*entity.InventoryUnit),
		transfers:   make(map[string]*entity.TransferRequest),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
	}
}

// Repositorios fuera de transacción: leen el estado confirmado sin bloquear.
func (s *Store) Units() repository.InventoryUnitRepository { return &unitRepo{s: s} }
func (s *Store) Changes() repository.InventoryChangeRepository { return &changeRepo{s: s} }
func (s *Store) Transfers() repository.TransferRepository { return &transferRepo{s: s} }
func (s *Store) Incidents() repository.IncidentRepository { return &incidentRepo{s: s} }
func (s *Store) Locations() repository.LocationRepository { return &locationRepo{s: s} }
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Run ejecuta fn en una transacción. Si fn falla (o entra en pánico) se descartan las
// escrituras y se liberan los bloqueos; si no, se aplican de forma atómica.
func (s *Store) Run(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx := &memTx{
		s:         s,
		held:      make(map[string]struct{}),
		units:     make(map[entity.UnitKey]*entity.InventoryUnit),
		transfers: make(map[string]*entity.TransferRequest),
		products:  make(map[string]*entity.Product),
	}
	defer tx.releaseAll()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	tx.commit()
	tx.releaseAll()
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// memTx estado de una transacción en curso.
type memTx struct {
	s *Store

	held      map[string]struct{}
	heldOrder []string

	units     map[entity.UnitKey]*entity.InventoryUnit
	transfers map[string]*entity.TransferRequest
	changes   []*entity.InventoryChange
	incidents []*entity.TransportIncident
	products  map[string]*entity.Product
	hooks     []func()
}

func (t *memTx) Units() repository.InventoryUnitRepository { return &unitRepo{s: t.s, tx: t} }
func (t *memTx) Changes() repository.InventoryChangeRepository { return &changeRepo{s: t.s, tx: t} }
func (t *memTx) Transfers() repository.TransferRepository { return &transferRepo{s: t.s, tx: t} }
func (t *memTx) Incidents() repository.IncidentRepository { return &incidentRepo{s: t.s, tx: t} }
func (t *memTx) Products() repository.ProductRepository { return &productRepo{s: t.s, tx: t} }

func (t *memTx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// lock es reentrante dentro de la misma transacción.
func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.held[key] = struct{}{}
	t.heldOrder = append(t.heldOrder, key)
	return nil
}

func (t *memTx) holds(key string) bool {
	_, ok := t.held[key]
	return ok
}

func (t *memTx) releaseAll() {
	for i := len(t.heldOrder) - 1; i >= 0; i-- {
		t.s.locks.release(t.heldOrder[i])
	}
	t.heldOrder = nil
	t.held = map[string]struct{}{}
}

func (t *memTx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, u := range t.units {
		s.units[k] = u
	}
	for id, tr := range t.transfers {
		s.transfers[id] = tr
	}
	for id, p := range t.products {
		s.products[id] = p
	}
	s.changes = append(s.changes, t.changes...)
	s.incidents = append(s.incidents, t.incidents...)
}

func unitLockKey(k entity.UnitKey) string { return "unit:" + k.String() }
func transferLockKey(id string) string    { return "transfer:" + id }
func productLockKey(companyID, ref string) string {
	return "product:" + companyID + ":" + ref
}
