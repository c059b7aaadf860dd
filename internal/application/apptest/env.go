// Package apptest arma los motores de aplicación sobre el almacenamiento en memoria para
// las pruebas de los paquetes ledger, pairing, transfer e intake.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/application/transfer"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

// Datos sembrados en cada entorno.
const (
	CompanyID = "empresa-1"
	LocA      = "loc-a" // local
	LocB      = "loc-b" // bodega
	LocC      = "loc-c" // local
	ProductID = "prod-1"
	Size      = "42"
)

// Clock reloj manual.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now hora actual del reloj.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance adelanta el reloj.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Recorder notificador que guarda los eventos publicados.
type Recorder struct {
	mu     sync.Mutex
	events []ports.Event
}

// Publish implementa ports.Notifier.
func (r *Recorder) Publish(_ context.Context, ev ports.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Types tipos de los eventos recibidos, en orden.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// Reset descarta los eventos recibidos.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Env motores conectados a un Store en memoria con tres ubicaciones y un producto.
type Env struct {
	T         testing.TB
	Ctx       context.Context
	Store     *memory.Store
	Ledger    *ledger.Ledger
	Pairing   *pairing.Engine
	Transfers *transfer.Engine
	Events    *Recorder
	Clock     *Clock
}

// Option ajusta las dependencias antes de construir los motores.
type Option func(*ledger.Deps)

// WithCache conecta un caché de distribución al ledger.
func WithCache(c ports.DistributionCache) Option {
	return func(d *ledger.Deps) { d.Cache = c }
}

// New construye el entorno.
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()
	ctx := context.Background()
	store := memory.New(2 * time.Second)
	clock := &Clock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	events := &Recorder{}

	for _, l := range []*entity.Location{
		{ID: LocA, CompanyID: CompanyID, Name: "Local Centro", Type: entity.LocationTypeStore, IsActive: true},
		{ID: LocB, CompanyID: CompanyID, Name: "Bodega Norte", Type: entity.LocationTypeWarehouse, IsActive: true},
		{ID: LocC, CompanyID: CompanyID, Name: "Local Sur", Type: entity.LocationTypeStore, IsActive: true},
	} {
		require.NoError(t, store.Locations().Create(ctx, l))
	}
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: ProductID, CompanyID: CompanyID, ReferenceCode: "NK-AIR-01", Brand: "Nike", Model: "Air",
		UnitPrice: decimal.NewFromInt(250000),
	}))

	log := logger.Nop()
	deps := ledger.Deps{
		TxRunner:  store,
		Units:     store.Units(),
		Changes:   store.Changes(),
		Locations: store.Locations(),
		Products:  store.Products(),
		Logger:    log,
		Clock:     clock.Now,
	}
	for _, o := range opts {
		o(&deps)
	}
	l := ledger.New(deps)
	pe := pairing.NewEngine(store, l, store.Units(), events, log)
	te := transfer.NewEngine(transfer.Deps{
		TxRunner:  store,
		Ledger:    l,
		Pairing:   pe,
		Transfers: store.Transfers(),
		Incidents: store.Incidents(),
		Locations: store.Locations(),
		Products:  store.Products(),
		Notifier:  events,
		Logger:    log,
		Clock:     clock.Now,
	})
	return &Env{T: t, Ctx: ctx, Store: store, Ledger: l, Pairing: pe, Transfers: te, Events: events, Clock: clock}
}

// Admin administrador de la empresa.
func Admin() entity.Actor {
	return entity.Actor{UserID: "admin", CompanyID: CompanyID, Role: entity.RoleAdmin}
}

// Custodian bodeguero de las ubicaciones dadas.
func Custodian(id string, locations ...string) entity.Actor {
	return entity.Actor{UserID: id, CompanyID: CompanyID, Role: entity.RoleCustodian, ManagedLocationIDs: locations}
}

// Seller vendedor de las ubicaciones dadas.
func Seller(id string, locations ...string) entity.Actor {
	return entity.Actor{UserID: id, CompanyID: CompanyID, Role: entity.RoleSeller, ManagedLocationIDs: locations}
}

// Courier corredor.
func Courier(id string) entity.Actor {
	return entity.Actor{UserID: id, CompanyID: CompanyID, Role: entity.RoleCourier}
}

// Key fila del producto sembrado.
func Key(loc string, ut entity.UnitType) entity.UnitKey {
	return entity.UnitKey{LocationID: loc, ProductID: ProductID, Size: Size, UnitType: ut}
}

// Seed registra qty unidades del tipo dado en la ubicación.
func (e *Env) Seed(loc string, ut entity.UnitType, qty int) {
	e.T.Helper()
	_, err := e.Ledger.RegisterStock(e.Ctx, Admin(), ledger.StockInput{
		LocationID: loc, ProductID: ProductID, Size: Size, UnitType: ut, Quantity: qty,
	})
	require.NoError(e.T, err)
}

// Qty cantidad actual de la fila.
func (e *Env) Qty(loc string, ut entity.UnitType) int {
	e.T.Helper()
	u, err := e.Store.Units().Get(e.Ctx, Key(loc, ut))
	require.NoError(e.T, err)
	return u.Quantity
}

// Feet pies izquierdos y derechos del producto sembrado en todas las ubicaciones.
func (e *Env) Feet() (left, right int) {
	e.T.Helper()
	for _, loc := range []string{LocA, LocB, LocC} {
		left += e.Qty(loc, entity.UnitTypePair) + e.Qty(loc, entity.UnitTypeLeftOnly)
		right += e.Qty(loc, entity.UnitTypePair) + e.Qty(loc, entity.UnitTypeRightOnly)
	}
	return left, right
}
