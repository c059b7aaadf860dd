package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Cada transacción fija lock_timeout: una espera de bloqueo mayor se devuelve como domain.ErrLockTimeout.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los hooks OnCommit corren después del Commit y solo si tuvo éxito.
func (r *TxRunner) Run(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		ms := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", ms); err != nil {
			return wrapErr("set lock_timeout", err)
		}
	}

	ptx := &pgTx{q: tx}
	if err := fn(ptx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	for _, hook := range ptx.hooks {
		hook()
	}
	return nil
}

// pgTx repos atados a una pgx.Tx.
type pgTx struct {
	q     Querier
	hooks []func()
}

func (t *pgTx) Units() repository.InventoryUnitRepository {
	return &UnitRepo{q: t.q, inTx: true}
}

func (t *pgTx) Changes() repository.InventoryChangeRepository {
	return NewChangeRepository(t.q)
}

func (t *pgTx) Transfers() repository.TransferRepository {
	return &TransferRepo{q: t.q, inTx: true}
}

func (t *pgTx) Incidents() repository.IncidentRepository {
	return NewIncidentRepository(t.q)
}

func (t *pgTx) Products() repository.ProductRepository {
	return NewProductRepository(t.q)
}

func (t *pgTx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// Repositories repos sobre el pool para lecturas y escrituras fuera de transacción.
type Repositories struct {
	Units     *UnitRepo
	Changes   *ChangeRepo
	Transfers *TransferRepo
	Incidents *IncidentRepo
	Locations *LocationRepo
	Products  *ProductRepo
}

// NewRepositories construye todos los repos sobre el pool.
func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Units:     NewUnitRepository(pool),
		Changes:   NewChangeRepository(pool),
		Transfers: NewTransferRepository(pool),
		Incidents: NewIncidentRepository(pool),
		Locations: NewLocationRepository(pool),
		Products:  NewProductRepository(pool),
	}
}
