package ports

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

// Tx repositorios atados a una única transacción. Los bloqueos tomados a través de
// ellos se mantienen hasta Commit o Rollback.
type Tx interface {
	Units() repository.InventoryUnitRepository
	Changes() repository.InventoryChangeRepository
	Transfers() repository.TransferRepository
	Incidents() repository.IncidentRepository
	// Products permite crear el producto en la misma transacción que su primer ingreso.
	Products() repository.ProductRepository
	// OnCommit registra fn para ejecutarse solo si la transacción confirma.
	OnCommit(fn func())
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx Tx) error) error
}
