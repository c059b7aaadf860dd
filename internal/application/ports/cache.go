package ports

import (
	"context"

	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
)

// DistributionCache caché de la vista global de un producto-talla (solo ruta de lectura).
// Un fallo del caché equivale a un miss: nunca impide responder desde el almacenamiento.
type DistributionCache interface {
	Get(ctx context.Context, companyID, productID, size string) (*inventory.Distribution, bool)
	Set(ctx context.Context, companyID string, d inventory.Distribution)
	Invalidate(ctx context.Context, companyID, productID, size string)
}
