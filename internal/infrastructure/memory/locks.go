package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/domain"
)

// lockTable bloqueos exclusivos por fila. Cada fila es un canal con capacidad 1:
// quien logra enviar posee el bloqueo hasta recibir de vuelta.
type lockTable struct {
	mu   sync.Mutex
	rows map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{rows: make(map[string]chan struct{})}
}

func (lt *lockTable) slot(key string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.rows[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.rows[key] = ch
	}
	return ch
}

// acquire espera el bloqueo hasta timeout; al agotarse devuelve domain.ErrLockTimeout.
func (lt *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := lt.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (lt *lockTable) release(key string) {
	<-lt.slot(key)
}
