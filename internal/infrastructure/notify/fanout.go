package notify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
)

var _ ports.Notifier = (*Fanout)(nil)

// Fanout reparte cada evento entre varios sumideros en paralelo.
type Fanout struct {
	sinks []ports.Notifier
}

// NewFanout construye el compuesto; ignora sumideros nil.
func NewFanout(sinks ...ports.Notifier) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish entrega el evento a todos los sumideros y espera a que terminen. Los sumideros no
// devuelven error: cada uno registra sus fallos.
func (f *Fanout) Publish(ctx context.Context, ev ports.Event) {
	if len(f.sinks) == 1 {
		f.sinks[0].Publish(ctx, ev)
		return
	}
	var g errgroup.Group
	for _, s := range f.sinks {
		s := s
		g.Go(func() error {
			s.Publish(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()
}
