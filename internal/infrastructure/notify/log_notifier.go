package notify

import (
	"context"
	"strings"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier registra cada evento en el log estructurado. Es el sumidero por defecto.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el sumidero de log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Publish escribe el evento con nivel Info.
func (n *LogNotifier) Publish(_ context.Context, ev ports.Event) {
	e := n.log.Info().
		Str("event", ev.Type).
		Str("company_id", ev.CompanyID).
		Str("transfer_id", ev.TransferID).
		Str("status", ev.Status).
		Str("actor", ev.ActorID).
		Str("recipients", strings.Join(ev.Recipients, ","))
	for k, v := range ev.Data {
		e = e.Str(k, v)
	}
	e.Msg("notificación")
}
