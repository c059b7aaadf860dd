// Package transfer es el motor de flujo de solicitudes de transferencia y devolución.
// Cada comando es una transacción: bloquea la solicitud, valida permisos y estado con la
// tabla de transiciones, mueve stock a través del ledger y del motor de pares, y publica
// el evento solo si confirma.
package transfer

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

// DefaultHoldTTL vigencia de una reserva para cliente presente.
const DefaultHoldTTL = 45 * time.Minute

// Config parámetros del flujo.
type Config struct {
	HoldTTL time.Duration
}

// Deps dependencias del motor. Los repositorios son de lectura fuera de transacción.
type Deps struct {
	TxRunner  ports.TxRunner
	Ledger    *ledger.Ledger
	Pairing   *pairing.Engine
	Transfers repository.TransferRepository
	Incidents repository.IncidentRepository
	Locations repository.LocationRepository
	Products  repository.ProductRepository
	Notifier  ports.Notifier
	Logger    *logger.Logger
	Clock     func() time.Time
	Config    Config
}

// Engine motor de flujo de transferencias.
type Engine struct {
	txRunner  ports.TxRunner
	ledger    *ledger.Ledger
	pairing   *pairing.Engine
	transfers repository.TransferRepository
	incidents repository.IncidentRepository
	locations repository.LocationRepository
	products  repository.ProductRepository
	notifier  ports.Notifier
	log       *logger.Logger
	now       func() time.Time
	cfg       Config
}

// NewEngine construye el motor.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		txRunner:  d.TxRunner,
		ledger:    d.Ledger,
		pairing:   d.Pairing,
		transfers: d.Transfers,
		incidents: d.Incidents,
		locations: d.Locations,
		products:  d.Products,
		notifier:  d.Notifier,
		log:       d.Logger,
		now:       d.Clock,
		cfg:       d.Config,
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.cfg.HoldTTL <= 0 {
		e.cfg.HoldTTL = DefaultHoldTTL
	}
	return e
}

// stepFunc aplica un comando sobre la solicitud ya bloqueada. Devuelve el tipo de evento.
type stepFunc func(tx ports.Tx, t *entity.TransferRequest) (string, error)

// step ejecuta un comando completo: bloqueo de la solicitud, fn, guardado con control de
// versión y evento al confirmar.
func (e *Engine) step(ctx context.Context, actor entity.Actor, id string, cmd transfer.Command, fn stepFunc) (*entity.TransferRequest, error) {
	var out *entity.TransferRequest
	err := e.txRunner.Run(ctx, func(tx ports.Tx) error {
		t, err := e.lockTransfer(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		event, err := fn(tx, t)
		if err != nil {
			return err
		}
		if err := e.save(ctx, tx, t); err != nil {
			return err
		}
		e.emit(ctx, tx, event, t, actor, nil)
		out = t
		return nil
	})
	if err != nil {
		e.log.Warn().Err(err).Str("transfer_id", id).Str("command", string(cmd)).
			Str("actor", actor.UserID).Msg("comando rechazado")
		return nil, err
	}
	e.log.Info().Str("transfer_id", id).Str("command", string(cmd)).Str("status", string(out.Status)).
		Str("actor", actor.UserID).Msg("transición de solicitud")
	return out, nil
}

func (e *Engine) lockTransfer(ctx context.Context, tx ports.Tx, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	t, err := tx.Transfers().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.CompanyID != actor.CompanyID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (e *Engine) save(ctx context.Context, tx ports.Tx, t *entity.TransferRequest) error {
	t.UpdatedAt = e.now()
	return tx.Transfers().Update(ctx, t)
}

// emit publica el evento tras el commit; nunca bloquea ni falla el comando.
func (e *Engine) emit(ctx context.Context, tx ports.Tx, eventType string, t *entity.TransferRequest, actor entity.Actor, data map[string]string) {
	if e.notifier == nil || eventType == "" {
		return
	}
	ev := ports.Event{
		Type:       eventType,
		CompanyID:  t.CompanyID,
		TransferID: t.ID,
		Status:     string(t.Status),
		ActorID:    actor.UserID,
		Recipients: recipients(t),
		Data:       data,
		OccurredAt: e.now(),
	}
	tx.OnCommit(func() {
		e.notifier.Publish(context.WithoutCancel(ctx), ev)
	})
}

func recipients(t *entity.TransferRequest) []string {
	var out []string
	seen := map[string]bool{}
	for _, id := range []string{t.RequesterID, t.CustodianID, t.CourierID} {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) stamp() *time.Time {
	now := e.now()
	return &now
}

// advance consulta la tabla de transiciones y aplica el nuevo estado.
func advance(t *entity.TransferRequest, cmd transfer.Command) error {
	next, err := transfer.Next(t, cmd)
	if err != nil {
		return err
	}
	t.Status = next
	return nil
}

func auditFor(actor entity.Actor, t *entity.TransferRequest, ct entity.ChangeType) ledger.Audit {
	return ledger.Audit{
		CompanyID:         t.CompanyID,
		UserID:            actor.UserID,
		ChangeType:        ct,
		TransferRequestID: t.ID,
	}
}
