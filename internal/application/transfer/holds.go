package transfer

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

const holdExpiredReason = "reserva de cliente vencida"

// ExpireHolds cancela las solicitudes de cliente presente que siguen pendientes después de su
// vencimiento. Cada una en su propia transacción; una que cambió de estado entre la lectura
// y el bloqueo se omite. Devuelve cuántas canceló.
func (e *Engine) ExpireHolds(ctx context.Context, companyID string, now time.Time) (int, error) {
	candidates, err := e.transfers.List(ctx, repository.TransferFilter{
		CompanyID:         companyID,
		Purpose:           entity.PurposeCustomer,
		Statuses:          []entity.TransferStatus{entity.TransferStatusPending},
		HoldExpiredBefore: &now,
	})
	if err != nil {
		return 0, err
	}
	system := entity.Actor{UserID: "system", Role: entity.RoleAdmin}
	expired := 0
	for _, c := range candidates {
		done := false
		err := e.txRunner.Run(ctx, func(tx ports.Tx) error {
			t, err := tx.Transfers().GetForUpdate(ctx, c.ID)
			if err != nil || t == nil {
				return err
			}
			if t.Status != entity.TransferStatusPending || t.HoldExpiresAt == nil || !t.HoldExpiresAt.Before(now) {
				return nil
			}
			if err := advance(t, transfer.CommandExpireHold); err != nil {
				return err
			}
			t.CancelledAt = e.stamp()
			t.RejectionReason = holdExpiredReason
			if err := e.save(ctx, tx, t); err != nil {
				return err
			}
			system.CompanyID = t.CompanyID
			e.emit(ctx, tx, ports.EventHoldExpired, t, system, nil)
			done = true
			return nil
		})
		if err != nil {
			e.log.Error().Err(err).Str("transfer_id", c.ID).Msg("no se pudo vencer la reserva")
			continue
		}
		if done {
			expired++
			e.log.Info().Str("transfer_id", c.ID).Str("status", string(entity.TransferStatusCancelled)).Msg("reserva de cliente vencida")
		}
	}
	return expired, nil
}

// HoldSweeper ejecuta ExpireHolds periódicamente para todas las empresas.
type HoldSweeper struct {
	engine   *Engine
	interval time.Duration
}

// NewHoldSweeper construye el barrido; interval <= 0 usa un minuto.
func NewHoldSweeper(engine *Engine, interval time.Duration) *HoldSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HoldSweeper{engine: engine, interval: interval}
}

// Run bloquea hasta que ctx se cancela.
func (s *HoldSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.engine.ExpireHolds(ctx, "", s.engine.now()); err != nil {
				s.engine.log.Error().Err(err).Msg("barrido de reservas")
			}
		}
	}
}
