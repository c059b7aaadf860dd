package transfer

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

// Detail solicitud con datos derivados para seguimiento.
type Detail struct {
	Transfer        *entity.TransferRequest
	AllowedCommands []transfer.Command
	ProgressPct     int
	Incidents       []*entity.TransportIncident
	Returns         []*entity.TransferRequest
}

// Get detalle de una solicitud visible para el actor.
func (e *Engine) Get(ctx context.Context, actor entity.Actor, id string) (*Detail, error) {
	t, err := e.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.CompanyID != actor.CompanyID {
		return nil, domain.ErrNotFound
	}
	if !canView(actor, t) {
		return nil, denied(actor, "ver solicitud", "")
	}
	incidents, err := e.incidents.ListByTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{
		Transfer:        t,
		AllowedCommands: transfer.AllowedCommands(t.Status),
		ProgressPct:     transfer.ProgressPct(t.Status),
		Incidents:       incidents,
	}
	if !t.IsReturn() {
		d.Returns, err = e.transfers.List(ctx, repository.TransferFilter{CompanyID: t.CompanyID, OriginalTransferID: t.ID})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ListMine solicitudes creadas por el actor, las más recientes primero.
func (e *Engine) ListMine(ctx context.Context, actor entity.Actor, statuses ...entity.TransferStatus) ([]*entity.TransferRequest, error) {
	list, err := e.transfers.List(ctx, repository.TransferFilter{
		CompanyID:   actor.CompanyID,
		RequesterID: actor.UserID,
		Statuses:    statuses,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].RequestedAt.After(list[j].RequestedAt) })
	return list, nil
}

// ListPendingForCustodian solicitudes pendientes cuyo origen gestiona el actor:
// primero las de cliente presente (y devoluciones), luego las más antiguas.
func (e *Engine) ListPendingForCustodian(ctx context.Context, actor entity.Actor) ([]*entity.TransferRequest, error) {
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) {
		return nil, denied(actor, "ver pendientes de bodega", "")
	}
	filter := repository.TransferFilter{
		CompanyID: actor.CompanyID,
		Statuses:  []entity.TransferStatus{entity.TransferStatusPending},
	}
	if actor.Role != entity.RoleAdmin {
		if len(actor.ManagedLocationIDs) == 0 {
			return nil, nil
		}
		filter.SourceLocationIDs = actor.ManagedLocationIDs
	}
	list, err := e.transfers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := list[i].Purpose.Priority() == "high", list[j].Purpose.Priority() == "high"
		if pi != pj {
			return pi
		}
		return list[i].RequestedAt.Before(list[j].RequestedAt)
	})
	return list, nil
}

// ListAvailableForCourier trabajos del corredor: los propios en curso primero y luego los
// aceptados sin corredor. Dentro de cada grupo, cliente presente primero y luego por
// antigüedad de aceptación.
func (e *Engine) ListAvailableForCourier(ctx context.Context, actor entity.Actor) ([]*entity.TransferRequest, error) {
	if !actor.Is(entity.RoleCourier) {
		return nil, denied(actor, "ver trabajos de transporte", "")
	}
	open, err := e.transfers.List(ctx, repository.TransferFilter{
		CompanyID:  actor.CompanyID,
		PickupMode: entity.PickupModeCourier,
		Statuses:   []entity.TransferStatus{entity.TransferStatusAccepted},
	})
	if err != nil {
		return nil, err
	}
	mine, err := e.transfers.List(ctx, repository.TransferFilter{
		CompanyID: actor.CompanyID,
		CourierID: actor.UserID,
		Statuses: []entity.TransferStatus{
			entity.TransferStatusCourierAssigned,
			entity.TransferStatusInTransit,
			entity.TransferStatusDeliveryFailed,
		},
	})
	if err != nil {
		return nil, err
	}
	list := mine
	for _, t := range open {
		if t.CourierID == "" {
			list = append(list, t)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		ownA, ownB := a.CourierID == actor.UserID, b.CourierID == actor.UserID
		if ownA != ownB {
			return ownA
		}
		pa, pb := a.Purpose.Priority() == "high", b.Purpose.Priority() == "high"
		if pa != pb {
			return pa
		}
		return acceptedAt(a).Before(acceptedAt(b))
	})
	return list, nil
}

func acceptedAt(t *entity.TransferRequest) time.Time {
	if t.AcceptedAt != nil {
		return *t.AcceptedAt
	}
	return t.RequestedAt
}

// Summary conteo por estado de las solicitudes del actor.
type Summary struct {
	Total    int                           `json:"total"`
	ByStatus map[entity.TransferStatus]int `json:"by_status"`
	Active   int                           `json:"active"`
	Returns  int                           `json:"returns"`
}

// Summary resumen de las solicitudes creadas por el actor.
func (e *Engine) Summary(ctx context.Context, actor entity.Actor) (Summary, error) {
	list, err := e.transfers.List(ctx, repository.TransferFilter{CompanyID: actor.CompanyID, RequesterID: actor.UserID})
	if err != nil {
		return Summary{}, err
	}
	s := Summary{ByStatus: make(map[entity.TransferStatus]int)}
	for _, t := range list {
		s.Total++
		s.ByStatus[t.Status]++
		if !transfer.IsTerminal(t.Status) {
			s.Active++
		}
		if t.IsReturn() {
			s.Returns++
		}
	}
	return s, nil
}
