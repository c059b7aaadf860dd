package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var (
	_ repository.InventoryChangeRepository = (*changeRepo)(nil)
	_ repository.IncidentRepository        = (*incidentRepo)(nil)
)

type changeRepo struct {
	s  *Store
	tx *memTx
}

func (r *changeRepo) Create(_ context.Context, c *entity.InventoryChange) error {
	cp := *c
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.changes = append(r.s.changes, &cp)
		r.s.mu.Unlock()
		return nil
	}
	r.tx.changes = append(r.tx.changes, &cp)
	return nil
}

func (r *changeRepo) List(_ context.Context, f repository.ChangeFilter) ([]*entity.InventoryChange, error) {
	r.s.mu.RLock()
	all := append([]*entity.InventoryChange(nil), r.s.changes...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		all = append(all, r.tx.changes...)
	}

	var out []*entity.InventoryChange
	// Más recientes primero: recorrido inverso del orden de inserción.
	for i := len(all) - 1; i >= 0; i-- {
		c := all[i]
		switch {
		case f.CompanyID != "" && c.CompanyID != f.CompanyID:
			continue
		case f.LocationID != "" && c.LocationID != f.LocationID:
			continue
		case f.ProductID != "" && c.ProductID != f.ProductID:
			continue
		case f.Size != "" && c.Size != f.Size:
			continue
		case f.TransferRequestID != "" && c.TransferRequestID != f.TransferRequestID:
			continue
		}
		cp := *c
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

type incidentRepo struct {
	s  *Store
	tx *memTx
}

func (r *incidentRepo) Create(_ context.Context, in *entity.TransportIncident) error {
	cp := *in
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.incidents = append(r.s.incidents, &cp)
		r.s.mu.Unlock()
		return nil
	}
	r.tx.incidents = append(r.tx.incidents, &cp)
	return nil
}

func (r *incidentRepo) ListByTransfer(_ context.Context, transferID string) ([]*entity.TransportIncident, error) {
	r.s.mu.RLock()
	all := append([]*entity.TransportIncident(nil), r.s.incidents...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		all = append(all, r.tx.incidents...)
	}
	var out []*entity.TransportIncident
	for _, in := range all {
		if in.TransferRequestID == transferID {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedAt.Before(out[j].ReportedAt) })
	return out, nil
}
