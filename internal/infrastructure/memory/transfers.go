package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.TransferRepository = (*transferRepo)(nil)

type transferRepo struct {
	s  *Store
	tx *memTx
}

func (r *transferRepo) Create(_ context.Context, t *entity.TransferRequest) error {
	if r.current(t.ID) != nil {
		return fmt.Errorf("insert transfer %s: %w", t.ID, domain.ErrConflict)
	}
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.transfers[t.ID] = cloneTransfer(t)
		r.s.mu.Unlock()
		return nil
	}
	r.tx.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.TransferRequest, error) {
	if t := r.current(id); t != nil {
		return cloneTransfer(t), nil
	}
	return nil, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, transferLockKey(id)); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.TransferRequest) error {
	cur := r.current(t.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	if cur.Version != t.Version {
		return fmt.Errorf("update transfer %s: versión %d, persistida %d: %w", t.ID, t.Version, cur.Version, domain.ErrConflict)
	}
	t.Version++
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.transfers[t.ID] = cloneTransfer(t)
		r.s.mu.Unlock()
		return nil
	}
	r.tx.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.TransferRequest, error) {
	merged := make(map[string]*entity.TransferRequest)
	r.s.mu.RLock()
	for id, t := range r.s.transfers {
		merged[id] = t
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, t := range r.tx.transfers {
			merged[id] = t
		}
	}

	var out []*entity.TransferRequest
	for _, t := range merged {
		if matchTransfer(t, f) {
			out = append(out, cloneTransfer(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.Before(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *transferRepo) current(id string) *entity.TransferRequest {
	if r.tx != nil {
		if t, ok := r.tx.transfers[id]; ok {
			return t
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.transfers[id]
}

func matchTransfer(t *entity.TransferRequest, f repository.TransferFilter) bool {
	switch {
	case f.CompanyID != "" && t.CompanyID != f.CompanyID:
		return false
	case f.RequesterID != "" && t.RequesterID != f.RequesterID:
		return false
	case f.CourierID != "" && t.CourierID != f.CourierID:
		return false
	case f.OriginalTransferID != "" && t.OriginalTransferID != f.OriginalTransferID:
		return false
	case f.Purpose != "" && t.Purpose != f.Purpose:
		return false
	case f.PickupMode != "" && t.PickupMode != f.PickupMode:
		return false
	case f.HoldExpiredBefore != nil && (t.HoldExpiresAt == nil || !t.HoldExpiresAt.Before(*f.HoldExpiredBefore)):
		return false
	}
	if len(f.SourceLocationIDs) > 0 && !containsString(f.SourceLocationIDs, t.SourceLocationID) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if t.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func cloneTransfer(t *entity.TransferRequest) *entity.TransferRequest {
	c := *t
	if t.ReceivedQuantity != nil {
		q := *t.ReceivedQuantity
		c.ReceivedQuantity = &q
	}
	if t.AutoFormedPairLink != nil {
		l := *t.AutoFormedPairLink
		c.AutoFormedPairLink = &l
	}
	return &c
}
