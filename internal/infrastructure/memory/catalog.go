package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var (
	_ repository.LocationRepository = (*locationRepo)(nil)
	_ repository.ProductRepository  = (*productRepo)(nil)
)

type locationRepo struct {
	s *Store
}

func (r *locationRepo) Create(_ context.Context, l *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.locations {
		if other.CompanyID == l.CompanyID && strings.EqualFold(other.Name, l.Name) {
			return fmt.Errorf("insert location %q: %w", l.Name, domain.ErrConflict)
		}
	}
	cp := *l
	r.s.locations[l.ID] = &cp
	return nil
}

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *locationRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Location
	for _, l := range r.s.locations {
		if l.CompanyID == companyID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *locationRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.IsActive = active
	return nil
}

type productRepo struct {
	s  *Store
	tx *memTx
}

// Create toma el bloqueo de la referencia: dentro de una transacción hasta su fin, fuera de
// ella solo durante el alta. Un alta concurrente de la misma referencia espera y luego
// recibe ErrConflict.
func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	key := productLockKey(p.CompanyID, p.ReferenceCode)
	if r.tx != nil {
		if err := r.tx.lock(ctx, key); err != nil {
			return err
		}
	} else {
		if err := r.s.locks.acquire(ctx, key, r.s.lockTimeout); err != nil {
			return err
		}
		defer r.s.locks.release(key)
	}
	if existing, _ := r.GetByReference(ctx, p.CompanyID, p.ReferenceCode); existing != nil {
		return fmt.Errorf("insert product %q: %w", p.ReferenceCode, domain.ErrConflict)
	}
	cp := *p
	if r.tx != nil {
		r.tx.products[p.ID] = &cp
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = &cp
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		if p, ok := r.tx.products[id]; ok {
			cp := *p
			return &cp, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetByReference(_ context.Context, companyID, referenceCode string) (*entity.Product, error) {
	if r.tx != nil {
		for _, p := range r.tx.products {
			if p.CompanyID == companyID && p.ReferenceCode == referenceCode {
				cp := *p
				return &cp, nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.ReferenceCode == referenceCode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *productRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	var all []*entity.Product
	for _, p := range r.s.products {
		if p.CompanyID == companyID {
			cp := *p
			all = append(all, &cp)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ReferenceCode < all[j].ReferenceCode })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Seed fija una fila de inventario sin pasar por el ledger ni dejar auditoría.
// Solo para preparar escenarios (tests, datos de demostración).
func (s *Store) Seed(companyID string, key entity.UnitKey, quantity, display int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[key] = &entity.InventoryUnit{UnitKey: key, CompanyID: companyID, Quantity: quantity, DisplayQuantity: display}
}
