package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo locales y bodegas.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste la ubicación; nombre repetido en la empresa devuelve domain.ErrConflict.
func (r *LocationRepo) Create(ctx context.Context, l *entity.Location) error {
	const q = `
		INSERT INTO locations (id, company_id, name, type, address, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, q, l.ID, l.CompanyID, l.Name, l.Type, l.Address, l.IsActive, l.CreatedAt)
	if err != nil {
		return wrapErr("insert location", err)
	}
	return nil
}

func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	const q = `SELECT id, company_id, name, type, address, is_active, created_at FROM locations WHERE id = $1`
	l, err := scanLocation(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get location", err)
	}
	return l, nil
}

func (r *LocationRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Location, error) {
	const q = `SELECT id, company_id, name, type, address, is_active, created_at
		FROM locations WHERE company_id = $1 ORDER BY name`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, wrapErr("list locations", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *LocationRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.q.Exec(ctx, `UPDATE locations SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return wrapErr("update location", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanLocation(row pgxScanner) (*entity.Location, error) {
	var l entity.Location
	if err := row.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Type, &l.Address, &l.IsActive, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
