// Package catalog administra ubicaciones y productos. No toca cantidades: el stock vive en el ledger.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

// LocationUseCase alta, consulta y activación de locales y bodegas.
type LocationUseCase struct {
	repo repository.LocationRepository
	now  func() time.Time
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository) *LocationUseCase {
	return &LocationUseCase{repo: repo, now: time.Now}
}

// LocationInput datos para crear una ubicación.
type LocationInput struct {
	Name    string
	Type    string
	Address string
}

// Create crea una ubicación activa. Solo admin.
func (uc *LocationUseCase) Create(ctx context.Context, actor entity.Actor, in LocationInput) (*entity.Location, error) {
	if !actor.Is(entity.RoleAdmin) {
		return nil, &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "crear ubicación"}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("nombre requerido: %w", domain.ErrInvalidInput)
	}
	switch in.Type {
	case entity.LocationTypeStore, entity.LocationTypeWarehouse:
	default:
		return nil, fmt.Errorf("tipo de ubicación %q: %w", in.Type, domain.ErrInvalidInput)
	}
	loc := &entity.Location{
		ID:        uuid.New().String(),
		CompanyID: actor.CompanyID,
		Name:      name,
		Type:      in.Type,
		Address:   strings.TrimSpace(in.Address),
		IsActive:  true,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// GetByID obtiene una ubicación de la empresa del actor; (nil, nil) si no existe.
func (uc *LocationUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*entity.Location, error) {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil || loc.CompanyID != actor.CompanyID {
		return nil, nil
	}
	return loc, nil
}

// List ubicaciones de la empresa. Con onlyManaged solo las que gestiona el actor.
func (uc *LocationUseCase) List(ctx context.Context, actor entity.Actor, onlyManaged bool) ([]*entity.Location, error) {
	list, err := uc.repo.ListByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	if !onlyManaged {
		return list, nil
	}
	out := make([]*entity.Location, 0, len(list))
	for _, l := range list {
		if actor.Manages(l.ID) {
			out = append(out, l)
		}
	}
	return out, nil
}

// SetActive activa o desactiva una ubicación. Solo admin.
func (uc *LocationUseCase) SetActive(ctx context.Context, actor entity.Actor, id string, active bool) (*entity.Location, error) {
	if !actor.Is(entity.RoleAdmin) {
		return nil, &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "activar ubicación", LocationID: id}
	}
	loc, err := uc.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	if loc.IsActive == active {
		return loc, nil
	}
	if err := uc.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	loc.IsActive = active
	return loc, nil
}
