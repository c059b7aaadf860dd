package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

// ProductUseCase alta y consulta de referencias. Las cantidades se manejan en el ledger.
type ProductUseCase struct {
	repo repository.ProductRepository
	now  func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, now: time.Now}
}

// ProductInput datos para crear una referencia.
type ProductInput struct {
	ReferenceCode string
	Brand         string
	Model         string
	Description   string
	UnitPrice     decimal.Decimal
	ImageURL      string
}

// Create crea un producto. La referencia es única por empresa (domain.ErrConflict si existe).
func (uc *ProductUseCase) Create(ctx context.Context, actor entity.Actor, in ProductInput) (*entity.Product, error) {
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) {
		return nil, &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "crear producto"}
	}
	ref := strings.ToUpper(strings.Join(strings.Fields(in.ReferenceCode), ""))
	if ref == "" {
		return nil, fmt.Errorf("reference_code requerido: %w", domain.ErrInvalidInput)
	}
	if in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("precio negativo: %w", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.GetByReference(ctx, actor.CompanyID, ref)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("referencia %s ya existe: %w", ref, domain.ErrConflict)
	}
	now := uc.now()
	p := &entity.Product{
		ID:            uuid.New().String(),
		CompanyID:     actor.CompanyID,
		ReferenceCode: ref,
		Brand:         strings.TrimSpace(in.Brand),
		Model:         strings.TrimSpace(in.Model),
		Description:   strings.TrimSpace(in.Description),
		UnitPrice:     in.UnitPrice,
		ImageURL:      in.ImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID obtiene un producto de la empresa del actor; (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*entity.Product, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.CompanyID != actor.CompanyID {
		return nil, nil
	}
	return p, nil
}

// List lista productos por empresa con paginación.
func (uc *ProductUseCase) List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Product, error) {
	return uc.repo.ListByCompany(ctx, actor.CompanyID, limit, offset)
}
