package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// CreateInput datos de una nueva solicitud de transferencia.
type CreateInput struct {
	SourceLocationID      string
	DestinationLocationID string
	ProductID             string
	Size                  string
	UnitType              entity.UnitType
	Quantity              int
	Purpose               entity.Purpose
	PickupMode            entity.PickupMode
	Notes                 string
}

func (in *CreateInput) validate() error {
	if in.PickupMode == "" {
		in.PickupMode = entity.PickupModeCourier
	}
	switch {
	case in.Quantity <= 0,
		in.Size == "",
		in.ProductID == "",
		in.SourceLocationID == "" || in.DestinationLocationID == "",
		in.SourceLocationID == in.DestinationLocationID,
		!in.UnitType.Valid(),
		!in.Purpose.Valid() || in.Purpose == entity.PurposeReturn,
		!in.PickupMode.Valid():
		return domain.ErrInvalidInput
	}
	return nil
}

// Create registra una solicitud en estado pending. La disponibilidad en origen se valida sin
// bloqueo; se vuelve a validar con bloqueo al aceptar. Para cliente presente fija la
// vigencia de la reserva.
func (e *Engine) Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.TransferRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !actor.Manages(in.DestinationLocationID) || actor.Is(entity.RoleCourier) {
		return nil, denied(actor, "solicitar transferencia", in.DestinationLocationID)
	}
	for _, locID := range []string{in.SourceLocationID, in.DestinationLocationID} {
		loc, err := e.locations.GetByID(ctx, locID)
		if err != nil {
			return nil, fmt.Errorf("get location: %w", err)
		}
		if loc == nil || loc.CompanyID != actor.CompanyID {
			return nil, domain.ErrNotFound
		}
		if !loc.IsActive {
			return nil, fmt.Errorf("ubicación %s inactiva: %w", locID, domain.ErrInvalidInput)
		}
	}
	product, err := e.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || product.CompanyID != actor.CompanyID {
		return nil, domain.ErrNotFound
	}

	avail, err := e.ledger.QueryAvailability(ctx, in.SourceLocationID, in.ProductID, in.Size)
	if err != nil {
		return nil, err
	}
	available := avail.Pairs
	switch in.UnitType {
	case entity.UnitTypeLeftOnly:
		available += avail.Left
	case entity.UnitTypeRightOnly:
		available += avail.Right
	}
	if available < in.Quantity {
		return nil, &domain.InsufficientStockError{
			LocationID: in.SourceLocationID, ProductID: in.ProductID, Size: in.Size,
			UnitType: string(in.UnitType), Requested: in.Quantity, Available: available,
		}
	}

	now := e.now()
	t := &entity.TransferRequest{
		ID:                    uuid.New().String(),
		CompanyID:             actor.CompanyID,
		RequesterID:           actor.UserID,
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		ProductID:             in.ProductID,
		ReferenceCode:         product.ReferenceCode,
		Size:                  in.Size,
		UnitType:              in.UnitType,
		Quantity:              in.Quantity,
		Purpose:               in.Purpose,
		PickupMode:            in.PickupMode,
		Status:                entity.TransferStatusPending,
		Notes:                 in.Notes,
		RequestedAt:           now,
		UpdatedAt:             now,
	}
	if in.Purpose == entity.PurposeCustomer {
		expires := now.Add(e.cfg.HoldTTL)
		t.HoldExpiresAt = &expires
	}

	err = e.txRunner.Run(ctx, func(tx ports.Tx) error {
		if err := tx.Transfers().Create(ctx, t); err != nil {
			return err
		}
		e.emit(ctx, tx, ports.EventTransferCreated, t, actor, map[string]string{"priority": t.Purpose.Priority()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("transfer_id", t.ID).Str("status", string(t.Status)).Str("purpose", string(t.Purpose)).
		Str("actor", actor.UserID).Msg("solicitud creada")
	return t, nil
}
