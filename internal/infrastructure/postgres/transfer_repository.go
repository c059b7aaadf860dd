package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

const transferColumns = `id, company_id, requester_id, source_location_id, destination_location_id, product_id,
	reference_code, size, unit_type, quantity, purpose, pickup_mode, status, custodian_id, courier_id,
	received_quantity, notes, reception_notes, rejection_reason, original_transfer_id,
	pair_link_location_id, pair_link_quantity, pair_link_reversed, pair_link_formed_at, reversed_pairs,
	requested_at, accepted_at, courier_assigned_at, picked_up_at, delivered_at, completed_at,
	cancelled_at, hold_expires_at, updated_at, version`

// TransferRepo solicitudes de transferencia y devolución.
type TransferRepo struct {
	q    Querier
	inTx bool
}

// NewTransferRepository construye el adaptador sobre el pool.
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferRequest) error {
	link := linkColumns(t.AutoFormedPairLink)
	query := `INSERT INTO transfer_requests (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.CompanyID, t.RequesterID, t.SourceLocationID, t.DestinationLocationID, t.ProductID,
		t.ReferenceCode, t.Size, string(t.UnitType), t.Quantity, string(t.Purpose), string(t.PickupMode),
		string(t.Status), nullable(t.CustodianID), nullable(t.CourierID),
		t.ReceivedQuantity, t.Notes, t.ReceptionNotes, t.RejectionReason, nullable(t.OriginalTransferID),
		link.location, link.quantity, link.reversed, link.formedAt, t.ReversedPairs,
		t.RequestedAt, t.AcceptedAt, t.CourierAssignedAt, t.PickedUpAt, t.DeliveredAt, t.CompletedAt,
		t.CancelledAt, t.HoldExpiresAt, t.UpdatedAt, t.Version,
	)
	if err != nil {
		return wrapErr("insert transfer request", err)
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.TransferRequest, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get transfer request", err)
	}
	return t, nil
}

// GetForUpdate bloquea la fila hasta el fin de la transacción; (nil, nil) si no existe.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	if !r.inTx {
		return nil, fmt.Errorf("lock transfer request: se requiere transacción")
	}
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("lock transfer request", err)
	}
	return t, nil
}

// Update guarda los campos mutables si la versión coincide.
func (r *TransferRepo) Update(ctx context.Context, t *entity.TransferRequest) error {
	link := linkColumns(t.AutoFormedPairLink)
	const query = `
		UPDATE transfer_requests SET
			status = $3, custodian_id = $4, courier_id = $5, received_quantity = $6, notes = $7,
			reception_notes = $8, rejection_reason = $9, pair_link_location_id = $10, pair_link_quantity = $11,
			pair_link_reversed = $12, pair_link_formed_at = $13, accepted_at = $14, courier_assigned_at = $15,
			picked_up_at = $16, delivered_at = $17, completed_at = $18, cancelled_at = $19, hold_expires_at = $20,
			pickup_mode = $21, updated_at = $22, reversed_pairs = $23, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Version, string(t.Status), nullable(t.CustodianID), nullable(t.CourierID), t.ReceivedQuantity,
		t.Notes, t.ReceptionNotes, t.RejectionReason, link.location, link.quantity, link.reversed, link.formedAt,
		t.AcceptedAt, t.CourierAssignedAt, t.PickedUpAt, t.DeliveredAt, t.CompletedAt, t.CancelledAt,
		t.HoldExpiresAt, string(t.PickupMode), t.UpdatedAt, t.ReversedPairs,
	)
	if err != nil {
		return wrapErr("update transfer request", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transfer request %s versión %d: %w", t.ID, t.Version, domain.ErrConflict)
	}
	t.Version++
	return nil
}

// List ordena por requested_at ascendente.
func (r *TransferRepo) List(ctx context.Context, fl repository.TransferFilter) ([]*entity.TransferRequest, error) {
	var f filter
	if fl.CompanyID != "" {
		f.add("company_id = $%d", fl.CompanyID)
	}
	if fl.RequesterID != "" {
		f.add("requester_id = $%d", fl.RequesterID)
	}
	if fl.CourierID != "" {
		f.add("courier_id = $%d", fl.CourierID)
	}
	if fl.OriginalTransferID != "" {
		f.add("original_transfer_id = $%d", fl.OriginalTransferID)
	}
	if len(fl.SourceLocationIDs) > 0 {
		f.add("source_location_id = ANY($%d)", fl.SourceLocationIDs)
	}
	if len(fl.Statuses) > 0 {
		statuses := make([]string, len(fl.Statuses))
		for i, s := range fl.Statuses {
			statuses[i] = string(s)
		}
		f.add("status = ANY($%d)", statuses)
	}
	if fl.Purpose != "" {
		f.add("purpose = $%d", string(fl.Purpose))
	}
	if fl.PickupMode != "" {
		f.add("pickup_mode = $%d", string(fl.PickupMode))
	}
	if fl.HoldExpiredBefore != nil {
		f.add("hold_expires_at IS NOT NULL AND hold_expires_at < $%d", *fl.HoldExpiredBefore)
	}
	query := `SELECT ` + transferColumns + ` FROM transfer_requests` + f.where() + ` ORDER BY requested_at, id`

	rows, err := r.q.Query(ctx, query, f.args...)
	if err != nil {
		return nil, wrapErr("list transfer requests", err)
	}
	defer rows.Close()
	var list []*entity.TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer request: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

type linkCols struct {
	location any
	quantity int
	reversed int
	formedAt *time.Time
}

func linkColumns(l *entity.PairLink) linkCols {
	if l == nil {
		return linkCols{}
	}
	formed := l.FormedAt
	return linkCols{location: nullable(l.LocationID), quantity: l.Quantity, reversed: l.Reversed, formedAt: &formed}
}

func scanTransfer(row pgxScanner) (*entity.TransferRequest, error) {
	var t entity.TransferRequest
	var unitType, purpose, pickupMode, status string
	var custodianID, courierID, originalID, linkLocation *string
	var linkQty, linkReversed int
	var linkFormedAt *time.Time
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.RequesterID, &t.SourceLocationID, &t.DestinationLocationID, &t.ProductID,
		&t.ReferenceCode, &t.Size, &unitType, &t.Quantity, &purpose, &pickupMode, &status, &custodianID, &courierID,
		&t.ReceivedQuantity, &t.Notes, &t.ReceptionNotes, &t.RejectionReason, &originalID,
		&linkLocation, &linkQty, &linkReversed, &linkFormedAt, &t.ReversedPairs,
		&t.RequestedAt, &t.AcceptedAt, &t.CourierAssignedAt, &t.PickedUpAt, &t.DeliveredAt, &t.CompletedAt,
		&t.CancelledAt, &t.HoldExpiresAt, &t.UpdatedAt, &t.Version,
	)
	if err != nil {
		return nil, err
	}
	t.UnitType = entity.UnitType(unitType)
	t.Purpose = entity.Purpose(purpose)
	t.PickupMode = entity.PickupMode(pickupMode)
	t.Status = entity.TransferStatus(status)
	t.CustodianID = deref(custodianID)
	t.CourierID = deref(courierID)
	t.OriginalTransferID = deref(originalID)
	if linkLocation != nil {
		t.AutoFormedPairLink = &entity.PairLink{LocationID: *linkLocation, Quantity: linkQty, Reversed: linkReversed}
		if linkFormedAt != nil {
			t.AutoFormedPairLink.FormedAt = *linkFormedAt
		}
	}
	return &t, nil
}
