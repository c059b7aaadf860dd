package dto

import (
	"time"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	SourceLocationID      string `json:"source_location_id" validate:"required"`
	DestinationLocationID string `json:"destination_location_id" validate:"required,nefield=SourceLocationID"`
	ProductID             string `json:"product_id" validate:"required"`
	Size                  string `json:"size" validate:"required,max=10"`
	UnitType              string `json:"unit_type" validate:"required,oneof=pair left_only right_only"`
	Quantity              int    `json:"quantity" validate:"gt=0"`
	Purpose               string `json:"purpose" validate:"required,oneof=cliente restock exhibition pair_formation rebalancing"`
	PickupMode            string `json:"pickup_mode" validate:"omitempty,oneof=courier self_pickup"`
	Notes                 string `json:"notes" validate:"max=500"`
}

// ReasonRequest rechazo o cancelación.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AssignCourierRequest courier_id vacío = el corredor autenticado se asigna.
type AssignCourierRequest struct {
	CourierID string `json:"courier_id"`
}

// DeliveryRequest resultado de la entrega del corredor.
type DeliveryRequest struct {
	Delivered *bool  `json:"delivered" validate:"required"`
	Notes     string `json:"notes" validate:"max=500"`
}

// ReceptionRequest confirmación del destino.
type ReceptionRequest struct {
	ReceivedQuantity int    `json:"received_quantity" validate:"gte=0"`
	ConditionOK      *bool  `json:"condition_ok" validate:"required"`
	Notes            string `json:"notes" validate:"max=500"`
}

// ReturnRequest devolución de una transferencia completada.
type ReturnRequest struct {
	Quantity   int    `json:"quantity" validate:"gt=0"`
	PickupMode string `json:"pickup_mode" validate:"omitempty,oneof=courier self_pickup"`
	Notes      string `json:"notes" validate:"max=500"`
}

// IncidentRequest incidencia de transporte.
type IncidentRequest struct {
	IncidentType string `json:"incident_type" validate:"required,max=50"`
	Description  string `json:"description" validate:"max=1000"`
}

// PairLinkResponse formación automática registrada al recibir.
type PairLinkResponse struct {
	LocationID string    `json:"location_id"`
	Quantity   int       `json:"quantity"`
	Reversed   int       `json:"reversed"`
	Remaining  int       `json:"remaining"`
	FormedAt   time.Time `json:"formed_at"`
}

// TransferResponse salida de una solicitud.
type TransferResponse struct {
	ID                    string            `json:"id"`
	RequesterID           string            `json:"requester_id"`
	SourceLocationID      string            `json:"source_location_id"`
	DestinationLocationID string            `json:"destination_location_id"`
	ProductID             string            `json:"product_id"`
	ReferenceCode         string            `json:"reference_code"`
	Size                  string            `json:"size"`
	UnitType              string            `json:"unit_type"`
	Quantity              int               `json:"quantity"`
	Purpose               string            `json:"purpose"`
	Priority              string            `json:"priority"`
	PickupMode            string            `json:"pickup_mode"`
	Status                string            `json:"status"`
	CustodianID           string            `json:"custodian_id,omitempty"`
	CourierID             string            `json:"courier_id,omitempty"`
	ReceivedQuantity      *int              `json:"received_quantity,omitempty"`
	Discrepancy           int               `json:"discrepancy"`
	Notes                 string            `json:"notes,omitempty"`
	ReceptionNotes        string            `json:"reception_notes,omitempty"`
	RejectionReason       string            `json:"rejection_reason,omitempty"`
	OriginalTransferID    string            `json:"original_transfer_id,omitempty"`
	AutoFormedPairLink    *PairLinkResponse `json:"auto_formed_pair_link,omitempty"`
	ReversedPairs         int               `json:"reversed_pairs,omitempty"`
	RequestedAt           time.Time         `json:"requested_at"`
	AcceptedAt            *time.Time        `json:"accepted_at,omitempty"`
	CourierAssignedAt     *time.Time        `json:"courier_assigned_at,omitempty"`
	PickedUpAt            *time.Time        `json:"picked_up_at,omitempty"`
	DeliveredAt           *time.Time        `json:"delivered_at,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	CancelledAt           *time.Time        `json:"cancelled_at,omitempty"`
	HoldExpiresAt         *time.Time        `json:"hold_expires_at,omitempty"`
	Version               int               `json:"version"`
}

// TransferDetailResponse solicitud con seguimiento.
type TransferDetailResponse struct {
	TransferResponse
	AllowedCommands []string           `json:"allowed_commands"`
	ProgressPct     int                `json:"progress_pct"`
	Incidents       []IncidentResponse `json:"incidents"`
	Returns         []TransferResponse `json:"returns"`
}

// TransferListResponse lista de solicitudes.
type TransferListResponse struct {
	Total int                `json:"total"`
	Items []TransferResponse `json:"items"`
}

// IncidentResponse incidencia registrada.
type IncidentResponse struct {
	ID           string    `json:"id"`
	CourierID    string    `json:"courier_id"`
	IncidentType string    `json:"incident_type"`
	Description  string    `json:"description"`
	ReportedAt   time.Time `json:"reported_at"`
	Resolved     bool      `json:"resolved"`
}

// ToTransferResponse mapea la solicitud a su salida.
func ToTransferResponse(t *entity.TransferRequest) TransferResponse {
	out := TransferResponse{
		ID:                    t.ID,
		RequesterID:           t.RequesterID,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		ProductID:             t.ProductID,
		ReferenceCode:         t.ReferenceCode,
		Size:                  t.Size,
		UnitType:              string(t.UnitType),
		Quantity:              t.Quantity,
		Purpose:               string(t.Purpose),
		Priority:              t.Purpose.Priority(),
		PickupMode:            string(t.PickupMode),
		Status:                string(t.Status),
		CustodianID:           t.CustodianID,
		CourierID:             t.CourierID,
		ReceivedQuantity:      t.ReceivedQuantity,
		Discrepancy:           t.Discrepancy(),
		Notes:                 t.Notes,
		ReceptionNotes:        t.ReceptionNotes,
		RejectionReason:       t.RejectionReason,
		OriginalTransferID:    t.OriginalTransferID,
		ReversedPairs:         t.ReversedPairs,
		RequestedAt:           t.RequestedAt,
		AcceptedAt:            t.AcceptedAt,
		CourierAssignedAt:     t.CourierAssignedAt,
		PickedUpAt:            t.PickedUpAt,
		DeliveredAt:           t.DeliveredAt,
		CompletedAt:           t.CompletedAt,
		CancelledAt:           t.CancelledAt,
		HoldExpiresAt:         t.HoldExpiresAt,
		Version:               t.Version,
	}
	if l := t.AutoFormedPairLink; l != nil {
		out.AutoFormedPairLink = &PairLinkResponse{
			LocationID: l.LocationID,
			Quantity:   l.Quantity,
			Reversed:   l.Reversed,
			Remaining:  l.Remaining(),
			FormedAt:   l.FormedAt,
		}
	}
	return out
}

// ToTransferList mapea una lista de solicitudes.
func ToTransferList(list []*entity.TransferRequest) TransferListResponse {
	items := make([]TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, ToTransferResponse(t))
	}
	return TransferListResponse{Total: len(items), Items: items}
}

// ToIncidentResponse mapea la incidencia a su salida.
func ToIncidentResponse(i *entity.TransportIncident) IncidentResponse {
	return IncidentResponse{
		ID:           i.ID,
		CourierID:    i.CourierID,
		IncidentType: i.IncidentType,
		Description:  i.Description,
		ReportedAt:   i.ReportedAt,
		Resolved:     i.Resolved,
	}
}
