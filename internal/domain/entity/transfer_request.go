package entity

import "time"

// TransferStatus estado de una solicitud de transferencia o devolución.
type TransferStatus string

const (
	TransferStatusPending         TransferStatus = "pending"
	TransferStatusAccepted        TransferStatus = "accepted"
	TransferStatusCourierAssigned TransferStatus = "courier_assigned"
	TransferStatusInTransit       TransferStatus = "in_transit"
	TransferStatusInTransitSelf   TransferStatus = "in_transit_self"
	TransferStatusDelivered       TransferStatus = "delivered"
	TransferStatusDeliveryFailed  TransferStatus = "delivery_failed"
	TransferStatusCompleted       TransferStatus = "completed"
	TransferStatusRejected        TransferStatus = "rejected"
	TransferStatusCancelled       TransferStatus = "cancelled"
)

func (s TransferStatus) String() string { return string(s) }

// Purpose propósito de la solicitud; "cliente" tiene prioridad alta (cliente presente).
type Purpose string

const (
	PurposeCustomer      Purpose = "cliente"
	PurposeRestock       Purpose = "restock"
	PurposeExhibition    Purpose = "exhibition"
	PurposePairFormation Purpose = "pair_formation"
	PurposeRebalancing   Purpose = "rebalancing"
	PurposeReturn        Purpose = "return"
)

// Valid indica si el propósito es conocido.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeCustomer, PurposeRestock, PurposeExhibition, PurposePairFormation, PurposeRebalancing, PurposeReturn:
		return true
	}
	return false
}

// Priority "high" para cliente presente y devoluciones, "normal" para el resto.
func (p Purpose) Priority() string {
	if p == PurposeCustomer || p == PurposeReturn {
		return "high"
	}
	return "normal"
}

// PickupMode quién transporta físicamente la mercancía.
type PickupMode string

const (
	PickupModeCourier PickupMode = "courier"
	PickupModeSelf    PickupMode = "self_pickup"
)

// Valid indica si la modalidad es conocida.
func (m PickupMode) Valid() bool {
	return m == PickupModeCourier || m == PickupModeSelf
}

// PairLink registra la formación automática de pares disparada por la recepción de una
// transferencia, para poder revertirla si la transferencia se devuelve.
type PairLink struct {
	LocationID string
	Quantity   int // pares formados
	Reversed   int // pares ya revertidos por devoluciones
	FormedAt   time.Time
}

// Remaining pares formados que aún no han sido revertidos.
func (l *PairLink) Remaining() int {
	if l == nil {
		return 0
	}
	return l.Quantity - l.Reversed
}

// TransferRequest movimiento de stock entre ubicaciones (transferencia o devolución).
// Solo el motor de flujo la modifica; nunca se borra, solo llega a un estado terminal.
type TransferRequest struct {
	ID                    string
	CompanyID             string
	RequesterID           string
	SourceLocationID      string
	DestinationLocationID string
	ProductID             string
	ReferenceCode         string
	Size                  string
	UnitType              UnitType
	Quantity              int
	Purpose               Purpose
	PickupMode            PickupMode
	Status                TransferStatus
	CustodianID           string
	CourierID             string
	ReceivedQuantity      *int
	Notes                 string
	ReceptionNotes        string
	RejectionReason       string
	OriginalTransferID    string
	AutoFormedPairLink    *PairLink
	ReversedPairs         int // devoluciones: pares de la original revertidos al aceptar
	RequestedAt           time.Time
	AcceptedAt            *time.Time
	CourierAssignedAt     *time.Time
	PickedUpAt            *time.Time
	DeliveredAt           *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	HoldExpiresAt         *time.Time
	UpdatedAt             time.Time
	Version               int
}

// IsReturn indica si la solicitud es devolución de una transferencia anterior.
func (t *TransferRequest) IsReturn() bool {
	return t.OriginalTransferID != ""
}

// Discrepancy diferencia entre lo solicitado y lo recibido (0 si no hubo recepción).
func (t *TransferRequest) Discrepancy() int {
	if t.ReceivedQuantity == nil {
		return 0
	}
	return t.Quantity - *t.ReceivedQuantity
}

// SourceKey fila de inventario origen para el tipo de unidad transferido.
func (t *TransferRequest) SourceKey() UnitKey {
	return UnitKey{LocationID: t.SourceLocationID, ProductID: t.ProductID, Size: t.Size, UnitType: t.UnitType}
}

// DestinationKey fila de inventario destino para el tipo de unidad transferido.
func (t *TransferRequest) DestinationKey() UnitKey {
	return UnitKey{LocationID: t.DestinationLocationID, ProductID: t.ProductID, Size: t.Size, UnitType: t.UnitType}
}

// TransportIncident incidencia reportada por el corredor durante el transporte.
type TransportIncident struct {
	ID                string
	TransferRequestID string
	CourierID         string
	IncidentType      string
	Description       string
	ReportedAt        time.Time
	Resolved          bool
}
