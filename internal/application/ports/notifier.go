package ports

import (
	"context"
	"time"
)

// Tipos de evento publicados tras confirmar un comando.
const (
	EventTransferCreated   = "transfer.created"
	EventTransferAccepted  = "transfer.accepted"
	EventTransferRejected  = "transfer.rejected"
	EventCourierAssigned   = "transfer.courier_assigned"
	EventTransferInTransit = "transfer.in_transit"
	EventTransferDelivered = "transfer.delivered"
	EventDeliveryFailed    = "transfer.delivery_failed"
	EventTransferCompleted = "transfer.completed"
	EventTransferCancelled = "transfer.cancelled"
	EventHoldExpired       = "transfer.hold_expired"
	EventReturnRequested   = "return.requested"
	EventReturnAccepted    = "return.accepted"
	EventReturnCompleted   = "return.completed"
	EventIncidentReported  = "transfer.incident_reported"
	EventPairsFormed       = "pairs.formed"
)

// Event notificación de dominio. Recipients son los usuarios interesados (solicitante,
// bodeguero, corredor) cuando se conocen.
type Event struct {
	Type       string            `json:"type"`
	CompanyID  string            `json:"company_id"`
	TransferID string            `json:"transfer_id,omitempty"`
	Status     string            `json:"status,omitempty"`
	ActorID    string            `json:"actor_id,omitempty"`
	Recipients []string          `json:"recipients,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Notifier publica eventos sin bloquear al comando. Los errores se registran en el
// adaptador; nunca deshacen la transacción ya confirmada.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}
