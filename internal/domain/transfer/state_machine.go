package transfer

import (
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// Command comando de flujo aplicable a una solicitud.
type Command string

const (
	CommandAccept            Command = "accept"
	CommandReject            Command = "reject"
	CommandAssignCourier     Command = "assign_courier"
	CommandHandToRequester   Command = "hand_to_requester"
	CommandConfirmPickup     Command = "confirm_pickup"
	CommandConfirmDelivery   Command = "confirm_delivery"
	CommandReportFailure     Command = "report_delivery_failure"
	CommandConfirmReception  Command = "confirm_reception"
	CommandCancel            Command = "cancel"
	CommandExpireHold        Command = "expire_hold"
	CommandRetryAfterFailure Command = "retry_delivery"
)

// transitions tabla explícita (estado, comando) → estado siguiente. Cualquier par ausente es ilegal.
var transitions = map[entity.TransferStatus]map[Command]entity.TransferStatus{
	entity.TransferStatusPending: {
		CommandAccept:     entity.TransferStatusAccepted,
		CommandReject:     entity.TransferStatusRejected,
		CommandCancel:     entity.TransferStatusCancelled,
		CommandExpireHold: entity.TransferStatusCancelled,
	},
	entity.TransferStatusAccepted: {
		CommandAssignCourier:   entity.TransferStatusCourierAssigned,
		CommandHandToRequester: entity.TransferStatusInTransitSelf,
		CommandReject:          entity.TransferStatusRejected,
		CommandCancel:          entity.TransferStatusCancelled,
	},
	entity.TransferStatusCourierAssigned: {
		CommandConfirmPickup: entity.TransferStatusInTransit,
	},
	entity.TransferStatusInTransit: {
		CommandConfirmDelivery: entity.TransferStatusDelivered,
		CommandReportFailure:   entity.TransferStatusDeliveryFailed,
	},
	entity.TransferStatusDeliveryFailed: {
		CommandRetryAfterFailure: entity.TransferStatusInTransit,
	},
	entity.TransferStatusInTransitSelf: {
		CommandConfirmReception: entity.TransferStatusCompleted,
	},
	entity.TransferStatusDelivered: {
		CommandConfirmReception: entity.TransferStatusCompleted,
	},
}

// Next devuelve el estado destino o un *domain.TransitionError si el comando no aplica.
func Next(t *entity.TransferRequest, cmd Command) (entity.TransferStatus, error) {
	if next, ok := transitions[t.Status][cmd]; ok {
		return next, nil
	}
	return "", &domain.TransitionError{TransferID: t.ID, From: string(t.Status), Command: string(cmd)}
}

// Allowed indica si el comando es válido desde el estado dado.
func Allowed(status entity.TransferStatus, cmd Command) bool {
	_, ok := transitions[status][cmd]
	return ok
}

// AllowedCommands comandos válidos desde un estado (orden estable para respuestas).
func AllowedCommands(status entity.TransferStatus) []Command {
	order := []Command{
		CommandAccept, CommandReject, CommandAssignCourier, CommandHandToRequester,
		CommandConfirmPickup, CommandConfirmDelivery, CommandReportFailure, CommandRetryAfterFailure,
		CommandConfirmReception, CommandCancel, CommandExpireHold,
	}
	var out []Command
	for _, c := range order {
		if Allowed(status, c) {
			out = append(out, c)
		}
	}
	return out
}

// IsTerminal estados sin salida.
func IsTerminal(status entity.TransferStatus) bool {
	return len(transitions[status]) == 0
}

// ProgressPct avance aproximado de la solicitud para vistas de seguimiento.
func ProgressPct(status entity.TransferStatus) int {
	switch status {
	case entity.TransferStatusPending:
		return 10
	case entity.TransferStatusAccepted:
		return 30
	case entity.TransferStatusCourierAssigned:
		return 45
	case entity.TransferStatusInTransit, entity.TransferStatusInTransitSelf:
		return 70
	case entity.TransferStatusDelivered:
		return 90
	case entity.TransferStatusCompleted:
		return 100
	}
	return 0
}
