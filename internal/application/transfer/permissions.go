package transfer

import (
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

func denied(actor entity.Actor, action, locationID string) error {
	return &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: action, LocationID: locationID}
}

// canCustody bodeguero (o admin) que gestiona la ubicación origen.
func canCustody(actor entity.Actor, t *entity.TransferRequest, action string) error {
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) || !actor.Manages(t.SourceLocationID) {
		return denied(actor, action, t.SourceLocationID)
	}
	return nil
}

// isAssignedCourier el corredor asignado a la solicitud.
func isAssignedCourier(actor entity.Actor, t *entity.TransferRequest, action string) error {
	if !actor.Is(entity.RoleCourier) || t.CourierID == "" || t.CourierID != actor.UserID {
		return denied(actor, action, "")
	}
	return nil
}

// canReceive quien gestiona la ubicación destino.
func canReceive(actor entity.Actor, t *entity.TransferRequest) error {
	if actor.Is(entity.RoleCourier) || !actor.Manages(t.DestinationLocationID) {
		return denied(actor, "confirmar recepción", t.DestinationLocationID)
	}
	return nil
}

// canCancel el solicitante o el bodeguero de origen.
func canCancel(actor entity.Actor, t *entity.TransferRequest) error {
	if actor.UserID == t.RequesterID {
		return nil
	}
	return canCustody(actor, t, "cancelar")
}

// canView cualquier participante o quien gestione alguna de las dos ubicaciones.
func canView(actor entity.Actor, t *entity.TransferRequest) bool {
	switch {
	case actor.CompanyID != t.CompanyID:
		return false
	case actor.UserID == t.RequesterID, actor.UserID == t.CustodianID, actor.UserID == t.CourierID:
		return true
	case actor.Manages(t.SourceLocationID), actor.Manages(t.DestinationLocationID):
		return true
	case actor.Is(entity.RoleCourier) && t.PickupMode == entity.PickupModeCourier && t.CourierID == "" &&
		t.Status == entity.TransferStatusAccepted:
		return true
	}
	return false
}
