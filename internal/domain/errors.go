package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrPermissionDenied       = errors.New("permiso denegado")
	ErrAlreadyClaimed         = errors.New("la solicitud ya fue tomada por otro actor")
	ErrIrreversibleConflict   = errors.New("conflicto irreversible")
	// ErrLockTimeout es reintentable: el cliente puede reenviar el comando.
	ErrLockTimeout = errors.New("tiempo de espera de bloqueo agotado")
)

// InsufficientStockError detalla la falta de stock para una fila de inventario.
type InsufficientStockError struct {
	LocationID string
	ProductID  string
	Size       string
	UnitType   string
	Requested  int
	Available  int
}

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() int {
	if e.Requested <= e.Available {
		return 0
	}
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en ubicación %s (producto %s, talla %s, %s): solicitado %d, disponible %d, faltan %d",
		e.LocationID, e.ProductID, e.Size, e.UnitType, e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// TransitionError comando no válido para el estado actual de la solicitud.
type TransitionError struct {
	TransferID string
	From       string
	Command    string
	Reason     string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("solicitud %s: no se puede aplicar %q en estado %q", e.TransferID, e.Command, e.From)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// PermissionError el actor no puede operar sobre la ubicación o solicitud.
type PermissionError struct {
	ActorID    string
	Role       string
	Action     string
	LocationID string
}

func (e *PermissionError) Error() string {
	if e.LocationID == "" {
		return fmt.Sprintf("usuario %s (%s) no autorizado para %s", e.ActorID, e.Role, e.Action)
	}
	return fmt.Sprintf("usuario %s (%s) no autorizado para %s en ubicación %s", e.ActorID, e.Role, e.Action, e.LocationID)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// ClaimError otro actor ganó la carrera por la solicitud.
type ClaimError struct {
	TransferID string
	Status     string
	ClaimedBy  string
}

func (e *ClaimError) Error() string {
	if e.ClaimedBy != "" {
		return fmt.Sprintf("solicitud %s ya tomada por %s (estado %q)", e.TransferID, e.ClaimedBy, e.Status)
	}
	return fmt.Sprintf("solicitud %s ya fue procesada (estado %q)", e.TransferID, e.Status)
}

func (e *ClaimError) Unwrap() error { return ErrAlreadyClaimed }

// IrreversibleError la reversión o división requiere pares que ya no existen (p. ej. vendidos).
type IrreversibleError struct {
	LocationID string
	ProductID  string
	Size       string
	Requested  int
	Remaining  int
}

func (e *IrreversibleError) Error() string {
	return fmt.Sprintf("no se puede revertir: vendido parcialmente (ubicación %s, producto %s, talla %s): se requieren %d pares, quedan %d",
		e.LocationID, e.ProductID, e.Size, e.Requested, e.Remaining)
}

func (e *IrreversibleError) Unwrap() error { return ErrIrreversibleConflict }

// IsRetryable indica si el error puede resolverse reintentando el mismo comando.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
