package dto

import (
	"time"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// CreateLocationRequest entrada para crear un local o bodega.
type CreateLocationRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Type    string `json:"type" validate:"required,oneof=store warehouse"`
	Address string `json:"address" validate:"max=300"`
}

// SetLocationActiveRequest activa o desactiva una ubicación.
type SetLocationActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationListResponse lista de ubicaciones.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
}

// ToLocationResponse mapea la entidad a su salida.
func ToLocationResponse(l *entity.Location) LocationResponse {
	return LocationResponse{
		ID:        l.ID,
		CompanyID: l.CompanyID,
		Name:      l.Name,
		Type:      l.Type,
		Address:   l.Address,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
	}
}
