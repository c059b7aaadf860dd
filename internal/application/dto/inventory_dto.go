package dto

import (
	"time"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// RegisterStockRequest body para POST /api/inventory/stock (ingreso de unidades).
type RegisterStockRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Size       string `json:"size" validate:"required,max=10"`
	UnitType   string `json:"unit_type" validate:"required,oneof=pair left_only right_only"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
	Notes      string `json:"notes" validate:"max=500"`
}

// AdjustStockRequest corrección manual; delta puede ser negativo.
type AdjustStockRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Size       string `json:"size" validate:"required,max=10"`
	UnitType   string `json:"unit_type" validate:"required,oneof=pair left_only right_only"`
	Delta      int    `json:"delta" validate:"ne=0"`
	Notes      string `json:"notes" validate:"required,max=500"`
}

// SaleRequest venta de pares completos.
type SaleRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Size       string `json:"size" validate:"required,max=10"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
	Notes      string `json:"notes" validate:"max=500"`
}

// SetDisplayRequest pares reservados para exhibición.
type SetDisplayRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Size       string `json:"size" validate:"required,max=10"`
	Display    int    `json:"display" validate:"gte=0"`
}

// InventoryUnitResponse fila de inventario.
type InventoryUnitResponse struct {
	LocationID      string    `json:"location_id"`
	ProductID       string    `json:"product_id"`
	Size            string    `json:"size"`
	UnitType        string    `json:"unit_type"`
	Quantity        int       `json:"quantity"`
	DisplayQuantity int       `json:"display_quantity"`
	Sellable        int       `json:"sellable"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToInventoryUnitResponse mapea la fila a su salida.
func ToInventoryUnitResponse(u *entity.InventoryUnit) InventoryUnitResponse {
	return InventoryUnitResponse{
		LocationID:      u.LocationID,
		ProductID:       u.ProductID,
		Size:            u.Size,
		UnitType:        string(u.UnitType),
		Quantity:        u.Quantity,
		DisplayQuantity: u.DisplayQuantity,
		Sellable:        u.Sellable(),
		UpdatedAt:       u.UpdatedAt,
	}
}

// InventoryChangeResponse registro de auditoría.
type InventoryChangeResponse struct {
	ID                string    `json:"id"`
	LocationID        string    `json:"location_id"`
	ProductID         string    `json:"product_id"`
	Size              string    `json:"size"`
	UnitType          string    `json:"unit_type"`
	ChangeType        string    `json:"change_type"`
	QuantityBefore    int       `json:"quantity_before"`
	QuantityAfter     int       `json:"quantity_after"`
	Delta             int       `json:"delta"`
	UserID            string    `json:"user_id"`
	TransferRequestID string    `json:"transfer_request_id,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ToInventoryChangeResponse mapea el registro a su salida.
func ToInventoryChangeResponse(c *entity.InventoryChange) InventoryChangeResponse {
	return InventoryChangeResponse{
		ID:                c.ID,
		LocationID:        c.LocationID,
		ProductID:         c.ProductID,
		Size:              c.Size,
		UnitType:          string(c.UnitType),
		ChangeType:        string(c.ChangeType),
		QuantityBefore:    c.QuantityBefore,
		QuantityAfter:     c.QuantityAfter,
		Delta:             c.Delta(),
		UserID:            c.UserID,
		TransferRequestID: c.TransferRequestID,
		Notes:             c.Notes,
		CreatedAt:         c.CreatedAt,
	}
}

// DistributionResponse distribución global con métricas derivadas.
type DistributionResponse struct {
	ProductID           string            `json:"product_id"`
	Size                string            `json:"size"`
	Locations           []HoldingResponse `json:"locations"`
	TotalPairs          int               `json:"total_pairs"`
	TotalLeft           int               `json:"total_left"`
	TotalRight          int               `json:"total_right"`
	FormablePairs       int               `json:"formable_pairs"`
	TotalPotentialPairs int               `json:"total_potential_pairs"`
	EfficiencyPct       float64           `json:"efficiency_pct"`
	Balanced            bool              `json:"balanced"`
}

// HoldingResponse cantidades en una ubicación.
type HoldingResponse struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	LocationType string `json:"location_type"`
	Pairs        int    `json:"pairs"`
	Left         int    `json:"left"`
	Right        int    `json:"right"`
	DisplayPairs int    `json:"display_pairs"`
}
