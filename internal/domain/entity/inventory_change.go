package entity

import "time"

// ChangeType tipo de cambio registrado en la auditoría de inventario.
type ChangeType string

const (
	ChangeIntake            ChangeType = "intake"
	ChangeSale              ChangeType = "sale"
	ChangeAdjustment        ChangeType = "adjustment"
	ChangeDisplay           ChangeType = "display_adjustment"
	ChangeTransferPickup    ChangeType = "transfer_pickup"
	ChangeTransferReception ChangeType = "transfer_reception"
	ChangePairFormation     ChangeType = "pair_formation"
	ChangePairSplit         ChangeType = "pair_split"
	ChangeReturnReversal    ChangeType = "return_reversal"
	ChangeReturnPickup      ChangeType = "return_pickup"
	ChangeReturnReception   ChangeType = "return_reception"
)

// InventoryChange registro inmutable de una mutación de inventario. Se escribe en la misma
// transacción que la mutación que documenta.
type InventoryChange struct {
	ID                string
	CompanyID         string
	ProductID         string
	Size              string
	LocationID        string
	UnitType          UnitType
	ChangeType        ChangeType
	QuantityBefore    int
	QuantityAfter     int
	UserID            string
	TransferRequestID string
	Notes             string
	CreatedAt         time.Time
}

// Delta variación de cantidad que documenta el registro.
func (c *InventoryChange) Delta() int {
	return c.QuantityAfter - c.QuantityBefore
}
