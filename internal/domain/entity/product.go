package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product referencia vendible. No guarda cantidades: el stock vive en InventoryUnit por ubicación.
type Product struct {
	ID            string
	CompanyID     string
	ReferenceCode string // único por empresa
	Brand         string
	Model         string
	Description   string
	UnitPrice     decimal.Decimal
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
