package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// CreateProductRequest entrada para crear una referencia.
type CreateProductRequest struct {
	ReferenceCode string          `json:"reference_code" validate:"required,min=1,max=100"`
	Brand         string          `json:"brand" validate:"max=100"`
	Model         string          `json:"model" validate:"max=100"`
	Description   string          `json:"description" validate:"max=1000"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	ReferenceCode string          `json:"reference_code"`
	Brand         string          `json:"brand"`
	Model         string          `json:"model"`
	Description   string          `json:"description"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ImageURL      string          `json:"image_url"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ToProductResponse mapea la entidad a su salida.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		CompanyID:     p.CompanyID,
		ReferenceCode: p.ReferenceCode,
		Brand:         p.Brand,
		Model:         p.Model,
		Description:   p.Description,
		UnitPrice:     p.UnitPrice,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
