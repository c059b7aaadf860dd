package dto

// IntakeRequest campos del formulario multipart de ingreso. La imagen viaja en el campo "image".
type IntakeRequest struct {
	LocationID    string `form:"location_id" validate:"required"`
	ReferenceCode string `form:"reference_code" validate:"max=100"`
	Brand         string `form:"brand" validate:"max=100"`
	Model         string `form:"model" validate:"max=100"`
	Description   string `form:"description" validate:"max=1000"`
	UnitPrice     string `form:"unit_price"` // decimal como texto
	ImageURL      string `form:"image_url"`
	Size          string `form:"size" validate:"max=10"`
	UnitType      string `form:"unit_type" validate:"omitempty,oneof=pair left_only right_only"`
	Quantity      int    `form:"quantity" validate:"gt=0"`
	Notes         string `form:"notes" validate:"max=500"`
}

// ClassificationHintResponse sugerencia del clasificador.
type ClassificationHintResponse struct {
	ReferenceCode string  `json:"reference_code"`
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Size          string  `json:"size"`
	Confidence    float64 `json:"confidence"`
	Applied       bool    `json:"applied"`
}

// IntakeResponse resultado del ingreso.
type IntakeResponse struct {
	Product        ProductResponse             `json:"product"`
	Unit           InventoryUnitResponse       `json:"unit"`
	ProductCreated bool                        `json:"product_created"`
	Hint           *ClassificationHintResponse `json:"hint,omitempty"`
}
