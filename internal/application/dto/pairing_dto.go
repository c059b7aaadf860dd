package dto

// PairSpotRequest formación o división manual en una ubicación. Para formar, quantity 0 forma todos.
type PairSpotRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Size       string `json:"size" validate:"required,max=10"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
}

// PairFormationResponse pares formados.
type PairFormationResponse struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	Size       string `json:"size"`
	Formed     int    `json:"formed"`
}
