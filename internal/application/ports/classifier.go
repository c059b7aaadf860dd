package ports

import "context"

// ClassificationHint sugerencia del clasificador externo para una imagen de producto.
type ClassificationHint struct {
	ReferenceCode string  `json:"reference_code"`
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Size          string  `json:"size"`
	Confidence    float64 `json:"confidence"`
}

// Classifier puerto de salida hacia el servicio de clasificación por imagen.
// El contexto debe llevar un timeout: el servicio es externo y puede no responder.
type Classifier interface {
	Classify(ctx context.Context, image []byte, contentType string) (*ClassificationHint, error)
}
