package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
)

// Verificar en tiempo de compilación que HTTPClassifier implementa Classifier.
var _ ports.Classifier = (*HTTPClassifier)(nil)

const classifyPath = "/api/v1/classify"

// HTTPClassifier adaptador del microservicio de clasificación por imagen.
// Envía la imagen como multipart y espera un JSON con la sugerencia.
type HTTPClassifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClassifier construye el adaptador. timeout es el límite de red; el caller también
// pone WithTimeout.
func NewHTTPClassifier(baseURL, apiKey string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClassifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// classifyResponse es el JSON que devuelve el microservicio.
type classifyResponse struct {
	ReferenceCode   string  `json:"reference_code"`
	Brand           string  `json:"brand"`
	Model           string  `json:"model"`
	Size            string  `json:"size"`
	ConfidenceScore float64 `json:"confidence_score"`
	Error           string  `json:"error,omitempty"`
}

// Classify envía la imagen y devuelve la sugerencia con la confianza acotada a [0, 1].
func (c *HTTPClassifier) Classify(ctx context.Context, image []byte, contentType string) (*ports.ClassificationHint, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("classifier: CLASSIFIER_URL no configurado")
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("classifier: imagen vacía")
	}
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="image"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("classifier: crear multipart: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("classifier: escribir imagen: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("classifier: cerrar multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classifyPath, &body)
	if err != nil {
		return nil, fmt.Errorf("classifier: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("classifier: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("classifier: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("classifier: leer respuesta: %w", err)
	}

	var out classifyResponse
	if resp.StatusCode != http.StatusOK {
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil && out.Error != "" {
			return nil, fmt.Errorf("classifier: HTTP %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("classifier: HTTP %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("classifier: respuesta no es JSON válido: %w", err)
	}

	confidence := out.ConfidenceScore
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return &ports.ClassificationHint{
		ReferenceCode: out.ReferenceCode,
		Brand:         out.Brand,
		Model:         out.Model,
		Size:          out.Size,
		Confidence:    confidence,
	}, nil
}
