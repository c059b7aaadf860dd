// Package intake registra mercancía nueva asistida por el clasificador de imágenes.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

// Config parámetros del ingreso asistido.
type Config struct {
	MinConfidence float64       // sugerencias por debajo se ignoran
	Timeout       time.Duration // límite de la llamada al clasificador
}

// UseCase ingreso de mercancía nueva.
type UseCase struct {
	classifier ports.Classifier
	txRunner   ports.TxRunner
	products   repository.ProductRepository
	ledger     *ledger.Ledger
	log        *logger.Logger
	cfg        Config
	now        func() time.Time
}

// NewUseCase construye el caso de uso. classifier puede ser nil (solo datos del operador).
func NewUseCase(classifier ports.Classifier, txRunner ports.TxRunner, products repository.ProductRepository, l *ledger.Ledger, log *logger.Logger, cfg Config) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &UseCase{classifier: classifier, txRunner: txRunner, products: products, ledger: l, log: log, cfg: cfg, now: time.Now}
}

// Input datos del operador. Los campos vacíos pueden completarse con la sugerencia del
// clasificador; los que el operador llena siempre prevalecen.
type Input struct {
	LocationID       string
	ReferenceCode    string
	Brand            string
	Model            string
	Description      string
	UnitPrice        decimal.Decimal
	ImageURL         string
	Size             string
	UnitType         entity.UnitType
	Quantity         int
	Image            []byte
	ImageContentType string
	Notes            string
}

// Result producto y fila resultantes del ingreso.
type Result struct {
	Product        *entity.Product
	Unit           *entity.InventoryUnit
	ProductCreated bool
	Hint           *ports.ClassificationHint
	HintApplied    bool
}

// Register clasifica la imagen (si hay), resuelve o crea el producto y da de alta las
// unidades a través del ledger. Un fallo del clasificador no impide el ingreso. Rol y
// ubicación se validan antes de escribir; un producto nuevo se crea en la misma transacción
// que sus unidades, así que un ingreso fallido no deja el producto creado.
func (uc *UseCase) Register(ctx context.Context, actor entity.Actor, in Input) (*Result, error) {
	if in.UnitType == "" {
		in.UnitType = entity.UnitTypePair
	}
	if in.Quantity <= 0 || !in.UnitType.Valid() || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	hint := uc.classify(ctx, in)
	res.Hint = hint

	ref := normalizeReference(in.ReferenceCode)
	if ref == "" && hint != nil {
		ref = normalizeReference(hint.ReferenceCode)
		res.HintApplied = ref != ""
	}
	if ref == "" {
		return nil, fmt.Errorf("referencia requerida: %w", domain.ErrInvalidInput)
	}
	size := strings.TrimSpace(in.Size)
	if size == "" && hint != nil {
		size = strings.TrimSpace(hint.Size)
		res.HintApplied = res.HintApplied || size != ""
	}
	if size == "" {
		return nil, fmt.Errorf("talla requerida: %w", domain.ErrInvalidInput)
	}

	stock := ledger.StockInput{
		LocationID: in.LocationID,
		Size:       size,
		UnitType:   in.UnitType,
		Quantity:   in.Quantity,
		Notes:      in.Notes,
	}
	if err := uc.ledger.CheckIntake(ctx, actor, stock); err != nil {
		return nil, err
	}

	// Un segundo intento cubre el alta concurrente de la misma referencia: la otra
	// transacción confirmó primero y este ingreso usa su producto.
	for attempt := 0; ; attempt++ {
		product, err := uc.products.GetByReference(ctx, actor.CompanyID, ref)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		created := product == nil
		if created {
			if product, err = uc.newProduct(actor, ref, in, hint); err != nil {
				return nil, err
			}
		}
		stock.ProductID = product.ID

		var unit *entity.InventoryUnit
		err = uc.txRunner.Run(ctx, func(tx ports.Tx) error {
			if created {
				if err := tx.Products().Create(ctx, product); err != nil {
					return fmt.Errorf("create product: %w", err)
				}
			}
			var err error
			unit, err = uc.ledger.RegisterStockIn(ctx, tx, actor, stock)
			return err
		})
		if created && attempt == 0 && errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			uc.log.Warn().Err(err).Str("reference", ref).Str("location_id", in.LocationID).
				Str("actor", actor.UserID).Msg("ingreso rechazado")
			return nil, err
		}

		res.Product = product
		res.Unit = unit
		res.ProductCreated = created
		if created && hint != nil && ((in.Brand == "" && hint.Brand != "") || (in.Model == "" && hint.Model != "")) {
			res.HintApplied = true
		}
		uc.log.Info().Str("product_id", product.ID).Str("reference", product.ReferenceCode).
			Bool("product_created", res.ProductCreated).Bool("hint_applied", res.HintApplied).
			Int("quantity", in.Quantity).Str("actor", actor.UserID).Msg("ingreso registrado")
		return res, nil
	}
}

// classify devuelve la sugerencia utilizable o nil (sin imagen, sin clasificador, error o
// confianza insuficiente).
func (uc *UseCase) classify(ctx context.Context, in Input) *ports.ClassificationHint {
	if uc.classifier == nil || len(in.Image) == 0 {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()
	hint, err := uc.classifier.Classify(cctx, in.Image, in.ImageContentType)
	if err != nil {
		uc.log.Warn().Err(err).Msg("clasificador no disponible, se usan datos del operador")
		return nil
	}
	if hint == nil || hint.Confidence < uc.cfg.MinConfidence {
		if hint != nil {
			uc.log.Debug().Float64("confidence", hint.Confidence).Msg("sugerencia descartada por baja confianza")
		}
		return nil
	}
	return hint
}

// newProduct arma el producto nuevo completando marca y modelo con la sugerencia. No lo
// persiste.
func (uc *UseCase) newProduct(actor entity.Actor, ref string, in Input, hint *ports.ClassificationHint) (*entity.Product, error) {
	if !actor.Is(entity.RoleAdmin, entity.RoleCustodian) {
		return nil, &domain.PermissionError{ActorID: actor.UserID, Role: actor.Role, Action: "crear producto"}
	}
	if in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("precio negativo: %w", domain.ErrInvalidInput)
	}
	brand, model := in.Brand, in.Model
	if hint != nil {
		if brand == "" {
			brand = hint.Brand
		}
		if model == "" {
			model = hint.Model
		}
	}
	now := uc.now()
	return &entity.Product{
		ID:            uuid.New().String(),
		CompanyID:     actor.CompanyID,
		ReferenceCode: ref,
		Brand:         normalizeName(brand),
		Model:         normalizeName(model),
		Description:   strings.TrimSpace(in.Description),
		UnitPrice:     in.UnitPrice,
		ImageURL:      in.ImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// normalizeReference NFC, sin espacios y en mayúsculas.
func normalizeReference(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// normalizeName NFC, espacios simples y formato título ("nike air" -> "Nike Air").
func normalizeName(s string) string {
	s = norm.NFC.String(strings.Join(strings.Fields(s), " "))
	if s == "" {
		return ""
	}
	return cases.Title(language.Spanish).String(s)
}
