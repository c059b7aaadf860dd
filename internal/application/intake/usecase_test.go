package intake_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-pares/internal/application/apptest"
	"github.com/jhoicas/Inventario-pares/internal/application/intake"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

type fakeClassifier struct {
	hint  *ports.ClassificationHint
	err   error
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, image []byte, _ string) (*ports.ClassificationHint, error) {
	f.calls++
	if len(image) == 0 {
		return nil, errors.New("imagen vacía")
	}
	return f.hint, f.err
}

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0}

func newUseCase(t *testing.T, c ports.Classifier) (*intake.UseCase, *apptest.Env) {
	env := apptest.New(t)
	return intake.NewUseCase(c, env.Store, env.Store.Products(), env.Ledger, nil, intake.Config{MinConfidence: 0.6}), env
}

// commitFails ejecuta fn en el store y aborta la transacción aunque fn termine bien.
type commitFails struct {
	runner ports.TxRunner
}

func (r commitFails) Run(ctx context.Context, fn func(tx ports.Tx) error) error {
	return r.runner.Run(ctx, func(tx ports.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("commit abortado")
	})
}

func TestRegister_SinClasificador_ProductoExistente(t *testing.T) {
	uc, env := newUseCase(t, nil)

	res, err := uc.Register(env.Ctx, apptest.Admin(), intake.Input{
		LocationID: apptest.LocB, ReferenceCode: " nk-air-01 ", Size: "42", Quantity: 6,
	})
	require.NoError(t, err)
	assert.False(t, res.ProductCreated)
	assert.Equal(t, apptest.ProductID, res.Product.ID)
	assert.Equal(t, entity.UnitTypePair, res.Unit.UnitType)
	assert.Equal(t, 6, res.Unit.Quantity)
	assert.Nil(t, res.Hint)
}

func TestRegister_SugerenciaCompletaCamposVacios(t *testing.T) {
	c := &fakeClassifier{hint: &ports.ClassificationHint{
		ReferenceCode: "ad-run 22", Brand: "adidas", Model: "ultra  boost", Size: "40", Confidence: 0.9,
	}}
	uc, env := newUseCase(t, c)

	res, err := uc.Register(env.Ctx, apptest.Custodian("b1", apptest.LocB), intake.Input{
		LocationID: apptest.LocB, Quantity: 2, UnitType: entity.UnitTypeLeftOnly,
		UnitPrice: decimal.RequireFromString("189900.50"), Image: jpeg, ImageContentType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls)
	assert.True(t, res.ProductCreated)
	assert.True(t, res.HintApplied)
	assert.Equal(t, "AD-RUN22", res.Product.ReferenceCode)
	assert.Equal(t, "Adidas", res.Product.Brand)
	assert.Equal(t, "Ultra Boost", res.Product.Model)
	assert.True(t, decimal.RequireFromString("189900.5").Equal(res.Product.UnitPrice))
	assert.Equal(t, "40", res.Unit.Size)
	assert.Equal(t, 2, res.Unit.Quantity)
}

func TestRegister_DatosDelOperadorPrevalecen(t *testing.T) {
	c := &fakeClassifier{hint: &ports.ClassificationHint{
		ReferenceCode: "OTRA-REF", Brand: "Puma", Size: "39", Confidence: 0.95,
	}}
	uc, env := newUseCase(t, c)

	res, err := uc.Register(env.Ctx, apptest.Admin(), intake.Input{
		LocationID: apptest.LocB, ReferenceCode: "nb-574", Brand: "new balance", Size: "41", Quantity: 1,
		Image: jpeg,
	})
	require.NoError(t, err)
	assert.Equal(t, "NB-574", res.Product.ReferenceCode)
	assert.Equal(t, "New Balance", res.Product.Brand)
	assert.Equal(t, "41", res.Unit.Size)
	assert.False(t, res.HintApplied)
}

func TestRegister_BajaConfianzaSeIgnora(t *testing.T) {
	c := &fakeClassifier{hint: &ports.ClassificationHint{ReferenceCode: "X-1", Size: "40", Confidence: 0.3}}
	uc, env := newUseCase(t, c)

	_, err := uc.Register(env.Ctx, apptest.Admin(), intake.Input{LocationID: apptest.LocB, Quantity: 1, Image: jpeg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, c.calls)
}

func TestRegister_FalloDelClasificadorNoImpideIngreso(t *testing.T) {
	c := &fakeClassifier{err: errors.New("servicio caído")}
	uc, env := newUseCase(t, c)

	res, err := uc.Register(env.Ctx, apptest.Admin(), intake.Input{
		LocationID: apptest.LocB, ReferenceCode: "NK-AIR-01", Size: "42", Quantity: 3, Image: jpeg,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Hint)
	assert.Equal(t, 3, env.Qty(apptest.LocB, entity.UnitTypePair))
}

func TestRegister_VendedorNoCreaProductos(t *testing.T) {
	uc, env := newUseCase(t, nil)

	_, err := uc.Register(env.Ctx, apptest.Seller("v1", apptest.LocA), intake.Input{
		LocationID: apptest.LocA, ReferenceCode: "NUEVA-1", Size: "38", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestRegister_EntradaInvalida(t *testing.T) {
	uc, env := newUseCase(t, nil)

	for name, in := range map[string]intake.Input{
		"sin cantidad":  {LocationID: apptest.LocB, ReferenceCode: "NK-AIR-01", Size: "42"},
		"sin ubicación": {ReferenceCode: "NK-AIR-01", Size: "42", Quantity: 1},
		"sin talla":     {LocationID: apptest.LocB, ReferenceCode: "NK-AIR-01", Quantity: 1},
		"tipo inválido": {LocationID: apptest.LocB, ReferenceCode: "NK-AIR-01", Size: "42", Quantity: 1, UnitType: "BOTH"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(env.Ctx, apptest.Admin(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRegister_UbicacionAjenaNoDejaProducto(t *testing.T) {
	uc, env := newUseCase(t, nil)

	_, err := uc.Register(env.Ctx, apptest.Custodian("b1", apptest.LocB), intake.Input{
		LocationID: apptest.LocA, ReferenceCode: "NEW-REF-9", Size: "40", Quantity: 2,
	})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	p, err := env.Store.Products().GetByReference(env.Ctx, apptest.CompanyID, "NEW-REF-9")
	require.NoError(t, err)
	assert.Nil(t, p, "un ingreso rechazado no debe crear el producto")
}

func TestRegister_TransaccionFallidaNoDejaProducto(t *testing.T) {
	env := apptest.New(t)
	uc := intake.NewUseCase(nil, commitFails{runner: env.Store}, env.Store.Products(), env.Ledger, nil, intake.Config{})

	_, err := uc.Register(env.Ctx, apptest.Admin(), intake.Input{
		LocationID: apptest.LocB, ReferenceCode: "NEW-REF-10", Size: "40", Quantity: 2,
	})
	require.Error(t, err)

	p, err := env.Store.Products().GetByReference(env.Ctx, apptest.CompanyID, "NEW-REF-10")
	require.NoError(t, err)
	assert.Nil(t, p)
	changes, err := env.Ledger.History(env.Ctx, repository.ChangeFilter{CompanyID: apptest.CompanyID, LocationID: apptest.LocB, Size: "40"})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestRegister_AltaConcurrenteDeLaMismaReferencia(t *testing.T) {
	uc, env := newUseCase(t, nil)

	var created atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			res, err := uc.Register(env.Ctx, apptest.Admin(), intake.Input{
				LocationID: apptest.LocB, ReferenceCode: "NEW-REF-11", Size: "41", Quantity: 3,
			})
			if err == nil && res.ProductCreated {
				created.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), created.Load(), "solo uno de los ingresos crea el producto")

	p, err := env.Store.Products().GetByReference(env.Ctx, apptest.CompanyID, "NEW-REF-11")
	require.NoError(t, err)
	require.NotNil(t, p)
	avail, err := env.Ledger.QueryAvailability(env.Ctx, apptest.LocB, p.ID, "41")
	require.NoError(t, err)
	assert.Equal(t, 6, avail.Pairs)
}
