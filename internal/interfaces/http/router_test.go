package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-pares/internal/application/catalog"
	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/application/intake"
	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/transfer"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/notify"
	apphttp "github.com/jhoicas/Inventario-pares/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-pares/pkg/jwt"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

const (
	locStore     = "00000000-0000-0000-0000-0000000000a1"
	locWarehouse = "00000000-0000-0000-0000-0000000000b1"
	productID    = "00000000-0000-0000-0000-0000000000c1"
)

// buildAPI arma la API completa sobre el almacenamiento en memoria con dos ubicaciones y un producto.
func buildAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.New(200 * time.Millisecond)
	for _, l := range []*entity.Location{
		{ID: locStore, CompanyID: testCompanyID, Name: "Local Centro", Type: entity.LocationTypeStore, IsActive: true},
		{ID: locWarehouse, CompanyID: testCompanyID, Name: "Bodega Norte", Type: entity.LocationTypeWarehouse, IsActive: true},
	} {
		require.NoError(t, store.Locations().Create(ctx, l))
	}
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: productID, CompanyID: testCompanyID, ReferenceCode: "NK-AIR-01", Brand: "Nike", UnitPrice: decimal.NewFromInt(250000),
	}))

	log := logger.Nop()
	notifier := notify.NewLogNotifier(log)
	l := ledger.New(ledger.Deps{
		TxRunner:  store,
		Units:     store.Units(),
		Changes:   store.Changes(),
		Locations: store.Locations(),
		Products:  store.Products(),
		Logger:    log,
	})
	pe := pairing.NewEngine(store, l, store.Units(), notifier, log)
	te := transfer.NewEngine(transfer.Deps{
		TxRunner:  store,
		Ledger:    l,
		Pairing:   pe,
		Transfers: store.Transfers(),
		Incidents: store.Incidents(),
		Locations: store.Locations(),
		Products:  store.Products(),
		Notifier:  notifier,
		Logger:    log,
	})

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	apphttp.Router(app, apphttp.RouterDeps{
		LocationUC: catalog.NewLocationUseCase(store.Locations()),
		ProductUC:  catalog.NewProductUseCase(store.Products()),
		Ledger:     l,
		Pairing:    pe,
		Transfers:  te,
		IntakeUC:   intake.NewUseCase(nil, store, store.Products(), l, log, intake.Config{}),
		JWTSecret:  testJWTSecret,
	})
	return app, store
}

// bearer token de un usuario distinto por rol, para que solicitante, bodeguero y corredor no coincidan.
func bearer(t *testing.T, role string, locations ...string) string {
	t.Helper()
	id := identity(role, locations...)
	id.UserID = "usuario-" + role
	tok, err := pkgjwt.Generate(testJWTSecret, testIssuer, id, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) (*http.Response, dto.ErrorResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var e dto.ErrorResponse
	if resp.StatusCode >= 400 {
		_ = json.NewDecoder(resp.Body).Decode(&e)
	}
	return resp, e
}

func TestVenta_SinStock_Retorna409(t *testing.T) {
	app, _ := buildAPI(t)
	resp, e := call(t, app, http.MethodPost, "/api/inventory/sales", bearer(t, "vendedor", locStore),
		dto.SaleRequest{LocationID: locStore, ProductID: productID, Size: "42", Quantity: 1})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
}

func TestVenta_DescuentaPares(t *testing.T) {
	app, store := buildAPI(t)
	store.Seed(testCompanyID, entity.UnitKey{LocationID: locStore, ProductID: productID, Size: "42", UnitType: entity.UnitTypePair}, 5, 0)

	resp, _ := call(t, app, http.MethodPost, "/api/inventory/sales", bearer(t, "vendedor", locStore),
		dto.SaleRequest{LocationID: locStore, ProductID: productID, Size: "42", Quantity: 2})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var unit dto.InventoryUnitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&unit))
	assert.Equal(t, 3, unit.Quantity)
}

func TestCuerpoInvalido_Retorna400(t *testing.T) {
	app, _ := buildAPI(t)
	resp, e := call(t, app, http.MethodPost, "/api/transfers", bearer(t, "vendedor", locStore),
		dto.CreateTransferRequest{SourceLocationID: locWarehouse, DestinationLocationID: locWarehouse, ProductID: productID, Size: "42", UnitType: "pair", Quantity: 1, Purpose: "restock"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestTransferencia_FlujoCompletoPorHTTP(t *testing.T) {
	app, store := buildAPI(t)
	store.Seed(testCompanyID, entity.UnitKey{LocationID: locWarehouse, ProductID: productID, Size: "40", UnitType: entity.UnitTypePair}, 4, 0)

	seller := bearer(t, "vendedor", locStore)
	custodian := bearer(t, "bodeguero", locWarehouse)
	courier := bearer(t, "corredor")

	resp, _ := call(t, app, http.MethodPost, "/api/transfers", seller, dto.CreateTransferRequest{
		SourceLocationID: locWarehouse, DestinationLocationID: locStore, ProductID: productID,
		Size: "40", UnitType: "pair", Quantity: 2, Purpose: "cliente",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.TransferResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "high", created.Priority)

	// el vendedor no puede aceptar en la bodega
	resp, e := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/accept", seller, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", e.Code)

	steps := []struct {
		path string
		auth string
		body any
	}{
		{"/accept", custodian, nil},
		{"/courier", courier, dto.AssignCourierRequest{}},
		{"/pickup", courier, nil},
		{"/delivery", courier, map[string]any{"delivered": true}},
		{"/reception", seller, map[string]any{"received_quantity": 2, "condition_ok": true}},
	}
	for _, s := range steps {
		resp, e := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+s.path, s.auth, s.body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", s.path, e.Message)
	}

	resp, _ = call(t, app, http.MethodGet, "/api/transfers/"+created.ID, seller, nil)
	defer resp.Body.Close()
	var detail dto.TransferDetailResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, "completed", detail.Status)
	assert.Equal(t, 100, detail.ProgressPct)
	assert.Empty(t, detail.AllowedCommands)

	// comando repetido sobre estado terminal
	resp2, e := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/pickup", courier, nil)
	resp2.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp2.StatusCode)
	assert.Equal(t, "INVALID_STATE_TRANSITION", e.Code)
}

func TestTransferenciaInexistente_Retorna404(t *testing.T) {
	app, _ := buildAPI(t)
	resp, e := call(t, app, http.MethodGet, "/api/transfers/00000000-0000-0000-0000-00000000dead", bearer(t, "admin"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestDistribucion_MuestraParesFormables(t *testing.T) {
	app, store := buildAPI(t)
	store.Seed(testCompanyID, entity.UnitKey{LocationID: locStore, ProductID: productID, Size: "38", UnitType: entity.UnitTypeLeftOnly}, 3, 0)
	store.Seed(testCompanyID, entity.UnitKey{LocationID: locWarehouse, ProductID: productID, Size: "38", UnitType: entity.UnitTypeRightOnly}, 2, 0)
	store.Seed(testCompanyID, entity.UnitKey{LocationID: locWarehouse, ProductID: productID, Size: "38", UnitType: entity.UnitTypePair}, 6, 0)

	resp, _ := call(t, app, http.MethodGet, "/api/inventory/distribution?product_id="+productID+"&size=38", bearer(t, "admin"), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var d dto.DistributionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	assert.Equal(t, 6, d.TotalPairs)
	assert.Equal(t, 2, d.FormablePairs)
	assert.Equal(t, 8, d.TotalPotentialPairs)
	assert.False(t, d.Balanced)
	assert.Len(t, d.Locations, 2)
}

func TestCrearUbicacion_SoloAdmin(t *testing.T) {
	app, _ := buildAPI(t)
	body := dto.CreateLocationRequest{Name: "Local Sur", Type: "store"}

	resp, _ := call(t, app, http.MethodPost, "/api/locations", bearer(t, "bodeguero"), body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/locations", bearer(t, "admin"), body)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, e := call(t, app, http.MethodPost, "/api/locations", bearer(t, "admin"), body)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", e.Code)
}

func TestInventarioDeUbicacion_SoloGestionadas(t *testing.T) {
	app, _ := buildAPI(t)
	seller := bearer(t, "vendedor", locStore)

	resp, _ := call(t, app, http.MethodGet, "/api/locations/"+locStore+"/inventory", seller, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, e := call(t, app, http.MethodGet, "/api/locations/"+locWarehouse+"/inventory", seller, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", e.Code)

	resp, e = call(t, app, http.MethodGet, "/api/locations/00000000-0000-0000-0000-0000000000ff/inventory", bearer(t, "admin"), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", e.Code)
}
