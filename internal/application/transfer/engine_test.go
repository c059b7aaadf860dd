package transfer_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-pares/internal/application/apptest"
	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/application/transfer"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

var (
	sellerA    = apptest.Seller("vendedor-a", apptest.LocA)
	custodianB = apptest.Custodian("bodeguero-b", apptest.LocB)
	courier1   = apptest.Courier("corredor-1")
	courier2   = apptest.Courier("corredor-2")
)

func request(ut entity.UnitType, qty int, purpose entity.Purpose) transfer.CreateInput {
	return transfer.CreateInput{
		SourceLocationID:      apptest.LocB,
		DestinationLocationID: apptest.LocA,
		ProductID:             apptest.ProductID,
		Size:                  apptest.Size,
		UnitType:              ut,
		Quantity:              qty,
		Purpose:               purpose,
	}
}

// runCourier lleva una solicitud aceptada hasta entregada con el corredor dado.
func runCourier(t *testing.T, env *apptest.Env, id string, courier entity.Actor) {
	t.Helper()
	_, err := env.Transfers.AssignCourier(env.Ctx, courier, id, "")
	require.NoError(t, err)
	_, err = env.Transfers.ConfirmPickup(env.Ctx, courier, id)
	require.NoError(t, err)
	_, err = env.Transfers.ConfirmDelivery(env.Ctx, courier, id, true, "")
	require.NoError(t, err)
}

// completeTransfer crea, acepta, transporta y recibe una transferencia de B hacia A.
func completeTransfer(t *testing.T, env *apptest.Env, in transfer.CreateInput) *entity.TransferRequest {
	t.Helper()
	tr, err := env.Transfers.Create(env.Ctx, sellerA, in)
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	runCourier(t, env, tr.ID, courier1)
	done, err := env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{
		ReceivedQuantity: in.Quantity, ConditionOK: true,
	})
	require.NoError(t, err)
	return done
}

func TestFlujoCorredor_ParesCompletos(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 5)
	env.Events.Reset()

	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 2, entity.PurposeRestock))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, tr.Status)
	assert.Equal(t, "NK-AIR-01", tr.ReferenceCode)
	assert.Nil(t, tr.HoldExpiresAt)

	tr, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, custodianB.UserID, tr.CustodianID)
	// Aceptar no mueve stock.
	assert.Equal(t, 5, env.Qty(apptest.LocB, entity.UnitTypePair))

	_, err = env.Transfers.AssignCourier(env.Ctx, courier1, tr.ID, "")
	require.NoError(t, err)
	tr, err = env.Transfers.ConfirmPickup(env.Ctx, courier1, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusInTransit, tr.Status)
	assert.Equal(t, 3, env.Qty(apptest.LocB, entity.UnitTypePair))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypePair))

	_, err = env.Transfers.ConfirmDelivery(env.Ctx, courier1, tr.ID, true, "portería")
	require.NoError(t, err)
	tr, err = env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 2, ConditionOK: true})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, tr.Status)
	assert.Equal(t, 2, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 0, tr.Discrepancy())

	assert.Equal(t, []string{
		ports.EventTransferCreated,
		ports.EventTransferAccepted,
		ports.EventCourierAssigned,
		ports.EventTransferInTransit,
		ports.EventTransferDelivered,
		ports.EventTransferCompleted,
	}, env.Events.Types())
}

func TestRecepcion_FormaParesConPiesOpuestos(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 1)
	env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 1)
	left, right := env.Feet()

	done := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 1, entity.PurposePairFormation))

	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))
	assert.Equal(t, 0, env.Qty(apptest.LocB, entity.UnitTypeRightOnly))
	require.NotNil(t, done.AutoFormedPairLink)
	assert.Equal(t, apptest.LocA, done.AutoFormedPairLink.LocationID)
	assert.Equal(t, 1, done.AutoFormedPairLink.Quantity)
	assert.Contains(t, env.Events.Types(), ports.EventPairsFormed)

	l2, r2 := env.Feet()
	assert.Equal(t, left, l2)
	assert.Equal(t, right, r2)
}

func TestTransferenciaPies_DividePareEnOrigen(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	left, right := env.Feet()

	completeTransfer(t, env, request(entity.UnitTypeLeftOnly, 1, entity.PurposeRebalancing))

	// En B queda un par y el derecho del par dividido; en A llega el izquierdo sin opuesto.
	assert.Equal(t, 1, env.Qty(apptest.LocB, entity.UnitTypePair))
	assert.Equal(t, 1, env.Qty(apptest.LocB, entity.UnitTypeRightOnly))
	assert.Equal(t, 0, env.Qty(apptest.LocB, entity.UnitTypeLeftOnly))
	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))

	l2, r2 := env.Feet()
	assert.Equal(t, left, l2)
	assert.Equal(t, right, r2)
}

func TestDevolucion_RevierteParesFormados(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 1)
	env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 1)
	orig := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 1, entity.PurposePairFormation))

	ret, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, entity.PurposeReturn, ret.Purpose)
	assert.Equal(t, apptest.LocA, ret.SourceLocationID)
	assert.Equal(t, apptest.LocB, ret.DestinationLocationID)
	assert.Equal(t, "high", ret.Purpose.Priority())

	_, err = env.Transfers.AcceptReturn(env.Ctx, custodianB, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))

	runCourier(t, env, ret.ID, courier2)
	ret, err = env.Transfers.ConfirmReception(env.Ctx, custodianB, ret.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: true})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, ret.Status)

	// Estado inicial restaurado.
	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))
	assert.Equal(t, 1, env.Qty(apptest.LocB, entity.UnitTypeRightOnly))

	d, err := env.Transfers.Get(env.Ctx, sellerA, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Transfer.AutoFormedPairLink.Reversed)
	require.Len(t, d.Returns, 1)
	assert.Equal(t, ret.ID, d.Returns[0].ID)
}

func TestDevolucion_ParVendido_EsIrreversible(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 1)
	env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 1)
	orig := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 1, entity.PurposePairFormation))

	_, err := env.Ledger.Sell(env.Ctx, sellerA, ledger.SaleInput{
		LocationID: apptest.LocA, ProductID: apptest.ProductID, Size: apptest.Size, Quantity: 1,
	})
	require.NoError(t, err)

	ret, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 1})
	require.NoError(t, err)
	history, err := env.Ledger.History(env.Ctx, repository.ChangeFilter{CompanyID: apptest.CompanyID})
	require.NoError(t, err)

	_, err = env.Transfers.AcceptReturn(env.Ctx, custodianB, ret.ID)
	var irr *domain.IrreversibleError
	require.ErrorAs(t, err, &irr)
	assert.ErrorIs(t, err, domain.ErrIrreversibleConflict)

	// Nada cambió: la devolución sigue pendiente y el historial no creció.
	d, err := env.Transfers.Get(env.Ctx, custodianB, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, d.Transfer.Status)
	after, err := env.Ledger.History(env.Ctx, repository.ChangeFilter{CompanyID: apptest.CompanyID})
	require.NoError(t, err)
	assert.Len(t, after, len(history))
	o, err := env.Transfers.Get(env.Ctx, sellerA, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, o.Transfer.AutoFormedPairLink.Reversed)
}

func TestDevolucion_NoSuperaLoRecibido(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 3)
	orig := completeTransfer(t, env, request(entity.UnitTypePair, 2, entity.PurposeRestock))

	_, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 1})
	require.NoError(t, err)
	_, err = env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 2})
	var short *domain.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 1, short.Available)
}

func TestDevolucion_SoloDeCompletadas(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 3)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)

	_, err = env.Transfers.RequestReturn(env.Ctx, sellerA, tr.ID, transfer.ReturnInput{Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestAsignarCorredor_CarreraUnSoloGanador(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)

	var won, claimed atomic.Int32
	var g errgroup.Group
	for _, c := range []entity.Actor{courier1, courier2} {
		c := c
		g.Go(func() error {
			_, err := env.Transfers.AssignCourier(env.Ctx, c, tr.ID, "")
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, domain.ErrAlreadyClaimed):
				claimed.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(1), claimed.Load())
}

func TestAceptar_CarreraEntreBodegueros(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)

	var won, claimed atomic.Int32
	var g errgroup.Group
	for _, c := range []entity.Actor{custodianB, apptest.Custodian("bodeguero-b2", apptest.LocB)} {
		c := c
		g.Go(func() error {
			_, err := env.Transfers.Accept(env.Ctx, c, tr.ID)
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, domain.ErrAlreadyClaimed):
				claimed.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(1), claimed.Load())
}

func TestAceptar_RevalidaStockConBloqueo(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 2, entity.PurposeRestock))
	require.NoError(t, err)

	_, err = env.Ledger.Sell(env.Ctx, apptest.Admin(), ledger.SaleInput{
		LocationID: apptest.LocB, ProductID: apptest.ProductID, Size: apptest.Size, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	d, err := env.Transfers.Get(env.Ctx, sellerA, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, d.Transfer.Status)
}

func TestCreate_SinStockEnOrigen(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 1)

	_, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypeRightOnly, 2, entity.PurposeRestock))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCreate_Permisos(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 1)

	_, err := env.Transfers.Create(env.Ctx, courier1, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = env.Transfers.Create(env.Ctx, apptest.Seller("vendedor-c", apptest.LocC), request(entity.UnitTypePair, 1, entity.PurposeRestock))
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	in := request(entity.UnitTypePair, 1, entity.PurposeReturn)
	_, err = env.Transfers.Create(env.Ctx, sellerA, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestComandos_PermisosPorRol(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)

	_, err = env.Transfers.Accept(env.Ctx, sellerA, tr.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = env.Transfers.Accept(env.Ctx, apptest.Custodian("bodeguero-c", apptest.LocC), tr.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	_, err = env.Transfers.AssignCourier(env.Ctx, courier1, tr.ID, courier2.UserID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = env.Transfers.AssignCourier(env.Ctx, custodianB, tr.ID, courier2.UserID)
	require.NoError(t, err)
	_, err = env.Transfers.ConfirmPickup(env.Ctx, courier1, tr.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = env.Transfers.ConfirmPickup(env.Ctx, courier2, tr.ID)
	require.NoError(t, err)
	_, err = env.Transfers.ConfirmDelivery(env.Ctx, courier2, tr.ID, true, "")
	require.NoError(t, err)
	_, err = env.Transfers.ConfirmReception(env.Ctx, courier2, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: true})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestTransicionInvalida_NoCambiaEstado(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)

	_, err = env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: true})
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, string(entity.TransferStatusPending), te.From)
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypePair))
}

func TestRetiroPropio(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	in := request(entity.UnitTypePair, 1, entity.PurposeRestock)
	in.PickupMode = entity.PickupModeSelf
	tr, err := env.Transfers.Create(env.Ctx, sellerA, in)
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)

	_, err = env.Transfers.AssignCourier(env.Ctx, courier1, tr.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	tr, err = env.Transfers.HandToRequester(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusInTransitSelf, tr.Status)
	assert.Equal(t, 1, env.Qty(apptest.LocB, entity.UnitTypePair))

	tr, err = env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: true})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, tr.Status)
	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypePair))
}

func TestRecepcion_ConDiscrepancia(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 3)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 3, entity.PurposeRestock))
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	runCourier(t, env, tr.ID, courier1)

	_, err = env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 4, ConditionOK: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	tr, err = env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 2, ConditionOK: true, Notes: "caja rota"})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Discrepancy())
	assert.Equal(t, 2, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 0, env.Qty(apptest.LocB, entity.UnitTypePair))
}

func TestRecepcion_MalEstadoNoAcredita(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 1)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	runCourier(t, env, tr.ID, courier1)

	tr, err = env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: false})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, tr.Status)
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypePair))
}

func TestEntregaFallida_Reintento(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 1)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
	require.NoError(t, err)
	_, err = env.Transfers.AssignCourier(env.Ctx, courier1, tr.ID, "")
	require.NoError(t, err)
	_, err = env.Transfers.ConfirmPickup(env.Ctx, courier1, tr.ID)
	require.NoError(t, err)

	tr, err = env.Transfers.ConfirmDelivery(env.Ctx, courier1, tr.ID, false, "local cerrado")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusDeliveryFailed, tr.Status)
	assert.Contains(t, tr.Notes, "local cerrado")

	incident, err := env.Transfers.ReportIncident(env.Ctx, courier1, tr.ID, transfer.IncidentInput{IncidentType: "delay"})
	require.NoError(t, err)
	assert.Equal(t, courier1.UserID, incident.CourierID)

	tr, err = env.Transfers.RetryDelivery(env.Ctx, courier1, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusInTransit, tr.Status)

	d, err := env.Transfers.Get(env.Ctx, sellerA, tr.ID)
	require.NoError(t, err)
	assert.Len(t, d.Incidents, 1)
	assert.Equal(t, 70, d.ProgressPct)
}

func TestCancelar_AntesDeSalir(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)

	tr, err = env.Transfers.Cancel(env.Ctx, sellerA, tr.ID, "ya no se necesita")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, tr.Status)
	assert.NotNil(t, tr.CancelledAt)

	tr2, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, tr2.ID)
	require.NoError(t, err)
	runCourier(t, env, tr2.ID, courier1)
	_, err = env.Transfers.Cancel(env.Ctx, sellerA, tr2.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestReservaCliente_Vence(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 2)
	hold, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeCustomer))
	require.NoError(t, err)
	require.NotNil(t, hold.HoldExpiresAt)
	assert.Equal(t, env.Clock.Now().Add(transfer.DefaultHoldTTL), *hold.HoldExpiresAt)

	accepted, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeCustomer))
	require.NoError(t, err)
	_, err = env.Transfers.Accept(env.Ctx, custodianB, accepted.ID)
	require.NoError(t, err)

	n, err := env.Transfers.ExpireHolds(env.Ctx, apptest.CompanyID, env.Clock.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	env.Clock.Advance(46 * time.Minute)
	env.Events.Reset()
	n, err = env.Transfers.ExpireHolds(env.Ctx, apptest.CompanyID, env.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{ports.EventHoldExpired}, env.Events.Types())

	d, err := env.Transfers.Get(env.Ctx, sellerA, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, d.Transfer.Status)
	d, err = env.Transfers.Get(env.Ctx, sellerA, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusAccepted, d.Transfer.Status)
}

func TestListados_PrioridadYVisibilidad(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocB, entity.UnitTypePair, 5)
	restock, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeRestock))
	require.NoError(t, err)
	env.Clock.Advance(time.Minute)
	customer, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypePair, 1, entity.PurposeCustomer))
	require.NoError(t, err)

	pending, err := env.Transfers.ListPendingForCustodian(env.Ctx, custodianB)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, customer.ID, pending[0].ID)
	assert.Equal(t, restock.ID, pending[1].ID)

	none, err := env.Transfers.ListPendingForCustodian(env.Ctx, apptest.Custodian("bodeguero-c", apptest.LocC))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.Transfers.Get(env.Ctx, apptest.Seller("vendedor-c", apptest.LocC), restock.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = env.Transfers.Accept(env.Ctx, custodianB, restock.ID)
	require.NoError(t, err)
	jobs, err := env.Transfers.ListAvailableForCourier(env.Ctx, courier1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, restock.ID, jobs[0].ID)

	mine, err := env.Transfers.ListMine(env.Ctx, sellerA)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, customer.ID, mine[0].ID)

	s, err := env.Transfers.Summary(env.Ctx, sellerA)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 1, s.ByStatus[entity.TransferStatusAccepted])
}

func TestRecepcion_ConcurrenteConFormacionManual(t *testing.T) {
	spot := pairing.Spot{LocationID: apptest.LocA, ProductID: apptest.ProductID, Size: apptest.Size}
	for round := 0; round < 10; round++ {
		env := apptest.New(t)
		env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 2)
		env.Seed(apptest.LocA, entity.UnitTypeRightOnly, 1)
		env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 1)
		left, right := env.Feet()

		tr, err := env.Transfers.Create(env.Ctx, sellerA, request(entity.UnitTypeRightOnly, 1, entity.PurposePairFormation))
		require.NoError(t, err)
		_, err = env.Transfers.Accept(env.Ctx, custodianB, tr.ID)
		require.NoError(t, err)
		runCourier(t, env, tr.ID, courier1)

		var g errgroup.Group
		g.Go(func() error {
			_, err := env.Transfers.ConfirmReception(env.Ctx, sellerA, tr.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: true})
			return err
		})
		g.Go(func() error {
			_, err := env.Pairing.FormAt(env.Ctx, sellerA, spot, 1)
			return err
		})
		require.NoError(t, g.Wait(), "ronda %d", round)

		assert.Equal(t, 2, env.Qty(apptest.LocA, entity.UnitTypePair))
		assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
		assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))
		l2, r2 := env.Feet()
		assert.Equal(t, left, l2)
		assert.Equal(t, right, r2)
	}
}

func TestDevolucion_AceptadaYAnulada_ReformaPares(t *testing.T) {
	cases := []struct {
		name string
		undo func(env *apptest.Env, id string) (*entity.TransferRequest, error)
		want entity.TransferStatus
	}{
		{"cancelar", func(env *apptest.Env, id string) (*entity.TransferRequest, error) {
			return env.Transfers.Cancel(env.Ctx, sellerA, id, "el cliente se quedó el par")
		}, entity.TransferStatusCancelled},
		{"rechazar", func(env *apptest.Env, id string) (*entity.TransferRequest, error) {
			return env.Transfers.Reject(env.Ctx, apptest.Admin(), id, "sin corredor disponible")
		}, entity.TransferStatusRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := apptest.New(t)
			env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 2)
			env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 2)
			orig := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 2, entity.PurposePairFormation))
			left, right := env.Feet()

			ret, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 2})
			require.NoError(t, err)
			ret, err = env.Transfers.AcceptReturn(env.Ctx, custodianB, ret.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, ret.ReversedPairs)
			assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypePair))

			ret, err = tc.undo(env, ret.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ret.Status)
			assert.Equal(t, 0, ret.ReversedPairs)

			assert.Equal(t, 2, env.Qty(apptest.LocA, entity.UnitTypePair))
			assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
			assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))
			o, err := env.Transfers.Get(env.Ctx, sellerA, orig.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, o.Transfer.AutoFormedPairLink.Reversed)
			l2, r2 := env.Feet()
			assert.Equal(t, left, l2)
			assert.Equal(t, right, r2)

			// El vínculo restaurado admite una nueva devolución completa.
			again, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 2})
			require.NoError(t, err)
			_, err = env.Transfers.AcceptReturn(env.Ctx, custodianB, again.ID)
			require.NoError(t, err)
			o, err = env.Transfers.Get(env.Ctx, sellerA, orig.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, o.Transfer.AutoFormedPairLink.Reversed)
		})
	}
}

func TestDevolucion_ParesReformadosAntesDeRecoger(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 1)
	env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 1)
	orig := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 1, entity.PurposePairFormation))

	ret, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 1})
	require.NoError(t, err)
	_, err = env.Transfers.AcceptReturn(env.Ctx, custodianB, ret.ID)
	require.NoError(t, err)

	// Alguien vuelve a formar el par en A antes de que pase el corredor.
	formed, err := env.Pairing.FormAt(env.Ctx, sellerA,
		pairing.Spot{LocationID: apptest.LocA, ProductID: apptest.ProductID, Size: apptest.Size}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, formed)

	// La recogida divide de nuevo el par para sacar el derecho.
	runCourier(t, env, ret.ID, courier2)
	ret, err = env.Transfers.ConfirmReception(env.Ctx, custodianB, ret.ID, transfer.ReceptionInput{ReceivedQuantity: 1, ConditionOK: true})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, ret.Status)
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 1, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
	assert.Equal(t, 1, env.Qty(apptest.LocB, entity.UnitTypeRightOnly))
}

func TestEscenario_TresIzquierdosMasTresDerechos(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 3)
	env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 3)

	done := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 3, entity.PurposePairFormation))

	assert.Equal(t, 3, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))
	require.NotNil(t, done.AutoFormedPairLink)
	assert.Equal(t, apptest.LocA, done.AutoFormedPairLink.LocationID)
	assert.Equal(t, 3, done.AutoFormedPairLink.Quantity)
	assert.Equal(t, 3, done.AutoFormedPairLink.Remaining())
}

func TestEscenario_VentaDeUnParBloqueaDevolucionDeTres(t *testing.T) {
	env := apptest.New(t)
	env.Seed(apptest.LocA, entity.UnitTypeLeftOnly, 3)
	env.Seed(apptest.LocB, entity.UnitTypeRightOnly, 3)
	orig := completeTransfer(t, env, request(entity.UnitTypeRightOnly, 3, entity.PurposePairFormation))

	_, err := env.Ledger.Sell(env.Ctx, sellerA, ledger.SaleInput{
		LocationID: apptest.LocA, ProductID: apptest.ProductID, Size: apptest.Size, Quantity: 1,
	})
	require.NoError(t, err)

	ret, err := env.Transfers.RequestReturn(env.Ctx, sellerA, orig.ID, transfer.ReturnInput{Quantity: 3})
	require.NoError(t, err)
	_, err = env.Transfers.AcceptReturn(env.Ctx, custodianB, ret.ID)
	var irr *domain.IrreversibleError
	require.ErrorAs(t, err, &irr)
	assert.ErrorIs(t, err, domain.ErrIrreversibleConflict)

	assert.Equal(t, 2, env.Qty(apptest.LocA, entity.UnitTypePair))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeLeftOnly))
	assert.Equal(t, 0, env.Qty(apptest.LocA, entity.UnitTypeRightOnly))
	d, err := env.Transfers.Get(env.Ctx, custodianB, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, d.Transfer.Status)
	o, err := env.Transfers.Get(env.Ctx, sellerA, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, o.Transfer.AutoFormedPairLink.Reversed)
}
