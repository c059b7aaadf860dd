package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/catalog"
	"github.com/jhoicas/Inventario-pares/internal/application/intake"
	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/transfer"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LocationUC *catalog.LocationUseCase
	ProductUC  *catalog.ProductUseCase
	Ledger     *ledger.Ledger
	Pairing    *pairing.Engine
	Transfers  *transfer.Engine
	IntakeUC   *intake.UseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token; la identidad la emite el servicio de autenticación.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.LocationUC)

	// Locations
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", RequireRole(entity.RoleAdmin), locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Get("/:id/inventory", RequireManagedLocation("id", deps.LocationUC), inventoryHandler.LocationInventory)
	locations.Patch("/:id/active", RequireRole(entity.RoleAdmin), locationHandler.SetActive)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(entity.RoleAdmin, entity.RoleCustodian), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Inventory
	inv := protected.Group("/inventory")
	inv.Post("/stock", RequireRole(entity.RoleAdmin, entity.RoleCustodian), inventoryHandler.RegisterStock)
	inv.Post("/adjustments", RequireRole(entity.RoleAdmin, entity.RoleCustodian), inventoryHandler.Adjust)
	inv.Post("/sales", inventoryHandler.Sell)
	inv.Put("/display", inventoryHandler.SetDisplay)
	inv.Get("/availability", inventoryHandler.Availability)
	inv.Get("/distribution", inventoryHandler.Distribution)
	inv.Get("/history", inventoryHandler.History)

	// Intake
	intakeHandler := NewIntakeHandler(deps.IntakeUC)
	protected.Post("/intake", RequireRole(entity.RoleAdmin, entity.RoleCustodian), intakeHandler.Register)

	// Pairing
	pairingGroup := protected.Group("/pairing")
	pairingHandler := NewPairingHandler(deps.Pairing)
	pairingGroup.Post("/form", pairingHandler.Form)
	pairingGroup.Post("/split", pairingHandler.Split)
	pairingGroup.Get("/opportunities", pairingHandler.Opportunities)

	// Transfers
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.ListMine)
	transfers.Get("/summary", transferHandler.Summary)
	transfers.Get("/pending", RequireRole(entity.RoleAdmin, entity.RoleCustodian), transferHandler.Pending)
	transfers.Get("/available", RequireRole(entity.RoleAdmin, entity.RoleCourier), transferHandler.Available)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/accept", transferHandler.Accept)
	transfers.Post("/:id/reject", transferHandler.Reject)
	transfers.Post("/:id/cancel", transferHandler.Cancel)
	transfers.Post("/:id/hand-to-requester", transferHandler.HandToRequester)
	transfers.Post("/:id/courier", transferHandler.AssignCourier)
	transfers.Post("/:id/pickup", transferHandler.ConfirmPickup)
	transfers.Post("/:id/delivery", transferHandler.ConfirmDelivery)
	transfers.Post("/:id/retry", transferHandler.RetryDelivery)
	transfers.Post("/:id/reception", transferHandler.ConfirmReception)
	transfers.Post("/:id/incidents", transferHandler.ReportIncident)
	transfers.Post("/:id/returns", transferHandler.RequestReturn)
	transfers.Post("/:id/accept-return", transferHandler.AcceptReturn)
}
