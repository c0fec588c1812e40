package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/application/sales"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Processor    *stock.MovementProcessor
	Availability *stock.AvailabilityChecker
	Auditor      *stock.LedgerAuditor
	Cycles       *inventory.CycleUseCase
	Reports      *inventory.ReportUseCase
	Checkout     *sales.CheckoutUseCase
	Reception    *purchasing.ReceptionUseCase
	JWTSecret    string
	Log          zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	const (
		admin     = jwt.RoleAdmin
		bodeguero = jwt.RoleBodeguero
		vendedor  = jwt.RoleVendedor
	)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Stock
	stockHandler := NewStockHandler(deps.Processor, deps.Availability, deps.Auditor, deps.Log)
	st := api.Group("/stock")
	st.Post("/movements", RequireRole(admin, bodeguero), stockHandler.RecordMovement)
	st.Get("/movements", RequireRole(admin, bodeguero, vendedor), stockHandler.ListMovements)
	st.Post("/transfers", RequireRole(admin, bodeguero), stockHandler.Transfer)
	st.Post("/availability", RequireRole(admin, bodeguero, vendedor), stockHandler.CheckAvailability)
	st.Get("/alerts", RequireRole(admin, bodeguero, vendedor), stockHandler.ListAlerts)
	st.Get("/ledger-check", RequireRole(admin), stockHandler.LedgerCheck)

	// Ciclos de inventario
	invHandler := NewInventoryHandler(deps.Cycles, deps.Reports, deps.Log)
	cycles := api.Group("/inventory/cycles")
	cycles.Post("/", RequireRole(admin, bodeguero), invHandler.Create)
	cycles.Get("/", RequireRole(admin, bodeguero), invHandler.List)
	cycles.Get("/:id", RequireRole(admin, bodeguero), invHandler.Get)
	cycles.Delete("/:id", RequireRole(admin, bodeguero), invHandler.Delete)
	cycles.Post("/:id/start", RequireRole(admin, bodeguero), invHandler.Start)
	cycles.Put("/:id/lines/:lineId/count", RequireRole(admin, bodeguero), invHandler.RecordCount)
	cycles.Post("/:id/finalize", RequireRole(admin, bodeguero), invHandler.Finalize)
	cycles.Post("/:id/validate", RequireRole(admin), invHandler.Validate)
	cycles.Get("/:id/stats", RequireRole(admin, bodeguero), invHandler.Stats)
	cycles.Get("/:id/report.pdf", RequireRole(admin, bodeguero), invHandler.Report)

	// Caja
	salesHandler := NewSalesHandler(deps.Checkout, deps.Log)
	sl := api.Group("/sales")
	sl.Post("/checkout", RequireRole(admin, vendedor), salesHandler.Checkout)
	sl.Post("/:id/returns", RequireRole(admin, vendedor), salesHandler.Return)

	// Compras
	purchaseHandler := NewPurchaseHandler(deps.Reception, deps.Log)
	pu := api.Group("/purchases")
	pu.Post("/:id/receive", RequireRole(admin, bodeguero), purchaseHandler.Receive)
	pu.Post("/:id/cancel", RequireRole(admin), purchaseHandler.Cancel)
}
