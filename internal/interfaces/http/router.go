package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/forecasting"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/monitor"
	"github.com/jhoicas/stock-ledger/internal/application/registry"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry    *registry.UseCase
	Ledger      *ledger.UseCase
	Monitor     *monitor.UseCase
	Forecasting *forecasting.UseCase
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	catalog := RequireRole(jwt.RoleAdmin, jwt.RoleManager)
	stock := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleInventory)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleInventory, jwt.RoleViewer)

	// Items
	itemHandler := NewItemHandler(deps.Registry, log)
	items := api.Group("/items")
	items.Post("/", catalog, itemHandler.Create)
	items.Get("/", anyRole, itemHandler.List)
	items.Get("/:id", anyRole, itemHandler.GetByID)
	items.Put("/:id", catalog, itemHandler.Update)
	items.Post("/:id/deactivate", catalog, itemHandler.Deactivate)
	items.Post("/:id/reactivate", catalog, itemHandler.Reactivate)
	items.Delete("/:id", RequireRole(jwt.RoleAdmin), itemHandler.Delete)

	// Ledger
	movementHandler := NewMovementHandler(deps.Ledger, log)
	items.Post("/:id/movements", stock, movementHandler.Apply)
	items.Get("/:id/movements", anyRole, movementHandler.List)
	items.Get("/:id/quantity", anyRole, movementHandler.Quantity)

	// Monitor
	alertHandler := NewAlertHandler(deps.Monitor, deps.Registry, log)
	items.Get("/:id/status", anyRole, alertHandler.Status)
	alerts := api.Group("/alerts")
	alerts.Get("/", anyRole, alertHandler.List)
	alerts.Post("/:id/resolve", stock, alertHandler.Resolve)

	// Forecasting
	forecastHandler := NewForecastHandler(deps.Forecasting, log)
	items.Get("/:id/forecast", anyRole, forecastHandler.Forecast)
	items.Get("/:id/trend", anyRole, forecastHandler.Trend)
	items.Get("/:id/stock-levels", anyRole, forecastHandler.StockLevels)
	forecast := api.Group("/forecast")
	forecast.Get("/reorder-candidates", catalog, forecastHandler.ReorderCandidates)
	forecast.Get("/reorder-candidates.pdf", catalog, forecastHandler.ReorderCandidatesPDF)

	// Reports
	reports := api.Group("/reports", catalog)
	reports.Get("/valuation", itemHandler.Valuation)
	reports.Get("/movements", movementHandler.Report)
}
