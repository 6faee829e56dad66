package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp creates the fiber app. Immutable keeps request strings valid after
// the handler returns, since reports and analyses retain them.
func NewApp(writeTimeout time.Duration) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "MedSupply API v1.0",
		Immutable:    true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		ErrorHandler: ErrorHandler,
	})
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Inventory
		api.Get("/medicines", handler.ListMedicines)
		api.Get("/medicines/:id", handler.GetMedicine)
		api.Post("/medicines", handler.AddMedicine)
		api.Put("/medicines/:id/stock", handler.UpdateStock)

		// Community signals
		api.Get("/areas", handler.ListAreas)
		api.Get("/reports", handler.ListReports)
		api.Post("/reports", handler.SubmitReport)

		// Suppliers
		api.Get("/suppliers", handler.ListSuppliers)
		api.Put("/suppliers/:id/capacity", handler.UpdateSupplierCapacity)

		// Analysis and views
		api.Post("/analysis", handler.RunAnalysis)
		api.Get("/analysis/latest", handler.LatestAnalysis)
		api.Get("/regions/risk", handler.GetRegionalRisk)
		api.Get("/forecasts", handler.GetForecasts)
		api.Get("/dashboard", handler.GetDashboard)
	}
}

// ErrorHandler renders errors as the JSON error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
