package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/service"
)

const defaultReportLimit = 50

// Services bundles the application services the handlers call
type Services struct {
	Inventory *service.InventoryService
	Community *service.CommunityService
	Suppliers *service.SupplierService
	Regions   *service.RegionService
	Analysis  *service.AnalysisService
	Dashboard *service.DashboardService
}

// HealthChecker reports backend connectivity
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	svc    Services
	health HealthChecker
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewHandler creates a new handler
func NewHandler(svc Services, health HealthChecker, log logrus.FieldLogger) *Handler {
	return &Handler{
		svc:    svc,
		health: health,
		log:    log,
		now:    time.Now,
	}
}

// medicineView adds the derived stock and expiry status to a medicine
type medicineView struct {
	domain.Medicine
	StockStatus  domain.StockStatus  `json:"stockStatus"`
	ExpiryStatus domain.ExpiryStatus `json:"expiryStatus"`
}

func (h *Handler) view(m domain.Medicine) medicineView {
	return medicineView{
		Medicine:     m,
		StockStatus:  m.StockStatus(),
		ExpiryStatus: m.ExpiryStatusAt(h.now()),
	}
}

// stockUpdateRequest carries either an absolute stock level or a delta
type stockUpdateRequest struct {
	Stock *int `json:"stock"`
	Delta *int `json:"delta"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if h.health != nil {
		if err := h.health.Health(c.UserContext()); err != nil {
			h.log.WithError(err).Warn("store health check failed")
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"service": "medsupply-backend",
		"version": "1.0.0",
	})
}

// ListMedicines returns the inventory with derived statuses
func (h *Handler) ListMedicines(c *fiber.Ctx) error {
	medicines, err := h.svc.Inventory.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	views := make([]medicineView, 0, len(medicines))
	for _, m := range medicines {
		views = append(views, h.view(m))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    views,
		"count":   len(views),
	})
}

// GetMedicine returns one medicine with derived statuses
func (h *Handler) GetMedicine(c *fiber.Ctx) error {
	m, err := h.svc.Inventory.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.view(m),
	})
}

// AddMedicine registers a new medicine
func (h *Handler) AddMedicine(c *fiber.Ctx) error {
	var req service.NewMedicineInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	m, err := h.svc.Inventory.AddMedicine(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    h.view(m),
	})
}

// UpdateStock sets or adjusts a medicine's stock level
func (h *Handler) UpdateStock(c *fiber.Ctx) error {
	var req stockUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if (req.Stock == nil) == (req.Delta == nil) {
		return fiber.NewError(fiber.StatusBadRequest, "Provide exactly one of stock or delta")
	}

	var (
		m   domain.Medicine
		err error
	)
	if req.Stock != nil {
		m, err = h.svc.Inventory.UpdateStock(c.UserContext(), c.Params("id"), *req.Stock)
	} else {
		m, err = h.svc.Inventory.AdjustStock(c.UserContext(), c.Params("id"), *req.Delta)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.view(m),
	})
}

// ListAreas returns the area hierarchy
func (h *Handler) ListAreas(c *fiber.Ctx) error {
	areas, err := h.svc.Community.Areas(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    areas,
	})
}

// ListReports returns the most recent symptom reports
func (h *Handler) ListReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultReportLimit)
	if limit < 1 || limit > 1000 {
		limit = defaultReportLimit
	}

	reports, err := h.svc.Community.RecentReports(c.UserContext(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    reports,
		"count":   len(reports),
	})
}

// SubmitReport accepts an anonymous symptom report
func (h *Handler) SubmitReport(c *fiber.Ctx) error {
	var req service.NewReportInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.svc.Community.SubmitReport(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}

// ListSuppliers returns all suppliers
func (h *Handler) ListSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.svc.Suppliers.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    suppliers,
	})
}

// UpdateSupplierCapacity sets a supplier's capacity for one medicine
func (h *Handler) UpdateSupplierCapacity(c *fiber.Ctx) error {
	var req service.CapacityInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sup, err := h.svc.Suppliers.UpdateCapacity(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    sup,
	})
}

// RunAnalysis runs a new analysis for the requested incident type
func (h *Handler) RunAnalysis(c *fiber.Ctx) error {
	incident, err := domain.ParseIncidentType(c.Query("incident"))
	if err != nil {
		return h.fail(c, err)
	}

	analysis, err := h.svc.Analysis.Run(c.UserContext(), incident)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    analysis,
	})
}

// LatestAnalysis returns the most recent published analysis
func (h *Handler) LatestAnalysis(c *fiber.Ctx) error {
	analysis, ok := h.svc.Analysis.Latest()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "No analysis has been run yet")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    analysis,
	})
}

// GetRegionalRisk returns the per-area risk view
func (h *Handler) GetRegionalRisk(c *fiber.Ctx) error {
	stats, err := h.svc.Regions.RegionalRisk(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// GetForecasts returns the local hierarchical demand forecast
func (h *Handler) GetForecasts(c *fiber.Ctx) error {
	forecasts, err := h.svc.Regions.Forecasts(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    forecasts,
	})
}

// GetDashboard returns aggregated dashboard data
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	data, err := h.svc.Dashboard.GetDashboardData(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch dashboard data")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fail maps service errors onto HTTP responses
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Validation failed",
			"fields":  verr.Fields,
		})
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrRunSuperseded):
		return fiber.NewError(fiber.StatusConflict, "Analysis superseded by a newer request")
	default:
		h.log.WithError(err).WithField("path", c.Path()).Error("request failed")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
	}
}
