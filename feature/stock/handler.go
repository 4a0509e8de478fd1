package stock

import (
	"errors"

	"stocksync/core/logger"
	"stocksync/core/reconcile"
	"stocksync/feature/stock/ledger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the stock feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the stock routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/stock")
	group.Post("/reconcile", h.HandleRunBatch)
	group.Get("/batches", h.HandleListBatches)
	group.Get("/batches/:id", h.HandleGetBatch)
	group.Get("/outcomes", h.HandleListOutcomes)
	group.Get("/circuits", h.HandleCircuitStates)
}

// HandleRunBatch runs one reconciliation batch synchronously and returns the
// finished batch record.
func (h *Handler) HandleRunBatch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	batch, err := h.service.RunBatch(c.Context())
	if errors.Is(err, reconcile.ErrBatchInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Reconciliation batch failed", zap.Error(err))
		status := fiber.StatusBadGateway
		body := fiber.Map{"error": err.Error()}
		if batch != nil {
			body["batch"] = batch
		}
		return c.Status(status).JSON(body)
	}

	return c.JSON(batch)
}

// HandleListBatches returns recent batches, newest first.
func (h *Handler) HandleListBatches(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	batches, err := h.service.ListBatches(c.Context(), c.QueryInt("limit"))
	if err != nil {
		l.Error("Batch listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"batches": batches})
}

// HandleGetBatch returns one batch by ID.
func (h *Handler) HandleGetBatch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	batch, err := h.service.GetBatch(c.Context(), c.Params("id"))
	if err != nil {
		l.Error("Batch lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if batch == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "batch not found",
		})
	}
	return c.JSON(batch)
}

// HandleListOutcomes returns authoritative stock rows, filterable by status
// and warehouse.
func (h *Handler) HandleListOutcomes(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	outcomes, err := h.service.ListOutcomes(c.Context(), ledger.OutcomeQuery{
		Status:    c.Query("status"),
		Warehouse: c.Query("warehouse"),
		Limit:     c.QueryInt("limit"),
	})
	if err != nil {
		l.Error("Outcome listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"outcomes": outcomes})
}

// HandleCircuitStates returns the circuit breaker state per source.
func (h *Handler) HandleCircuitStates(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	states, err := h.service.CircuitStates(c.Context())
	if err != nil {
		l.Error("Circuit state listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"circuits": states})
}
