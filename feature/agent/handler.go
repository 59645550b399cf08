package agent

import (
	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusResponse is the body of GET /agent/status.
type StatusResponse struct {
	Running bool    `json:"running"`
	Last    *Report `json:"last,omitempty"`
}

// Handler handles HTTP requests for the agent.
type Handler struct {
	driver *Driver
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(driver *Driver, logger *zap.Logger) *Handler {
	return &Handler{driver: driver, logger: logger}
}

// RegisterRoutes registers the agent routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/agent")
	group.Get("/status", h.HandleStatus)
	group.Post("/run", h.HandleRun)
	group.Get("/inventory", h.HandleInventory)
}

// HandleStatus returns the last run report.
// @Summary Agent Status
// @Description Reports whether a run is in progress and returns the report of the last finished run.
// @Tags agent
// @Produce json
// @Success 200 {object} agent.StatusResponse "Status"
// @Router /agent/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{Running: h.driver.Running(), Last: h.driver.Last()})
}

// HandleRun triggers a reconciliation run and waits for it.
// @Summary Run Reconciliation
// @Description Collects local facts, compares them with the remote inventory and applies the difference. Failed runs are reported in the body with status Failed.
// @Tags agent
// @Produce json
// @Success 200 {object} agent.Report "Run Report"
// @Failure 409 {object} map[string]string "Run already in progress"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /agent/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	l.Info("Triggering reconciliation run")

	report, err := h.driver.Run(c.UserContext())
	if agenterrors.IsKind(err, agenterrors.KindRunInProgress) {
		l.Warn("Run rejected", zap.Error(err))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Run failed to start", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Reconciliation run completed",
		zap.String("run_id", report.RunID),
		zap.String("status", string(report.Status)))
	return c.JSON(report)
}

// HandleInventory returns the normalized local inventory.
// @Summary Local Inventory
// @Description Runs every enabled tool and returns the merged device without contacting the remote inventory.
// @Tags agent
// @Produce json
// @Success 200 {object} agent.Inventory "Inventory"
// @Failure 422 {object} map[string]interface{} "Identity could not be resolved"
// @Router /agent/inventory [get]
func (h *Handler) HandleInventory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	inv, err := h.driver.Inventory(c.UserContext())
	if err != nil {
		l.Warn("Inventory incomplete", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     err.Error(),
			"inventory": inv,
		})
	}
	return c.JSON(inv)
}
