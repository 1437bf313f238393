package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"silo-dispatch/internal/api/models"
	"silo-dispatch/internal/recalc"
	"silo-dispatch/internal/service"
)

// ScheduleHandler handles stored facility schedules
type ScheduleHandler struct {
	planner *service.Planner
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(p *service.Planner) *ScheduleHandler {
	return &ScheduleHandler{planner: p}
}

// ListSchedules handles GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	keys, err := h.planner.Schedules(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.ScheduleKey, len(keys))
	for i, k := range keys {
		out[i] = models.ScheduleKey{Facility: k.Facility, Product: k.Product}
	}
	c.JSON(http.StatusOK, gin.H{"schedules": out})
}

// GetSchedule handles GET /api/v1/schedules/:facility/:product
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	sc, err := h.planner.Schedule(c.Request.Context(), c.Param("facility"), c.Param("product"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// CreateSchedule handles POST /api/v1/schedules/:facility/:product
// It simulates the catalog product and stores the result, replacing any
// earlier schedule.
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	start, end, err := parseHorizon(req.Horizon)
	if err != nil {
		badRequest(c, "INVALID_DATE", err.Error())
		return
	}
	facility := c.Param("facility")
	if !h.planner.Persistent() {
		writeError(c, service.ErrNoStore)
		return
	}

	run, err := h.planner.SimulateProduct(c.Request.Context(), service.ProductRequest{
		Facility:     facility,
		ProductKey:   c.Param("product"),
		Start:        start,
		End:          end,
		CurrentStock: req.CurrentStock,
		Override:     req.Override,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildResponse(run, models.SimulateOptions{}))
}

// DeleteSchedule handles DELETE /api/v1/schedules/:facility/:product
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	if err := h.planner.DeleteSchedule(c.Request.Context(), c.Param("facility"), c.Param("product")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyEdit handles POST /api/v1/schedules/:facility/:product/edits
func (h *ScheduleHandler) ApplyEdit(c *gin.Context) {
	var edit recalc.Edit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	res, err := h.planner.Edit(c.Request.Context(), c.Param("facility"), c.Param("product"), edit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recalcResponse(res))
}

// MarkUnresolved handles POST /api/v1/schedules/:facility/:product/unresolved
func (h *ScheduleHandler) MarkUnresolved(c *gin.Context) {
	var req models.UnresolvedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	day, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		badRequest(c, "INVALID_DATE", "date must be in YYYY-MM-DD format")
		return
	}
	if err := h.planner.MarkUnresolved(c.Request.Context(), c.Param("facility"), c.Param("product"), day); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reconcile handles POST /api/v1/schedules/:facility/:product/reconcile
func (h *ScheduleHandler) Reconcile(c *gin.Context) {
	res, err := h.planner.Reconcile(c.Request.Context(), c.Param("facility"), c.Param("product"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recalcResponse(res))
}
