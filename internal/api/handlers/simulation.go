package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"silo-dispatch/internal/analysis"
	"silo-dispatch/internal/api/models"
	"silo-dispatch/internal/data"
	"silo-dispatch/internal/recalc"
	"silo-dispatch/internal/service"
	"silo-dispatch/internal/simulate"
)

// SimulationHandler handles simulation and recalculation requests
type SimulationHandler struct {
	planner *service.Planner
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(p *service.Planner) *SimulationHandler {
	return &SimulationHandler{planner: p}
}

// Simulate handles POST /api/v1/simulate
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	start, end, err := parseHorizon(req.Horizon)
	if err != nil {
		badRequest(c, "INVALID_DATE", err.Error())
		return
	}

	run, err := h.planner.SimulateProduct(c.Request.Context(), service.ProductRequest{
		Facility:     req.Facility,
		ProductKey:   req.ProductKey,
		Start:        start,
		End:          end,
		CurrentStock: req.CurrentStock,
		Override:     req.Override,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildResponse(run, req.Options))
}

// GetStockLog handles GET /api/v1/simulations/:id/stocklog
// With ?format=csv the log is returned as CSV.
func (h *SimulationHandler) GetStockLog(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		if err := simulate.EncodeStockLogCSV(c.Writer, run.Settings, run.Result.StockLog); err != nil {
			writeError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, models.StockLogResponse{
		ID:         run.ID.String(),
		ProductKey: run.Settings.ProductKey,
		Count:      len(run.Result.StockLog),
		Entries:    run.Result.StockLog,
	})
}

// GetLedger handles GET /api/v1/simulations/:id/ledger
func (h *SimulationHandler) GetLedger(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	ledger := simulate.Ledger(run.Settings, run.Result.Days)
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		if err := simulate.EncodeLedgerCSV(c.Writer, ledger); err != nil {
			writeError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": run.ID.String(), "ledger": convertLedger(ledger)})
}

func (h *SimulationHandler) lookup(c *gin.Context) (data.Run, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "id must be a UUID")
		return data.Run{}, false
	}
	run, err := h.planner.Run(id)
	if err != nil {
		writeError(c, err)
		return data.Run{}, false
	}
	return run, true
}

// Recalculate handles POST /api/v1/recalculate
func (h *SimulationHandler) Recalculate(c *gin.Context) {
	var req models.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	res, err := h.planner.Recalculate(req.Settings, req.Days, req.Edit, recalc.Options{RegenerateLog: req.RegenerateLog})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recalcResponse(res))
}

// Plan handles POST /api/v1/plan
func (h *SimulationHandler) Plan(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	start, end, err := parseHorizon(req.Horizon)
	if err != nil {
		badRequest(c, "INVALID_DATE", err.Error())
		return
	}

	reqs := make([]service.ProductRequest, len(req.Products))
	for i, p := range req.Products {
		reqs[i] = service.ProductRequest{
			Facility:     req.Facility,
			ProductKey:   p.ProductKey,
			Start:        start,
			End:          end,
			CurrentStock: p.CurrentStock,
			Override:     p.Override,
		}
	}
	planned, err := h.planner.PlanAll(c.Request.Context(), reqs)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := models.PlanResponse{Plans: make([]models.PlanEntry, len(planned))}
	for i, p := range planned {
		resp.Plans[i] = models.PlanEntry{Rank: i + 1, RunID: p.RunID.String(), Summary: p.Summary}
	}
	c.JSON(http.StatusOK, resp)
}

func buildResponse(run data.Run, opts models.SimulateOptions) models.SimulationResponse {
	res := run.Result
	resp := models.SimulationResponse{
		ID:          run.ID.String(),
		Status:      "completed",
		Summary:     analysis.Summarize(run.Settings, res.Days, res.StockLog),
		Days:        res.Days,
		Corrections: res.Corrections,
	}
	if opts.IncludeStockLog {
		resp.StockLog = res.StockLog
	}
	if opts.IncludeLedger {
		resp.Ledger = convertLedger(simulate.Ledger(run.Settings, res.Days))
	}
	return resp
}

func recalcResponse(res *recalc.Result) models.RecalculateResponse {
	return models.RecalculateResponse{
		Days:         res.Days,
		StockLog:     res.StockLog,
		Delta:        float64(res.Delta),
		CascadedDays: res.CascadedDays,
	}
}

func convertLedger(ledger []simulate.LedgerRow) []models.LedgerRow {
	result := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		result[i] = models.LedgerRow{
			Index:           row.Index,
			Date:            row.Date,
			MorningStock:    float64(row.MorningStock),
			EveningStock:    float64(row.EveningStock),
			MorningState:    string(row.MorningState),
			EveningState:    string(row.EveningState),
			DeliveryCount:   row.DeliveryCount,
			DeliveryTimes:   row.DeliveryTimes,
			DeliveryAmount:  float64(row.DeliveryAmount),
			DeliveredLevel:  float64(row.DeliveredLevel),
			NightDeliveries: float64(row.NightDeliveries),
			CumDeliveries:   row.CumDeliveries,
		}
	}
	return result
}
