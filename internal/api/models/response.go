package models

import (
	"time"

	"silo-dispatch/internal/analysis"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/simulate"
)

// SimulationResponse represents the response from a simulation run
type SimulationResponse struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Summary     analysis.Summary      `json:"summary"`
	Days        []model.DeliveryDay   `json:"days"`
	Corrections []simulate.Correction `json:"corrections,omitempty"`
	StockLog    []model.StockLogEntry `json:"stock_log,omitempty"`
	Ledger      []LedgerRow           `json:"ledger,omitempty"`
}

// LedgerRow represents one day in the schedule ledger
type LedgerRow struct {
	Index           int       `json:"index"`
	Date            time.Time `json:"date"`
	MorningStock    float64   `json:"morning_stock"`
	EveningStock    float64   `json:"evening_stock"`
	MorningState    string    `json:"morning_state"`
	EveningState    string    `json:"evening_state"`
	DeliveryCount   int       `json:"delivery_count"`
	DeliveryTimes   string    `json:"delivery_times"`
	DeliveryAmount  float64   `json:"delivery_amount"`
	DeliveredLevel  float64   `json:"delivered_level"`
	NightDeliveries float64   `json:"night_deliveries"`
	CumDeliveries   int       `json:"cum_deliveries"`
}

// StockLogResponse is the hourly stock of a cached simulation
type StockLogResponse struct {
	ID         string                `json:"id"`
	ProductKey string                `json:"product_key"`
	Count      int                   `json:"count"`
	Entries    []model.StockLogEntry `json:"entries"`
}

// RecalculateResponse represents the outcome of one edit
type RecalculateResponse struct {
	Days         []model.DeliveryDay   `json:"days"`
	StockLog     []model.StockLogEntry `json:"stock_log,omitempty"`
	Delta        float64               `json:"delta"`
	CascadedDays int                   `json:"cascaded_days"`
}

// PlanResponse lists products most at risk first
type PlanResponse struct {
	Plans []PlanEntry `json:"plans"`
}

// PlanEntry is one ranked product
type PlanEntry struct {
	Rank    int              `json:"rank"`
	RunID   string           `json:"run_id"`
	Summary analysis.Summary `json:"summary"`
}

// ProductInfo represents one catalog product
type ProductInfo struct {
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	MinLevel       float64 `json:"min_level"`
	MaxLevel       float64 `json:"max_level"`
	DeliveryAmount float64 `json:"delivery_amount"`
	ConversionRate float64 `json:"conversion_rate,omitempty"`
	Unit           string  `json:"unit,omitempty"`
}

// ScheduleKey identifies a stored schedule
type ScheduleKey struct {
	Facility string `json:"facility"`
	Product  string `json:"product"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
