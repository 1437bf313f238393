package models

import (
	"silo-dispatch/internal/config"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/recalc"
)

// SimulateRequest represents the request body for simulating one catalog product
type SimulateRequest struct {
	Facility     string               `json:"facility,omitempty"` // persist the schedule under this facility
	ProductKey   string               `json:"product_key" binding:"required"`
	Horizon      Horizon              `json:"horizon"`
	CurrentStock model.Level          `json:"current_stock"`
	Override     config.ProductConfig `json:"override"`
	Options      SimulateOptions      `json:"options"`
}

// Horizon is an inclusive date range
type Horizon struct {
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Timezone  string `json:"timezone,omitempty"`             // IANA name, default: UTC
}

// SimulateOptions contains optional simulation parameters
type SimulateOptions struct {
	IncludeStockLog bool `json:"include_stock_log,omitempty"`
	IncludeLedger   bool `json:"include_ledger,omitempty"`
}

// RecalculateRequest carries a caller-held schedule and one edit to apply to it
type RecalculateRequest struct {
	Settings      model.Settings      `json:"settings"`
	Days          []model.DeliveryDay `json:"days" binding:"required"`
	Edit          recalc.Edit         `json:"edit"`
	RegenerateLog bool                `json:"regenerate_log,omitempty"`
}

// PlanRequest asks for a risk-ranked plan over several products
type PlanRequest struct {
	Facility string        `json:"facility,omitempty"`
	Horizon  Horizon       `json:"horizon"`
	Products []PlanProduct `json:"products" binding:"required,min=1,dive"`
}

// PlanProduct is one product inside a plan request
type PlanProduct struct {
	ProductKey   string               `json:"product_key" binding:"required"`
	CurrentStock model.Level          `json:"current_stock"`
	Override     config.ProductConfig `json:"override"`
}

// ScheduleRequest simulates and stores the schedule of one facility product
type ScheduleRequest struct {
	Horizon      Horizon              `json:"horizon"`
	CurrentStock model.Level          `json:"current_stock"`
	Override     config.ProductConfig `json:"override"`
}

// UnresolvedRequest flags a stored day as changed outside the engines
type UnresolvedRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
}
