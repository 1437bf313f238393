package simulate

import (
	"strings"
	"time"

	"silo-dispatch/internal/model"
)

// Correction records one look-ahead intervention. Hour is nil when no slot
// was free.
type Correction struct {
	Date      time.Time   `json:"date"`
	Hour      *model.Hour `json:"hour,omitempty"`
	Projected model.Level `json:"projected_morning"`
	Evening   model.Level `json:"evening_stock,omitempty"`
}

type Result struct {
	Days        []model.DeliveryDay
	StockLog    []model.StockLogEntry
	Deliveries  int
	Corrections []Correction
}

// LedgerRow is one day of the schedule flattened for tabular output.
type LedgerRow struct {
	Index int

	Date time.Time

	MorningStock model.Level
	EveningStock model.Level
	MorningState model.StockStatus
	EveningState model.StockStatus

	DeliveryCount   int
	DeliveryTimes   string
	DeliveryAmount  model.Mass
	DeliveredLevel  model.Level
	NightDeliveries model.Level

	// CumDeliveries is the running delivery count since day 0.
	CumDeliveries int
}

// Ledger flattens a schedule into one row per day.
func Ledger(s model.Settings, days []model.DeliveryDay) []LedgerRow {
	rows := make([]LedgerRow, 0, len(days))
	f := s.Factor()
	cum := 0
	for i, d := range days {
		amt := d.Amount(s.DeliveryAmount)
		cum += d.DeliveryCount

		times := make([]string, len(d.DeliveryTimes))
		for j, h := range d.DeliveryTimes {
			times[j] = h.String()
		}

		rows = append(rows, LedgerRow{
			Index:           i,
			Date:            d.Date,
			MorningStock:    d.MorningStock,
			EveningStock:    d.EveningStock,
			MorningState:    model.Classify(d.MorningStock, s.MinLevel, s.MaxLevel),
			EveningState:    model.Classify(d.EveningStock, s.MinLevel, s.MaxLevel),
			DeliveryCount:   d.DeliveryCount,
			DeliveryTimes:   strings.Join(times, " "),
			DeliveryAmount:  amt,
			DeliveredLevel:  model.Level(d.DeliveryCount) * f.ToLevel(amt),
			NightDeliveries: d.NightDeliveries,
			CumDeliveries:   cum,
		})
	}
	return rows
}
