package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"silo-dispatch/internal/model"
)

// Summary is a schedule-level overview used for reporting and ranking.
type Summary struct {
	ProductKey string    `json:"product_key"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Days       int       `json:"days"`
	Hours      int       `json:"hours"`

	MinStock  model.Level `json:"min_stock"`
	MaxStock  model.Level `json:"max_stock"`
	MeanStock model.Level `json:"mean_stock"`
	P05Stock  model.Level `json:"p05_stock"`
	P95Stock  model.Level `json:"p95_stock"`

	HoursLow  int `json:"hours_low"`
	HoursHigh int `json:"hours_high"`
	// Deficit is the area below MinLevel in level-hours.
	Deficit model.Level `json:"deficit"`

	Deliveries     int         `json:"deliveries"`
	DeliveredMass  model.Mass  `json:"delivered_mass"`
	DeliveredLevel model.Level `json:"delivered_level"`
}

func Summarize(s model.Settings, days []model.DeliveryDay, log []model.StockLogEntry) Summary {
	out := Summary{ProductKey: s.ProductKey, Days: len(days), Hours: len(log)}
	if len(days) > 0 {
		out.Start = days[0].Date
		out.End = days[len(days)-1].Date
	}

	f := s.Factor()
	for _, d := range days {
		amt := d.Amount(s.DeliveryAmount)
		out.Deliveries += d.DeliveryCount
		out.DeliveredMass += model.Mass(d.DeliveryCount) * amt
		out.DeliveredLevel += model.Level(d.DeliveryCount) * f.ToLevel(amt)
	}

	if len(log) == 0 {
		return out
	}
	vals := make([]float64, len(log))
	for i, e := range log {
		vals[i] = float64(e.Stock)
		switch model.Classify(e.Stock, s.MinLevel, s.MaxLevel) {
		case model.StatusLow:
			out.HoursLow++
			out.Deficit += s.MinLevel - e.Stock
		case model.StatusHigh:
			out.HoursHigh++
		}
	}
	out.MinStock = model.Level(floats.Min(vals))
	out.MaxStock = model.Level(floats.Max(vals))
	out.MeanStock = model.Level(stat.Mean(vals, nil))

	sort.Float64s(vals)
	out.P05Stock = model.Level(stat.Quantile(0.05, stat.Empirical, vals, nil))
	out.P95Stock = model.Level(stat.Quantile(0.95, stat.Empirical, vals, nil))
	return out
}
