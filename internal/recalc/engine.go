// Package recalc re-derives a manually edited schedule day and cascades the
// change in carried stock to every later day.
package recalc

import (
	"fmt"

	"silo-dispatch/internal/daystock"
	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/simulate"
)

type Options struct {
	// RegenerateLog rebuilds the full hourly stock log from the new schedule.
	RegenerateLog bool
}

type Result struct {
	Days     []model.DeliveryDay
	StockLog []model.StockLogEntry
	// Delta is the change in stock carried out of the edited day.
	Delta model.Level
	// CascadedDays counts the later days shifted by Delta.
	CascadedDays int
}

type Engine struct {
	log logger.Logger
}

// New returns an engine. A nil logger discards output.
func New(log logger.Logger) *Engine { return &Engine{log: logger.OrNop(log)} }

// Apply returns a new schedule with edit applied. days is never modified:
// days before the edit are shared, the edited and later days are copies.
func (e *Engine) Apply(s model.Settings, days []model.DeliveryDay, edit Edit, opts Options) (*Result, error) {
	if err := validate(s, days); err != nil {
		e.log.Debugf("recalculation rejected: %v", err)
		return nil, err
	}
	if err := edit.validate(days); err != nil {
		e.log.Debugf("recalculation rejected: %v", err)
		return nil, err
	}
	for j := 0; j < edit.Day; j++ {
		if days[j].Unresolved {
			return nil, fmt.Errorf("%w: day %d (%s) must be resolved before editing day %d",
				model.ErrEditOrdering, j, days[j].Date.Format("2006-01-02"), edit.Day)
		}
	}

	res, err := e.apply(s, days, edit)
	if err != nil {
		return nil, err
	}
	if opts.RegenerateLog {
		res.StockLog = simulate.StockLog(s, res.Days)
	}
	return res, nil
}

func (e *Engine) apply(s model.Settings, days []model.DeliveryDay, edit Edit) (*Result, error) {
	k := edit.Day
	old := days[k]
	d := old.Clone()

	switch edit.Field {
	case FieldDeliveryTime:
		d.DeliveryTimes[edit.Index] = edit.Hour
	case FieldDeliveryCount:
		if err := resize(&d, edit.Count); err != nil {
			return nil, err
		}
	case FieldDeliveryAmount:
		amt := edit.Amount
		d.DeliveryAmount = &amt
	case FieldMorningStock:
		d.MorningStock = edit.Stock
	case FieldEveningStock:
		d.EveningStock = edit.Stock
	}

	if edit.Field != FieldEveningStock {
		if err := recompute(s, &d); err != nil {
			return nil, fmt.Errorf("%w: day %d: %v", model.ErrInvalidEdit, k, err)
		}
	}
	d.Unresolved = false

	delta := d.Carry() - old.Carry()

	out := make([]model.DeliveryDay, len(days))
	copy(out[:k], days[:k])
	out[k] = d
	cascaded := 0
	for j := k + 1; j < len(days); j++ {
		if delta == 0 {
			out[j] = days[j]
			continue
		}
		out[j] = days[j].Shifted(delta)
		cascaded++
	}

	e.log.Debugw("day recalculated", map[string]any{
		"product":  s.ProductKey,
		"day":      k,
		"field":    string(edit.Field),
		"delta":    float64(delta),
		"cascaded": cascaded,
	})
	return &Result{Days: out, Delta: delta, CascadedDays: cascaded}, nil
}

// Reconcile recomputes every unresolved day in ascending order, cascading each
// one before moving on. A schedule without unresolved days comes back equal
// to the input.
func (e *Engine) Reconcile(s model.Settings, days []model.DeliveryDay, opts Options) (*Result, error) {
	if err := validate(s, days); err != nil {
		return nil, err
	}

	cur := make([]model.DeliveryDay, len(days))
	copy(cur, days)
	total := &Result{Days: cur}
	for k := range cur {
		if !cur[k].Unresolved {
			continue
		}
		res, err := e.apply(s, cur, Edit{Day: k, Field: FieldRecompute})
		if err != nil {
			return nil, err
		}
		cur = res.Days
		total.Days = cur
		total.Delta += res.Delta
		total.CascadedDays += res.CascadedDays
		e.log.Infof("%s: reconciled day %d (%s), delta %.2f",
			s.ProductKey, k, cur[k].Date.Format("2006-01-02"), float64(res.Delta))
	}
	if opts.RegenerateLog {
		total.StockLog = simulate.StockLog(s, total.Days)
	}
	return total, nil
}

// recompute runs the day model over d's current fields and stores the result
// back with deliveries in ascending order. MorningStock stays the pre-dawn
// baseline.
func recompute(s model.Settings, d *model.DeliveryDay) error {
	out, err := daystock.Calculate(daystock.Input{
		MorningStock: d.MorningStock,
		Times:        d.DeliveryTimes,
		Count:        d.DeliveryCount,
		Amount:       d.Amount(s.DeliveryAmount),
		Factor:       s.Factor(),
		Usage:        s.UsageOn(d.Date),
	})
	if err != nil {
		return err
	}
	d.PreDeliveryStock = out.PreDelivery
	d.PostDeliveryStock = out.PostDelivery
	d.EveningStock = out.EveningStock
	d.NightDeliveries = out.NightDeliveries
	d.SortDeliveries()
	return nil
}

func validate(s model.Settings, days []model.DeliveryDay) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("%w: empty schedule", model.ErrInvalidEdit)
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Date.After(days[i-1].Date) {
			return fmt.Errorf("%w: day %d (%s) is not after day %d (%s)", model.ErrInvalidEdit,
				i, days[i].Date.Format("2006-01-02"), i-1, days[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}
