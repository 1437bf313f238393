package recalc

import (
	"fmt"
	"math"

	"silo-dispatch/internal/model"
)

// Field names the DeliveryDay field an edit changes.
type Field string

const (
	FieldDeliveryTime   Field = "delivery_time"
	FieldDeliveryCount  Field = "delivery_count"
	FieldDeliveryAmount Field = "delivery_amount"
	FieldMorningStock   Field = "morning_stock"
	FieldEveningStock   Field = "evening_stock"
	// FieldRecompute re-derives the day from its current fields.
	FieldRecompute Field = "recompute"
)

// ParseField accepts the wire names above.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldDeliveryTime, FieldDeliveryCount, FieldDeliveryAmount,
		FieldMorningStock, FieldEveningStock, FieldRecompute:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown field %q", model.ErrInvalidEdit, s)
}

// Edit describes one manual change to day Day. Only the value matching Field
// is read:
// - delivery_time: Index, Hour
// - delivery_count: Count
// - delivery_amount: Amount
// - morning_stock, evening_stock: Stock
type Edit struct {
	Day    int         `json:"day"`
	Field  Field       `json:"field"`
	Index  int         `json:"index,omitempty"`
	Hour   model.Hour  `json:"hour,omitempty"`
	Count  int         `json:"count,omitempty"`
	Amount model.Mass  `json:"amount,omitempty"`
	Stock  model.Level `json:"stock,omitempty"`
}

func (e Edit) validate(days []model.DeliveryDay) error {
	if e.Day < 0 || e.Day >= len(days) {
		return fmt.Errorf("%w: day %d outside 0..%d", model.ErrInvalidEdit, e.Day, len(days)-1)
	}
	d := days[e.Day]
	switch e.Field {
	case FieldDeliveryTime:
		if e.Index < 0 || e.Index >= len(d.DeliveryTimes) {
			return fmt.Errorf("%w: delivery index %d outside 0..%d", model.ErrInvalidEdit, e.Index, len(d.DeliveryTimes)-1)
		}
		if !e.Hour.Valid() {
			return fmt.Errorf("%w: hour %d outside 0..23", model.ErrInvalidEdit, int(e.Hour))
		}
	case FieldDeliveryCount:
		if e.Count < 0 {
			return fmt.Errorf("%w: negative delivery count", model.ErrInvalidEdit)
		}
	case FieldDeliveryAmount:
		if !nonNegative(float64(e.Amount)) {
			return fmt.Errorf("%w: delivery amount must be a finite value >= 0", model.ErrInvalidEdit)
		}
	case FieldMorningStock, FieldEveningStock:
		if !nonNegative(float64(e.Stock)) {
			return fmt.Errorf("%w: %s must be a finite value >= 0", model.ErrInvalidEdit, e.Field)
		}
	case FieldRecompute:
	default:
		return fmt.Errorf("%w: unknown field %q", model.ErrInvalidEdit, e.Field)
	}
	return nil
}

func nonNegative(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}

// resize sets the number of deliveries. Shrinking drops the latest hours;
// growing adds each new delivery at the earliest window hour spaced from all
// others, or failing that the earliest unused window hour.
func resize(d *model.DeliveryDay, count int) error {
	d.SortDeliveries()
	if count <= len(d.DeliveryTimes) {
		d.DeliveryTimes = d.DeliveryTimes[:count]
		d.PreDeliveryStock = d.PreDeliveryStock[:count]
		d.PostDeliveryStock = d.PostDeliveryStock[:count]
		d.DeliveryCount = count
		return nil
	}
	for len(d.DeliveryTimes) < count {
		h, ok := nextSlot(d.DeliveryTimes)
		if !ok {
			return fmt.Errorf("%w: no free delivery hour for %d deliveries", model.ErrInvalidEdit, count)
		}
		d.DeliveryTimes = append(d.DeliveryTimes, h)
		d.PreDeliveryStock = append(d.PreDeliveryStock, 0)
		d.PostDeliveryStock = append(d.PostDeliveryStock, 0)
	}
	d.DeliveryCount = count
	return nil
}

func nextSlot(times []model.Hour) (model.Hour, bool) {
	used := make(map[model.Hour]bool, len(times))
	for _, t := range times {
		used[t] = true
	}
	var fallback model.Hour
	haveFallback := false
	for h := model.Hour(model.WindowStart); h <= model.WindowEnd; h++ {
		if used[h] {
			continue
		}
		if !haveFallback {
			fallback, haveFallback = h, true
		}
		if spaced(h, times) {
			return h, true
		}
	}
	return fallback, haveFallback
}

func spaced(h model.Hour, times []model.Hour) bool {
	for _, t := range times {
		diff := int(h) - int(t)
		if diff < 0 {
			diff = -diff
		}
		if diff < model.MinSpacingHours {
			return false
		}
	}
	return true
}
