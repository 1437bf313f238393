package model

import (
	"sort"
	"time"
)

// DeliveryDay is one day of a delivery schedule.
//
// MorningStock is the 06:00 baseline before any dawn delivery of the same day
// is folded in. EveningStock is the 20:00 level. Deliveries at or after 20:00
// are listed with their stocks but only counted in NightDeliveries, which the
// next day's morning picks up.
type DeliveryDay struct {
	Date              time.Time `json:"date"`
	MorningStock      Level     `json:"morning_stock"`
	EveningStock      Level     `json:"evening_stock"`
	DeliveryCount     int       `json:"delivery_count"`
	DeliveryTimes     []Hour    `json:"delivery_times"`
	PreDeliveryStock  []Level   `json:"pre_delivery_stock"`
	PostDeliveryStock []Level   `json:"post_delivery_stock"`
	// DeliveryAmount overrides the per-delivery amount for this day.
	DeliveryAmount  *Mass `json:"delivery_amount,omitempty"`
	NightDeliveries Level `json:"night_deliveries"`
	// Unresolved marks a day whose fields changed without a recalculation.
	Unresolved bool `json:"unresolved,omitempty"`
}

// StockLogEntry is the stock at the top of one hour: after a delivery booked
// at that hour, before that hour's consumption.
type StockLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Stock     Level     `json:"stock"`
}

// Amount returns the day's per-delivery amount.
func (d DeliveryDay) Amount(def Mass) Mass {
	if d.DeliveryAmount != nil {
		return *d.DeliveryAmount
	}
	return def
}

// Carry is what this day hands to the next morning before night consumption.
func (d DeliveryDay) Carry() Level { return d.EveningStock + d.NightDeliveries }

// Clone returns a copy that shares no slices or pointers with d.
func (d DeliveryDay) Clone() DeliveryDay {
	out := d
	out.DeliveryTimes = append([]Hour(nil), d.DeliveryTimes...)
	out.PreDeliveryStock = append([]Level(nil), d.PreDeliveryStock...)
	out.PostDeliveryStock = append([]Level(nil), d.PostDeliveryStock...)
	if d.DeliveryAmount != nil {
		amt := *d.DeliveryAmount
		out.DeliveryAmount = &amt
	}
	return out
}

// Shifted returns a copy with every stock field moved by delta, floored at 0.
func (d DeliveryDay) Shifted(delta Level) DeliveryDay {
	out := d.Clone()
	out.MorningStock = ClampZero(out.MorningStock + delta)
	out.EveningStock = ClampZero(out.EveningStock + delta)
	for i := range out.PreDeliveryStock {
		out.PreDeliveryStock[i] = ClampZero(out.PreDeliveryStock[i] + delta)
	}
	for i := range out.PostDeliveryStock {
		out.PostDeliveryStock[i] = ClampZero(out.PostDeliveryStock[i] + delta)
	}
	return out
}

// SortDeliveries orders the delivery times ascending, keeping the pre and post
// stock arrays parallel.
func (d *DeliveryDay) SortDeliveries() {
	idx := make([]int, len(d.DeliveryTimes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return d.DeliveryTimes[idx[a]] < d.DeliveryTimes[idx[b]]
	})
	times := make([]Hour, len(idx))
	pre := make([]Level, len(idx))
	post := make([]Level, len(idx))
	for i, j := range idx {
		times[i] = d.DeliveryTimes[j]
		if j < len(d.PreDeliveryStock) {
			pre[i] = d.PreDeliveryStock[j]
		}
		if j < len(d.PostDeliveryStock) {
			post[i] = d.PostDeliveryStock[j]
		}
	}
	d.DeliveryTimes, d.PreDeliveryStock, d.PostDeliveryStock = times, pre, post
}

// NextMorning is the 06:00 stock following a day that ended at evening with
// night deliveries carried over, consuming NightUsageHours at hourlyRate.
func NextMorning(evening, night, hourlyRate Level) Level {
	return ClampZero(evening + night - NightUsageHours*hourlyRate)
}

// HourStamp returns the timestamp of hour h on date's calendar day.
func HourStamp(date time.Time, h int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, h, 0, 0, 0, date.Location())
}
