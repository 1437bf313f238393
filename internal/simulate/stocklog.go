package simulate

import (
	"sort"

	"silo-dispatch/internal/model"
)

// StockLog rebuilds the hourly log of a schedule from its stored anchors
// (morning, evening and the delivery arrays). Hours 07..19 spend the previous
// hour's own usage like the forward run; the night and dawn hours use the
// average rate. Used after a recalculation, when the day-by-day replay of the
// forward run is no longer available.
func StockLog(s model.Settings, days []model.DeliveryDay) []model.StockLogEntry {
	if len(days) == 0 {
		return nil
	}
	f := s.Factor()
	out := make([]model.StockLogEntry, 0, len(days)*model.HoursPerDay)

	var prev *model.DeliveryDay
	var prevRate model.Level
	for i := range days {
		d := days[i]
		u := s.UsageOn(d.Date)
		rate := u.HourlyRate(f)
		amount := f.ToLevel(d.Amount(s.DeliveryAmount))
		order := sortedOrder(d.DeliveryTimes)

		dawnSoFar := model.Level(0)
		next := 0
		var stock model.Level
		for h := model.Hour(0); h < model.HoursPerDay; h++ {
			switch {
			case h.IsDawn():
				for next < len(order) && d.DeliveryTimes[order[next]] == h {
					dawnSoFar += amount
					next++
				}
				if prev == nil {
					stock = d.MorningStock + dawnSoFar
				} else {
					stock = model.ClampZero(prev.Carry()-model.Level(int(h)+model.HoursPerDay-model.EveningHour)*prevRate) + dawnSoFar
				}
			case int(h) == model.MorningHour:
				stock = d.MorningStock + dawnSoFar
			case int(h) == model.EveningHour:
				stock = d.EveningStock
			case h.IsNight():
				stock = model.ClampZero(stock - rate)
			default:
				stock = model.ClampZero(stock - u.UsageAt(h-1, f))
			}

			for next < len(order) && d.DeliveryTimes[order[next]] == h {
				if k := order[next]; k < len(d.PostDeliveryStock) {
					stock = d.PostDeliveryStock[k]
				}
				next++
			}

			out = append(out, model.StockLogEntry{
				Timestamp: model.HourStamp(d.Date, int(h)),
				Stock:     stock,
			})
		}
		prev = &days[i]
		prevRate = rate
	}
	return out
}

func sortedOrder(times []model.Hour) []int {
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })
	return idx
}
