// Package simulate runs the hour-by-hour forward simulation that produces a
// delivery schedule and its stock log from Settings.
package simulate

import (
	"fmt"

	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/model"
)

type Engine struct {
	log logger.Logger
}

// New returns an engine. A nil logger discards output.
func New(log logger.Logger) *Engine { return &Engine{log: logger.OrNop(log)} }

// dayState is the mutable working copy of the day being simulated.
type dayState struct {
	index int
	base  int // index of this day's 00:00 entry in the stock log
	times []model.Hour
	pre   []model.Level
	post  []model.Level
}

func (d *dayState) book(h model.Hour, stock, amount model.Level) model.Level {
	d.times = append(d.times, h)
	d.pre = append(d.pre, stock)
	d.post = append(d.post, stock+amount)
	return stock + amount
}

func (d *dayState) last() (model.Hour, bool) {
	if len(d.times) == 0 {
		return 0, false
	}
	return d.times[len(d.times)-1], true
}

// Run simulates the whole horizon.
func (e *Engine) Run(s model.Settings) (*Result, error) {
	if err := s.Validate(); err != nil {
		e.log.Debugf("rejecting settings for %q: %v", s.ProductKey, err)
		return nil, err
	}

	n := s.HorizonDays()
	usage := s.ReconcileUsage(n)
	f := s.Factor()
	amount := s.DeliveryLevel()

	days := make([]model.DeliveryDay, 0, n)
	stockLog := make([]model.StockLogEntry, 0, n*model.HoursPerDay)
	var corrections []Correction

	stock := s.CurrentStock
	var prevRate model.Level
	for i := 0; i < n; i++ {
		date := s.DayDate(i)
		u := usage[i]
		rate := u.HourlyRate(f)
		active := u.Sum() > 0

		morning := stock
		if i > 0 {
			prev := days[i-1]
			morning = model.NextMorning(prev.EveningStock, prev.NightDeliveries, prevRate)
		}

		d := &dayState{index: i, base: len(stockLog)}
		var evening model.Level
		for h := model.Hour(0); h < model.HoursPerDay; h++ {
			if int(h) == model.MorningHour {
				stock = morning
			}

			if active && int(h) >= model.WindowStart && int(h) <= model.WindowEnd {
				predicted := stock - u.UsageAt(h, f)
				last, ok := d.last()
				if predicted < s.MinLevel && (!ok || int(h-last) >= model.MinSpacingHours) {
					stock = d.book(h, stock, amount)
					e.log.Debugw("delivery booked", map[string]any{
						"product": s.ProductKey,
						"day":     date.Format("2006-01-02"),
						"hour":    h.String(),
						"pre":     float64(stock - amount),
					})
				}
			}

			if int(h) == model.EveningHour {
				evening = stock
				if active {
					nextRate := rate
					if i+1 < n {
						nextRate = usage[i+1].HourlyRate(f)
					}
					c, ok := e.lookAhead(s, d, stockLog, u, evening, nextRate, amount)
					if c != nil {
						c.Date = date
						corrections = append(corrections, *c)
					}
					if ok {
						evening = c.Evening
					}
				}
				stock = evening
			}

			stockLog = append(stockLog, model.StockLogEntry{
				Timestamp: model.HourStamp(date, int(h)),
				Stock:     stock,
			})

			stock = model.ClampZero(stock - hourConsumption(h, i, u, f, rate, prevRate))
		}

		days = append(days, model.DeliveryDay{
			Date:              date,
			MorningStock:      morning,
			EveningStock:      evening,
			DeliveryCount:     len(d.times),
			DeliveryTimes:     d.times,
			PreDeliveryStock:  d.pre,
			PostDeliveryStock: d.post,
		})
		prevRate = rate
	}

	res := &Result{Days: days, StockLog: stockLog, Corrections: corrections}
	for _, d := range days {
		res.Deliveries += d.DeliveryCount
	}
	e.log.Infof("simulated %q over %d days: %d deliveries, %d corrections",
		s.ProductKey, n, res.Deliveries, len(corrections))
	return res, nil
}

// hourConsumption is what hour h removes. Before 06:00 the previous day's
// average applies (nothing on the first day), the day window uses the hour's
// own usage, and the evening uses the day's average.
func hourConsumption(h model.Hour, day int, u model.DailyUsage, f model.Factor, rate, prevRate model.Level) model.Level {
	switch {
	case h.IsDawn():
		if day == 0 {
			return 0
		}
		return prevRate
	case h.IsNight():
		return rate
	default:
		return u.UsageAt(h, f)
	}
}

// lookAhead projects the next morning from the evening stock. When it would
// land below MinLevel a single delivery is inserted at the latest free slot
// and the day is replayed from there. ok reports whether a delivery was
// inserted; c is non-nil whenever a correction was needed.
func (e *Engine) lookAhead(s model.Settings, d *dayState, stockLog []model.StockLogEntry,
	u model.DailyUsage, evening, nextRate, amount model.Level) (c *Correction, ok bool) {

	projected := model.ClampZero(evening - model.NightUsageHours*nextRate)
	if projected >= s.MinLevel {
		return nil, false
	}

	c = &Correction{Projected: projected}
	slot, found := latestFreeSlot(d.times)
	if !found {
		e.log.Warnf("%s day %d: projected morning %.2f below min %.2f and no delivery slot left",
			s.ProductKey, d.index, float64(projected), float64(s.MinLevel))
		return c, false
	}

	// Insert in ascending position.
	pos := len(d.times)
	for j, t := range d.times {
		if t > slot {
			pos = j
			break
		}
	}
	d.times = insertAt(d.times, pos, slot)
	d.pre = insertAt(d.pre, pos, 0)
	d.post = insertAt(d.post, pos, 0)

	f := s.Factor()
	stock := stockLog[d.base+int(slot)].Stock
	j := pos
	for h := slot; int(h) < model.EveningHour; h++ {
		for j < len(d.times) && d.times[j] == h {
			d.pre[j] = stock
			d.post[j] = stock + amount
			stock = d.post[j]
			j++
		}
		stockLog[d.base+int(h)].Stock = stock
		stock = model.ClampZero(stock - u.UsageAt(h, f))
	}

	c.Hour = &slot
	c.Evening = stock
	e.log.Infof("%s day %d: look-ahead inserted delivery at %s (projected %.2f < min %.2f)",
		s.ProductKey, d.index, slot, float64(projected), float64(s.MinLevel))
	return c, true
}

// latestFreeSlot returns the latest hour in the delivery window at least
// MinSpacingHours away from every booked time.
func latestFreeSlot(times []model.Hour) (model.Hour, bool) {
	for h := model.Hour(model.WindowEnd); h >= model.WindowStart; h-- {
		if spaced(h, times) {
			return h, true
		}
	}
	return 0, false
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

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// String renders a correction for logs and CLI output.
func (c Correction) String() string {
	if c.Hour == nil {
		return fmt.Sprintf("%s: projected %.2f, no slot", c.Date.Format("2006-01-02"), float64(c.Projected))
	}
	return fmt.Sprintf("%s: inserted %s, projected %.2f", c.Date.Format("2006-01-02"), *c.Hour, float64(c.Projected))
}
