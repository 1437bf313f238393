// Package daystock computes one day's stock curve from its morning baseline
// and its booked deliveries.
package daystock

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"silo-dispatch/internal/model"
)

// Input describes one day.
// Units:
// - MorningStock: Level, the 06:00 baseline before dawn deliveries
// - Amount: Mass
// - Usage: Mass, a daily total or a 24-hour breakdown
type Input struct {
	MorningStock model.Level
	Times        []model.Hour
	Count        int
	Amount       model.Mass
	Factor       model.Factor
	Usage        model.DailyUsage
}

// Output is parallel to Input.Times: index i belongs to Times[i] as passed in,
// not to the sorted order.
type Output struct {
	PreDelivery  []model.Level
	PostDelivery []model.Level
	// AdjustedMorning is the 06:00 stock with dawn deliveries folded in.
	AdjustedMorning model.Level
	EveningStock    model.Level
	// NightDeliveries is the quantity booked at or after 20:00, carried into
	// the next morning.
	NightDeliveries model.Level
}

func (in Input) validate() error {
	if in.Count != len(in.Times) {
		return fmt.Errorf("delivery count %d does not match %d delivery times", in.Count, len(in.Times))
	}
	for _, h := range in.Times {
		if !h.Valid() {
			return fmt.Errorf("delivery time %d outside 0..23", int(h))
		}
	}
	nums := []struct {
		name string
		v    float64
	}{
		{"morning stock", float64(in.MorningStock)},
		{"amount", float64(in.Amount)},
		{"factor", float64(in.Factor)},
	}
	for _, n := range nums {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) || n.v < 0 {
			return fmt.Errorf("%s must be a finite value >= 0", n.name)
		}
	}
	if in.Factor == 0 {
		return errors.New("factor must be > 0")
	}
	return in.Usage.Validate()
}

// Calculate runs the day model: dawn deliveries are folded into the morning,
// the 06:00 to 20:00 window is replayed hour by hour with each hour's own usage,
// and night deliveries are projected from 20:00 but only reported as
// NightDeliveries. Dawn and night use the day's average rate.
// Every intermediate stock is floored at 0; nothing is capped above.
func Calculate(in Input) (Output, error) {
	if err := in.validate(); err != nil {
		return Output{}, err
	}

	rate := in.Usage.HourlyRate(in.Factor)
	amount := in.Factor.ToLevel(in.Amount)

	order := make([]int, len(in.Times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return in.Times[order[a]] < in.Times[order[b]]
	})

	out := Output{
		PreDelivery:  make([]model.Level, len(in.Times)),
		PostDelivery: make([]model.Level, len(in.Times)),
	}

	// Dawn: project each delivery's stock back from 06:00. Earlier dawn
	// deliveries are already in the silo when a later one arrives.
	morning := in.MorningStock
	var dawn int
	for _, i := range order {
		h := in.Times[i]
		if !h.IsDawn() {
			continue
		}
		pre := in.MorningStock + model.Level(model.MorningHour-int(h))*rate + model.Level(dawn)*amount
		out.PreDelivery[i] = model.ClampZero(pre)
		out.PostDelivery[i] = out.PreDelivery[i] + amount
		dawn++
	}
	morning += model.Level(dawn) * amount
	out.AdjustedMorning = morning

	var day, night []int
	for _, i := range order {
		switch h := in.Times[i]; {
		case h.IsNight():
			night = append(night, i)
		case !h.IsDawn():
			day = append(day, i)
		}
	}

	running := morning
	next := 0
	for h := model.Hour(model.MorningHour); h < model.EveningHour; h++ {
		for next < len(day) && in.Times[day[next]] == h {
			i := day[next]
			out.PreDelivery[i] = running
			out.PostDelivery[i] = running + amount
			running = out.PostDelivery[i]
			next++
		}
		running = model.ClampZero(running - in.Usage.UsageAt(h, in.Factor))
	}
	out.EveningStock = running

	// Night deliveries are shown against the post-20:00 curve.
	last := model.EveningHour
	for _, i := range night {
		h := int(in.Times[i])
		pre := model.ClampZero(running - model.Level(h-last)*rate)
		out.PreDelivery[i] = pre
		out.PostDelivery[i] = pre + amount
		running = out.PostDelivery[i]
		last = h
	}
	out.NightDeliveries = model.Level(len(night)) * amount

	return out, nil
}
