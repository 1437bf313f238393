package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxHorizonDays bounds a single simulation.
const MaxHorizonDays = 366

// DailyUsage is one day's consumption in Mass units: either a single daily
// total, or a 24-entry hourly breakdown.
// In YAML and JSON it is written as a number or as a list of 24 numbers.
type DailyUsage struct {
	Total  Mass
	Hourly []Mass
}

// DailyTotal returns a usage spread evenly over 24 hours.
func DailyTotal(m Mass) DailyUsage { return DailyUsage{Total: m} }

// HourlyBreakdown returns a usage with one value per hour.
func HourlyBreakdown(hourly []Mass) DailyUsage {
	cp := make([]Mass, len(hourly))
	copy(cp, hourly)
	return DailyUsage{Hourly: cp}
}

// IsBreakdown reports whether the usage carries per-hour values.
func (u DailyUsage) IsBreakdown() bool { return len(u.Hourly) > 0 }

// Sum returns the day's total consumption.
func (u DailyUsage) Sum() Mass {
	if !u.IsBreakdown() {
		return u.Total
	}
	var sum Mass
	for _, m := range u.Hourly {
		sum += m
	}
	return sum
}

// HourlyRate is the day's average consumption per hour in Level units.
func (u DailyUsage) HourlyRate(f Factor) Level {
	return f.ToLevel(u.Sum()) / HoursPerDay
}

// UsageAt is the consumption of hour h in Level units.
func (u DailyUsage) UsageAt(h Hour, f Factor) Level {
	if u.IsBreakdown() && h.Valid() {
		return f.ToLevel(u.Hourly[h])
	}
	return u.HourlyRate(f)
}

// Validate checks a breakdown has 24 entries and every value is finite and >= 0.
func (u DailyUsage) Validate() error {
	if u.IsBreakdown() {
		if len(u.Hourly) != HoursPerDay {
			return fmt.Errorf("hourly breakdown needs %d values, got %d", HoursPerDay, len(u.Hourly))
		}
		for h, m := range u.Hourly {
			if !finite(float64(m)) || m < 0 {
				return fmt.Errorf("hour %d usage must be a finite value >= 0", h)
			}
		}
		return nil
	}
	if !finite(float64(u.Total)) || u.Total < 0 {
		return fmt.Errorf("daily usage must be a finite value >= 0")
	}
	return nil
}

// MarshalJSON writes a number or a list.
func (u DailyUsage) MarshalJSON() ([]byte, error) {
	if u.IsBreakdown() {
		return json.Marshal(u.Hourly)
	}
	return json.Marshal(u.Total)
}

// UnmarshalJSON accepts a number or a list of numbers.
func (u *DailyUsage) UnmarshalJSON(b []byte) error {
	var total Mass
	if err := json.Unmarshal(b, &total); err == nil {
		*u = DailyTotal(total)
		return nil
	}
	var hourly []Mass
	if err := json.Unmarshal(b, &hourly); err != nil {
		return fmt.Errorf("daily usage must be a number or a list of numbers: %w", err)
	}
	*u = DailyUsage{Hourly: hourly}
	return nil
}

// MarshalYAML writes a number or a list.
func (u DailyUsage) MarshalYAML() (any, error) {
	if u.IsBreakdown() {
		return u.Hourly, nil
	}
	return u.Total, nil
}

// UnmarshalYAML accepts a scalar or a sequence.
func (u *DailyUsage) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var total Mass
		if err := n.Decode(&total); err != nil {
			return err
		}
		*u = DailyTotal(total)
	case yaml.SequenceNode:
		var hourly []Mass
		if err := n.Decode(&hourly); err != nil {
			return err
		}
		*u = DailyUsage{Hourly: hourly}
	default:
		return fmt.Errorf("line %d: daily usage must be a number or a list", n.Line)
	}
	return nil
}

// Settings is the per-invocation input of the forward simulation.
// Units:
// - MinLevel, MaxLevel, CurrentStock: Level
// - DeliveryAmount, DailyUsage: Mass
// - ConversionRate: Level per Mass (defaults to 1)
type Settings struct {
	ProductKey     string       `json:"product_key" yaml:"product_key"`
	MinLevel       Level        `json:"min_level" yaml:"min_level"`
	MaxLevel       Level        `json:"max_level" yaml:"max_level"`
	CurrentStock   Level        `json:"current_stock" yaml:"current_stock"`
	DeliveryAmount Mass         `json:"delivery_amount" yaml:"delivery_amount"`
	DailyUsage     []DailyUsage `json:"daily_usage" yaml:"daily_usage"`
	StartDate      time.Time    `json:"start_date" yaml:"start_date"`
	EndDate        time.Time    `json:"end_date" yaml:"end_date"`
	ConversionRate Factor       `json:"conversion_rate,omitempty" yaml:"conversion_rate,omitempty"`
	Unit           UnitTag      `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Validate rejects invalid horizons and malformed values.
func (s Settings) Validate() error {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidHorizon)
	}
	n := s.HorizonDays()
	if n <= 0 {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidHorizon,
			s.EndDate.Format(time.DateOnly), s.StartDate.Format(time.DateOnly))
	}
	if n > MaxHorizonDays {
		return fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidHorizon, n, MaxHorizonDays)
	}

	levels := []struct {
		name string
		v    float64
	}{
		{"min_level", float64(s.MinLevel)},
		{"max_level", float64(s.MaxLevel)},
		{"current_stock", float64(s.CurrentStock)},
		{"delivery_amount", float64(s.DeliveryAmount)},
		{"conversion_rate", float64(s.ConversionRate)},
	}
	for _, l := range levels {
		if !finite(l.v) || l.v < 0 {
			return fmt.Errorf("%w: %s must be a finite value >= 0", ErrInvalidSettings, l.name)
		}
	}
	if s.MinLevel > s.MaxLevel {
		return fmt.Errorf("%w: min_level must be <= max_level", ErrInvalidSettings)
	}
	switch s.Unit {
	case "", UnitMassOnly, UnitLevel:
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidSettings, s.Unit)
	}
	for i, u := range s.DailyUsage {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("%w: daily_usage[%d]: %v", ErrInvalidSettings, i, err)
		}
	}
	return nil
}

// Factor returns the effective Mass to Level factor.
func (s Settings) Factor() Factor {
	if s.Unit == UnitMassOnly || s.ConversionRate == 0 {
		return 1
	}
	return s.ConversionRate
}

// DeliveryLevel is one standard delivery converted to Level units.
func (s Settings) DeliveryLevel() Level {
	return s.Factor().ToLevel(s.DeliveryAmount)
}

// HorizonDays is endDate - startDate + 1 in calendar days.
func (s Settings) HorizonDays() int {
	return daysBetween(s.StartDate, s.EndDate) + 1
}

// Start is midnight of the start date in the start date's location.
func (s Settings) Start() time.Time {
	y, m, d := s.StartDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.StartDate.Location())
}

// DayDate returns the date of horizon day i.
func (s Settings) DayDate(i int) time.Time {
	return s.Start().AddDate(0, 0, i)
}

// ReconcileUsage fits DailyUsage to n days: extra entries are dropped, missing
// ones repeat the last entry, and an empty sequence means zero usage.
func (s Settings) ReconcileUsage(n int) []DailyUsage {
	out := make([]DailyUsage, n)
	for i := range out {
		switch {
		case i < len(s.DailyUsage):
			out[i] = s.DailyUsage[i]
		case len(s.DailyUsage) > 0:
			out[i] = s.DailyUsage[len(s.DailyUsage)-1]
		}
	}
	return out
}

// UsageOn returns the reconciled usage for a calendar date. Dates outside the
// horizon use the nearest horizon day.
func (s Settings) UsageOn(date time.Time) DailyUsage {
	n := s.HorizonDays()
	if n <= 0 {
		n = 1
	}
	i := daysBetween(s.StartDate, date)
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	if i < len(s.DailyUsage) {
		return s.DailyUsage[i]
	}
	if len(s.DailyUsage) > 0 {
		return s.DailyUsage[len(s.DailyUsage)-1]
	}
	return DailyUsage{}
}

// daysBetween counts calendar days from a to b, ignoring clock and DST.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ca := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	cb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(cb.Sub(ca).Hours() / 24)
}
