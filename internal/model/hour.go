package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed daily checkpoints and delivery rules.
const (
	HoursPerDay = 24

	// MorningHour is the 06:00 checkpoint where morningStock is recorded.
	MorningHour = 6
	// EveningHour is the 20:00 checkpoint where eveningStock is recorded.
	EveningHour = 20
	// NightUsageHours is the consumption span from 20:00 to the next 06:00.
	NightUsageHours = HoursPerDay - EveningHour + MorningHour

	// WindowStart and WindowEnd bound the hours the simulation may book.
	WindowStart = 7
	WindowEnd   = 19

	// MinSpacingHours is the minimum gap between two booked deliveries.
	MinSpacingHours = 3
)

// Hour is an hour of the day, 0..23. Deliveries have hour granularity.
type Hour int

// Valid reports whether h is within 0..23.
func (h Hour) Valid() bool { return h >= 0 && h < HoursPerDay }

// IsDawn reports a delivery before the morning checkpoint.
func (h Hour) IsDawn() bool { return h < MorningHour }

// IsNight reports a delivery at or after the evening checkpoint. Its quantity
// is carried into the next morning instead of this evening.
func (h Hour) IsNight() bool { return h >= EveningHour }

func (h Hour) String() string { return fmt.Sprintf("%02d:00", int(h)) }

// MarshalText encodes the hour as "HH:00".
func (h Hour) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("invalid hour %d", int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText accepts "HH:MM" or a bare "HH".
func (h *Hour) UnmarshalText(b []byte) error {
	v, err := ParseHour(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// ParseHour parses "HH:MM" (or "HH"). Minutes are floored to the hour.
func ParseHour(s string) (Hour, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 2 || parts[0] == "" {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	var mm int
	if len(parts) == 2 {
		if mm, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid minute in %q", s)
		}
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return Hour(hh), nil
}
