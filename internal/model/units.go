package model

import "math"

// Mass is a quantity in the ordering unit (what a supplier delivers).
type Mass float64

// Level is a quantity in the sensor unit (what the silo gauge reports).
// Stock, thresholds and every stock ledger value are Levels.
type Level float64

// Factor converts one Mass into Level units.
type Factor float64

// UnitTag says which unit the product's stock is tracked in.
type UnitTag string

const (
	// UnitMassOnly tracks stock in the ordering unit; the factor is always 1.
	UnitMassOnly UnitTag = "mass-only"
	// UnitLevel tracks stock in the sensor unit using the conversion rate.
	UnitLevel UnitTag = "level"
)

// ToLevelUnits converts a mass quantity into a level delta.
// Apply it exactly once per logical quantity: converting an already converted
// value scales stock by the factor a second time.
func ToLevelUnits(m Mass, f Factor) Level {
	return Level(float64(m) * float64(f))
}

// ToLevel is the method form of ToLevelUnits.
func (f Factor) ToLevel(m Mass) Level { return ToLevelUnits(m, f) }

// ClampZero floors a stock value at zero.
func ClampZero(l Level) Level {
	if l < 0 {
		return 0
	}
	return l
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
