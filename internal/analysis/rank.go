package analysis

import (
	"sort"
)

// RiskLess orders summaries most at risk first: largest deficit, then most
// hours below MinLevel, then lowest stock. Ties fall back to the product key.
func RiskLess(a, b Summary) bool {
	if a.Deficit != b.Deficit {
		return a.Deficit > b.Deficit
	}
	if a.HoursLow != b.HoursLow {
		return a.HoursLow > b.HoursLow
	}
	if a.MinStock != b.MinStock {
		return a.MinStock < b.MinStock
	}
	return a.ProductKey < b.ProductKey
}

// RankByRisk returns a sorted copy of in.
func RankByRisk(in []Summary) []Summary {
	out := append([]Summary(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return RiskLess(out[i], out[j]) })
	return out
}
