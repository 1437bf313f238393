package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silo-dispatch/internal/model"
)

func logOf(start time.Time, stocks ...model.Level) []model.StockLogEntry {
	out := make([]model.StockLogEntry, len(stocks))
	for i, s := range stocks {
		out[i] = model.StockLogEntry{Timestamp: start.Add(time.Duration(i) * time.Hour), Stock: s}
	}
	return out
}

func TestSummarize(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := model.Settings{
		ProductKey:     "acid",
		MinLevel:       30,
		MaxLevel:       80,
		DeliveryAmount: 10,
		ConversionRate: 2,
	}
	override := model.Mass(5)
	days := []model.DeliveryDay{
		{Date: start, DeliveryCount: 2},
		{Date: start.AddDate(0, 0, 1), DeliveryCount: 1, DeliveryAmount: &override},
	}
	log := logOf(start, 20, 40, 60, 90, 25)

	sum := Summarize(s, days, log)
	assert.Equal(t, "acid", sum.ProductKey)
	assert.Equal(t, 2, sum.Days)
	assert.Equal(t, 5, sum.Hours)
	assert.Equal(t, 3, sum.Deliveries)
	assert.Equal(t, model.Mass(25), sum.DeliveredMass)
	assert.Equal(t, model.Level(50), sum.DeliveredLevel)

	assert.Equal(t, model.Level(20), sum.MinStock)
	assert.Equal(t, model.Level(90), sum.MaxStock)
	assert.InDelta(t, 47, float64(sum.MeanStock), 1e-9)
	assert.Equal(t, model.Level(20), sum.P05Stock)
	assert.Equal(t, model.Level(90), sum.P95Stock)
	assert.Equal(t, 2, sum.HoursLow)
	assert.Equal(t, 1, sum.HoursHigh)
	assert.Equal(t, model.Level(15), sum.Deficit)
	assert.True(t, sum.End.Equal(start.AddDate(0, 0, 1)))
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(model.Settings{ProductKey: "x"}, nil, nil)
	assert.Zero(t, sum.Hours)
	assert.Zero(t, sum.MaxStock)
}

func TestRankByRisk(t *testing.T) {
	in := []Summary{
		{ProductKey: "safe", MinStock: 40},
		{ProductKey: "short", Deficit: 5, HoursLow: 3},
		{ProductKey: "worst", Deficit: 50, HoursLow: 10},
		{ProductKey: "tight", MinStock: 31},
		{ProductKey: "long", Deficit: 5, HoursLow: 8},
	}
	got := RankByRisk(in)
	require.Len(t, got, 5)
	keys := make([]string, len(got))
	for i, s := range got {
		keys[i] = s.ProductKey
	}
	assert.Equal(t, []string{"worst", "long", "short", "tight", "safe"}, keys)
	assert.Equal(t, "safe", in[0].ProductKey)
}
