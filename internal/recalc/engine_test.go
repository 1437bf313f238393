package recalc

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silo-dispatch/internal/model"
	"silo-dispatch/internal/simulate"
)

const eps = 1e-9

// fixture is a three day schedule at one level unit per hour:
// day 0 delivers at 09:00 and 15:00, day 1 at 10:00, day 2 not at all.
func fixture() (model.Settings, []model.DeliveryDay) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := model.Settings{
		ProductKey:     "caustic",
		MinLevel:       10,
		MaxLevel:       100,
		CurrentStock:   40,
		DeliveryAmount: 10,
		DailyUsage:     []model.DailyUsage{model.DailyTotal(24)},
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 2),
	}
	days := []model.DeliveryDay{
		{
			Date:              start,
			MorningStock:      40,
			EveningStock:      46,
			DeliveryCount:     2,
			DeliveryTimes:     []model.Hour{9, 15},
			PreDeliveryStock:  []model.Level{37, 41},
			PostDeliveryStock: []model.Level{47, 51},
		},
		{
			Date:              start.AddDate(0, 0, 1),
			MorningStock:      36,
			EveningStock:      32,
			DeliveryCount:     1,
			DeliveryTimes:     []model.Hour{10},
			PreDeliveryStock:  []model.Level{32},
			PostDeliveryStock: []model.Level{42},
		},
		{
			Date:         start.AddDate(0, 0, 2),
			MorningStock: 22,
			EveningStock: 8,
		},
	}
	return s, days
}

func assertContinuous(t *testing.T, s model.Settings, days []model.DeliveryDay) {
	t.Helper()
	for i := 1; i < len(days); i++ {
		prev := days[i-1]
		rate := s.UsageOn(prev.Date).HourlyRate(s.Factor())
		want := model.NextMorning(prev.EveningStock, prev.NightDeliveries, rate)
		assert.InDelta(t, float64(want), float64(days[i].MorningStock), eps, "day %d", i)
	}
}

func TestApplyCountShrinkDropsLatest(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 0, Field: FieldDeliveryCount, Count: 1}, Options{})
	require.NoError(t, err)

	d0 := res.Days[0]
	assert.Equal(t, []model.Hour{9}, d0.DeliveryTimes)
	assert.Equal(t, 1, d0.DeliveryCount)
	assert.Equal(t, []model.Level{37}, d0.PreDeliveryStock)
	assert.Equal(t, []model.Level{47}, d0.PostDeliveryStock)
	assert.InDelta(t, 36, float64(d0.EveningStock), eps)

	assert.InDelta(t, -10, float64(res.Delta), eps)
	assert.Equal(t, 2, res.CascadedDays)
	assert.InDelta(t, 26, float64(res.Days[1].MorningStock), eps)
	assert.InDelta(t, 22, float64(res.Days[1].PreDeliveryStock[0]), eps)
	assert.InDelta(t, 32, float64(res.Days[1].PostDeliveryStock[0]), eps)
	assert.InDelta(t, 22, float64(res.Days[1].EveningStock), eps)
	assert.InDelta(t, 12, float64(res.Days[2].MorningStock), eps)
	// Clamped, not negative.
	assert.Equal(t, model.Level(0), res.Days[2].EveningStock)
	assertContinuous(t, s, res.Days[:2])

	// Input untouched.
	assert.Equal(t, []model.Hour{9, 15}, days[0].DeliveryTimes)
	assert.Equal(t, model.Level(46), days[0].EveningStock)
	assert.Equal(t, model.Level(36), days[1].MorningStock)
}

func TestApplyCountGrowUsesSpacedSlot(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 0, Field: FieldDeliveryCount, Count: 3}, Options{})
	require.NoError(t, err)

	d0 := res.Days[0]
	assert.Equal(t, []model.Hour{9, 12, 15}, d0.DeliveryTimes)
	assert.Equal(t, []model.Level{37, 44, 51}, d0.PreDeliveryStock)
	assert.InDelta(t, 56, float64(d0.EveningStock), eps)
	assert.InDelta(t, 10, float64(res.Delta), eps)
	assertContinuous(t, s, res.Days)
}

func TestNextSlotFallsBack(t *testing.T) {
	h, ok := nextSlot([]model.Hour{9, 12, 15, 18})
	require.True(t, ok)
	assert.Equal(t, model.Hour(7), h)

	all := make([]model.Hour, 0, 13)
	for h := model.Hour(model.WindowStart); h <= model.WindowEnd; h++ {
		all = append(all, h)
	}
	_, ok = nextSlot(all)
	assert.False(t, ok)
}

func TestApplyDeliveryTimeSorts(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 0, Field: FieldDeliveryTime, Index: 0, Hour: 17}, Options{})
	require.NoError(t, err)

	d0 := res.Days[0]
	assert.Equal(t, []model.Hour{15, 17}, d0.DeliveryTimes)
	assert.Equal(t, []model.Level{31, 39}, d0.PreDeliveryStock)
	assert.Equal(t, []model.Level{41, 49}, d0.PostDeliveryStock)
	assert.InDelta(t, 46, float64(d0.EveningStock), eps)
	assert.Zero(t, res.Delta)
	assert.Zero(t, res.CascadedDays)
	assert.Equal(t, days[1], res.Days[1])
}

func TestApplyNightDeliveryCarries(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 1, Field: FieldDeliveryTime, Index: 0, Hour: 21}, Options{})
	require.NoError(t, err)

	d1 := res.Days[1]
	assert.InDelta(t, 22, float64(d1.EveningStock), eps)
	assert.InDelta(t, 10, float64(d1.NightDeliveries), eps)
	assert.InDelta(t, 21, float64(d1.PreDeliveryStock[0]), eps)
	assert.InDelta(t, 31, float64(d1.PostDeliveryStock[0]), eps)
	// Same carry as before: 22 + 10 == 32.
	assert.Zero(t, res.Delta)
	assert.InDelta(t, 22, float64(res.Days[2].MorningStock), eps)
	assertContinuous(t, s, res.Days)
}

func TestApplyDeliveryAmount(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 1, Field: FieldDeliveryAmount, Amount: 20}, Options{})
	require.NoError(t, err)

	d1 := res.Days[1]
	require.NotNil(t, d1.DeliveryAmount)
	assert.Equal(t, model.Mass(20), *d1.DeliveryAmount)
	assert.InDelta(t, 52, float64(d1.PostDeliveryStock[0]), eps)
	assert.InDelta(t, 42, float64(d1.EveningStock), eps)
	assert.InDelta(t, 10, float64(res.Delta), eps)
	assert.Equal(t, 1, res.CascadedDays)
	assert.InDelta(t, 32, float64(res.Days[2].MorningStock), eps)
	assert.InDelta(t, 18, float64(res.Days[2].EveningStock), eps)
	assert.Nil(t, days[1].DeliveryAmount)
	// Earlier days are shared as is.
	assert.Equal(t, days[0], res.Days[0])
}

func TestApplyMorningStock(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 1, Field: FieldMorningStock, Stock: 50}, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 46, float64(res.Days[1].EveningStock), eps)
	assert.InDelta(t, 14, float64(res.Delta), eps)
	assert.InDelta(t, 36, float64(res.Days[2].MorningStock), eps)
	assert.InDelta(t, 22, float64(res.Days[2].EveningStock), eps)
}

func TestApplyEveningStockSkipsDayModel(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 1, Field: FieldEveningStock, Stock: 40}, Options{})
	require.NoError(t, err)

	d1 := res.Days[1]
	assert.Equal(t, model.Level(40), d1.EveningStock)
	assert.Equal(t, days[1].PreDeliveryStock, d1.PreDeliveryStock)
	assert.InDelta(t, 8, float64(res.Delta), eps)
	assert.InDelta(t, 30, float64(res.Days[2].MorningStock), eps)
}

func TestApplyFactorAppliedOnce(t *testing.T) {
	s, days := fixture()
	s.ConversionRate = 100
	s.MaxLevel = 10000
	res, err := New(nil).Apply(s, days, Edit{Day: 0, Field: FieldMorningStock, Stock: 5000}, Options{})
	require.NoError(t, err)
	d0 := res.Days[0]
	for i := range d0.DeliveryTimes {
		assert.InDelta(t, 1000, float64(d0.PostDeliveryStock[i]-d0.PreDeliveryStock[i]), eps)
	}
}

func TestApplyOrdering(t *testing.T) {
	s, days := fixture()
	days[0].Unresolved = true

	_, err := New(nil).Apply(s, days, Edit{Day: 1, Field: FieldRecompute}, Options{})
	assert.True(t, errors.Is(err, model.ErrEditOrdering), "got %v", err)

	res, err := New(nil).Apply(s, days, Edit{Day: 0, Field: FieldRecompute}, Options{})
	require.NoError(t, err)
	assert.False(t, res.Days[0].Unresolved)
	assert.True(t, days[0].Unresolved)
}

func TestApplyRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		edit Edit
	}{
		{"day out of range", Edit{Day: 3, Field: FieldRecompute}},
		{"negative day", Edit{Day: -1, Field: FieldRecompute}},
		{"unknown field", Edit{Day: 0, Field: "colour"}},
		{"index out of range", Edit{Day: 2, Field: FieldDeliveryTime, Index: 0, Hour: 9}},
		{"hour out of range", Edit{Day: 0, Field: FieldDeliveryTime, Index: 0, Hour: 24}},
		{"negative count", Edit{Day: 0, Field: FieldDeliveryCount, Count: -1}},
		{"too many deliveries", Edit{Day: 0, Field: FieldDeliveryCount, Count: 14}},
		{"nan amount", Edit{Day: 0, Field: FieldDeliveryAmount, Amount: model.Mass(math.NaN())}},
		{"negative stock", Edit{Day: 0, Field: FieldMorningStock, Stock: -5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, days := fixture()
			_, err := New(nil).Apply(s, days, c.edit, Options{})
			assert.True(t, errors.Is(err, model.ErrInvalidEdit), "got %v", err)
		})
	}
}

func TestApplyRejectsBadSchedule(t *testing.T) {
	s, days := fixture()

	_, err := New(nil).Apply(s, nil, Edit{Field: FieldRecompute}, Options{})
	assert.True(t, errors.Is(err, model.ErrInvalidEdit))

	days[2].Date = days[1].Date
	_, err = New(nil).Apply(s, days, Edit{Field: FieldRecompute}, Options{})
	assert.True(t, errors.Is(err, model.ErrInvalidEdit))

	s, days = fixture()
	days[1].DeliveryCount = 3
	_, err = New(nil).Apply(s, days, Edit{Day: 1, Field: FieldRecompute}, Options{})
	assert.True(t, errors.Is(err, model.ErrInvalidEdit))

	s.MinLevel = 500
	_, err = New(nil).Apply(s, days, Edit{Field: FieldRecompute}, Options{})
	assert.True(t, errors.Is(err, model.ErrInvalidSettings))
}

func TestApplyRegeneratesLog(t *testing.T) {
	s, days := fixture()
	res, err := New(nil).Apply(s, days, Edit{Day: 0, Field: FieldDeliveryCount, Count: 1}, Options{RegenerateLog: true})
	require.NoError(t, err)
	require.Len(t, res.StockLog, 3*model.HoursPerDay)
	assert.InDelta(t, 47, float64(res.StockLog[9].Stock), eps)
	assert.InDelta(t, 36, float64(res.StockLog[20].Stock), eps)
	assert.InDelta(t, 26, float64(res.StockLog[24+6].Stock), eps)

	res, err = New(nil).Apply(s, days, Edit{Day: 0, Field: FieldDeliveryCount, Count: 1}, Options{})
	require.NoError(t, err)
	assert.Nil(t, res.StockLog)
}

func TestApplyOnSimulatedSchedule(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := model.Settings{
		ProductKey:     "caustic",
		MinLevel:       30,
		MaxLevel:       80,
		CurrentStock:   50,
		DeliveryAmount: 29,
		DailyUsage:     []model.DailyUsage{model.DailyTotal(40)},
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 1),
	}
	sim, err := simulate.New(nil).Run(s)
	require.NoError(t, err)
	require.Equal(t, []model.Hour{11, 19}, sim.Days[1].DeliveryTimes)

	res, err := New(nil).Apply(s, sim.Days, Edit{Day: 1, Field: FieldDeliveryCount, Count: 1}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.Hour{11}, res.Days[1].DeliveryTimes)
	assert.InDelta(t, float64(sim.Days[1].EveningStock)-29, float64(res.Days[1].EveningStock), 1e-6)

	// Recomputing an untouched simulated day reproduces it.
	res, err = New(nil).Apply(s, sim.Days, Edit{Day: 0, Field: FieldRecompute}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, float64(sim.Days[0].EveningStock), float64(res.Days[0].EveningStock), 1e-6)
	assert.InDelta(t, 0, float64(res.Delta), 1e-6)
}

func TestRecomputeMatchesForwardHourlyUsage(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	peak := make([]model.Mass, model.HoursPerDay)
	peak[9] = 25
	shift := make([]model.Mass, model.HoursPerDay)
	for h := 8; h <= 17; h++ {
		shift[h] = 3
	}

	for name, hourly := range map[string][]model.Mass{"single peak": peak, "day shift": shift} {
		t.Run(name, func(t *testing.T) {
			s := model.Settings{
				ProductKey:     "caustic",
				MinLevel:       30,
				MaxLevel:       80,
				CurrentStock:   50,
				DeliveryAmount: 29,
				DailyUsage:     []model.DailyUsage{model.HourlyBreakdown(hourly)},
				StartDate:      start,
				EndDate:        start.AddDate(0, 0, 2),
			}
			sim, err := simulate.New(nil).Run(s)
			require.NoError(t, err)

			eng := New(nil)
			for k := range sim.Days {
				res, err := eng.Apply(s, sim.Days, Edit{Day: k, Field: FieldRecompute}, Options{RegenerateLog: true})
				require.NoError(t, err)
				assert.InDelta(t, 0, float64(res.Delta), 1e-6, "day %d", k)
				assertSameDays(t, sim.Days, res.Days)
				for i := range sim.StockLog {
					assert.InDelta(t, float64(sim.StockLog[i].Stock), float64(res.StockLog[i].Stock), 1e-6, "entry %d", i)
				}
			}

			marked := make([]model.DeliveryDay, len(sim.Days))
			for i, d := range sim.Days {
				d.Unresolved = true
				marked[i] = d
			}
			res, err := eng.Reconcile(s, marked, Options{})
			require.NoError(t, err)
			assert.InDelta(t, 0, float64(res.Delta), 1e-6)
			assertSameDays(t, sim.Days, res.Days)
		})
	}
}

func assertSameDays(t *testing.T, want, got []model.DeliveryDay) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, append([]model.Hour{}, want[i].DeliveryTimes...), append([]model.Hour{}, got[i].DeliveryTimes...), "day %d", i)
		assert.InDelta(t, float64(want[i].MorningStock), float64(got[i].MorningStock), 1e-6, "day %d", i)
		assert.InDelta(t, float64(want[i].EveningStock), float64(got[i].EveningStock), 1e-6, "day %d", i)
		for j := range want[i].PreDeliveryStock {
			assert.InDelta(t, float64(want[i].PreDeliveryStock[j]), float64(got[i].PreDeliveryStock[j]), 1e-6, "day %d", i)
			assert.InDelta(t, float64(want[i].PostDeliveryStock[j]), float64(got[i].PostDeliveryStock[j]), 1e-6, "day %d", i)
		}
	}
}

func TestReconcile(t *testing.T) {
	s, days := fixture()
	days[1].MorningStock = 50
	days[1].Unresolved = true

	eng := New(nil)
	res, err := eng.Reconcile(s, days, Options{RegenerateLog: true})
	require.NoError(t, err)
	assert.False(t, res.Days[1].Unresolved)
	assert.InDelta(t, 46, float64(res.Days[1].EveningStock), eps)
	assert.InDelta(t, 36, float64(res.Days[2].MorningStock), eps)
	assert.InDelta(t, 14, float64(res.Delta), eps)
	assert.Len(t, res.StockLog, 72)
	assert.True(t, days[1].Unresolved)

	again, err := eng.Reconcile(s, res.Days, Options{})
	require.NoError(t, err)
	assert.Equal(t, res.Days, again.Days)
	assert.Zero(t, again.CascadedDays)
}

func TestReconcileInOrder(t *testing.T) {
	s, days := fixture()
	days[0].MorningStock = 30
	days[0].Unresolved = true
	days[2].Unresolved = true

	res, err := New(nil).Reconcile(s, days, Options{})
	require.NoError(t, err)
	for _, d := range res.Days {
		assert.False(t, d.Unresolved)
	}
	// Day 0 loses 10, day 2 is shifted then re-derived from its new morning.
	assert.InDelta(t, 12, float64(res.Days[2].MorningStock), eps)
	assert.Equal(t, model.Level(0), res.Days[2].EveningStock)
	assertContinuous(t, s, res.Days)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("delivery_count")
	require.NoError(t, err)
	assert.Equal(t, FieldDeliveryCount, f)

	_, err = ParseField("weight")
	assert.True(t, errors.Is(err, model.ErrInvalidEdit))
}
