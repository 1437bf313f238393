package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silo-dispatch/internal/config"
	"silo-dispatch/internal/metrics"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/recalc"
	"silo-dispatch/internal/store"
)

var start = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func testCatalog() *config.Catalog {
	return &config.Catalog{Products: map[string]config.ProductConfig{
		"caustic": {
			Name:           "Caustic soda",
			MinLevel:       30,
			MaxLevel:       80,
			DeliveryAmount: 29,
			DailyUsage:     []model.DailyUsage{model.DailyTotal(40)},
		},
		"acid": {
			Name:           "Sulphuric acid",
			MinLevel:       3000,
			MaxLevel:       9000,
			DeliveryAmount: 20,
			DailyUsage:     []model.DailyUsage{model.DailyTotal(20)},
			ConversionRate: 100,
			Unit:           model.UnitLevel,
		},
		"idle": {
			MinLevel:       10,
			MaxLevel:       50,
			DeliveryAmount: 5,
		},
	}}
}

func newPlanner(t *testing.T) (*Planner, *store.Store, *metrics.PromSink) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "silo.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	sink, err := metrics.NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	p := NewPlanner(Options{
		Catalog:     testCatalog(),
		Store:       st,
		Metrics:     sink,
		Concurrency: 2,
	})
	return p, st, sink
}

func causticRequest() ProductRequest {
	return ProductRequest{
		Facility:     "plant-1",
		ProductKey:   "caustic",
		Start:        start,
		End:          start.AddDate(0, 0, 2),
		CurrentStock: 50,
	}
}

func TestSimulateProductPersistsAndCaches(t *testing.T) {
	ctx := context.Background()
	p, st, _ := newPlanner(t)

	run, err := p.SimulateProduct(ctx, causticRequest())
	require.NoError(t, err)
	require.Len(t, run.Result.Days, 3)
	assert.Equal(t, "caustic", run.Settings.ProductKey)

	cached, err := p.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, cached.ID)

	sc, err := st.LoadSchedule(ctx, "plant-1", "caustic")
	require.NoError(t, err)
	assert.Len(t, sc.Days, 3)
	assert.Equal(t, run.Result.Days[0].DeliveryTimes, sc.Days[0].DeliveryTimes)

	_, err = p.Run(uuid.New())
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSimulateProductUnknown(t *testing.T) {
	p, _, _ := newPlanner(t)
	req := causticRequest()
	req.ProductKey = "bleach"
	_, err := p.SimulateProduct(context.Background(), req)
	assert.True(t, errors.Is(err, model.ErrUnknownProduct))

	req.ProductKey = ""
	_, err = p.SimulateProduct(context.Background(), req)
	assert.True(t, errors.Is(err, model.ErrUnknownProduct))
}

func TestSimulateWithoutFacilitySkipsStore(t *testing.T) {
	ctx := context.Background()
	p, st, _ := newPlanner(t)
	req := causticRequest()
	req.Facility = ""
	_, err := p.SimulateProduct(ctx, req)
	require.NoError(t, err)

	keys, err := st.ListSchedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEditStoredSchedule(t *testing.T) {
	ctx := context.Background()
	p, st, _ := newPlanner(t)
	run, err := p.SimulateProduct(ctx, causticRequest())
	require.NoError(t, err)

	before := run.Result.Days
	res, err := p.Edit(ctx, "plant-1", "caustic", recalc.Edit{Day: 0, Field: recalc.FieldMorningStock, Stock: 60})
	require.NoError(t, err)
	assert.InDelta(t, 10, float64(res.Delta), 1e-6)
	assert.Equal(t, 2, res.CascadedDays)
	assert.Len(t, res.StockLog, 72)

	sc, err := st.LoadSchedule(ctx, "plant-1", "caustic")
	require.NoError(t, err)
	assert.InDelta(t, float64(before[2].MorningStock)+10, float64(sc.Days[2].MorningStock), 1e-6)
}

func TestEditOrderingAndReconcile(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newPlanner(t)
	run, err := p.SimulateProduct(ctx, causticRequest())
	require.NoError(t, err)

	require.NoError(t, p.MarkUnresolved(ctx, "plant-1", "caustic", run.Result.Days[0].Date))
	_, err = p.Edit(ctx, "plant-1", "caustic", recalc.Edit{Day: 1, Field: recalc.FieldRecompute})
	assert.True(t, errors.Is(err, model.ErrEditOrdering))

	res, err := p.Reconcile(ctx, "plant-1", "caustic")
	require.NoError(t, err)
	for _, d := range res.Days {
		assert.False(t, d.Unresolved)
	}

	_, err = p.Edit(ctx, "plant-1", "caustic", recalc.Edit{Day: 1, Field: recalc.FieldRecompute})
	assert.NoError(t, err)
}

func TestScheduleOpsWithoutStore(t *testing.T) {
	p := NewPlanner(Options{Catalog: testCatalog()})
	_, err := p.Schedule(context.Background(), "plant-1", "caustic")
	assert.True(t, errors.Is(err, ErrNoStore))
	_, err = p.Reconcile(context.Background(), "plant-1", "caustic")
	assert.True(t, errors.Is(err, ErrNoStore))
	assert.True(t, errors.Is(p.MarkUnresolved(context.Background(), "a", "b", start), ErrNoStore))
}

func TestPlanAllRanksByRisk(t *testing.T) {
	p, _, _ := newPlanner(t)
	reqs := []ProductRequest{
		{ProductKey: "caustic", Start: start, End: start.AddDate(0, 0, 2), CurrentStock: 50},
		{ProductKey: "idle", Start: start, End: start.AddDate(0, 0, 2), CurrentStock: 2},
		{ProductKey: "acid", Start: start, End: start.AddDate(0, 0, 2), CurrentStock: 5000},
	}
	out, err := p.PlanAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	// Zero usage never triggers a delivery, so "idle" stays below its floor.
	assert.Equal(t, "idle", out[0].Summary.ProductKey)
	assert.Equal(t, 72, out[0].Summary.HoursLow)
	for _, pl := range out {
		_, err := p.Run(pl.RunID)
		assert.NoError(t, err)
	}
}

func TestPlanAllFails(t *testing.T) {
	p, _, _ := newPlanner(t)
	reqs := []ProductRequest{
		{ProductKey: "caustic", Start: start, End: start.AddDate(0, 0, 1), CurrentStock: 50},
		{ProductKey: "caustic", Start: start, End: start.AddDate(0, 0, -1), CurrentStock: 50},
	}
	_, err := p.PlanAll(context.Background(), reqs)
	assert.True(t, errors.Is(err, model.ErrInvalidHorizon))
}

func TestRecalculateStateless(t *testing.T) {
	p, _, _ := newPlanner(t)
	s, err := p.Settings(causticRequest())
	require.NoError(t, err)
	run, err := p.Simulate(context.Background(), "", s)
	require.NoError(t, err)

	res, err := p.Recalculate(s, run.Result.Days, recalc.Edit{Day: 0, Field: recalc.FieldDeliveryCount, Count: 0}, recalc.Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Days[0].DeliveryTimes)

	_, err = p.Recalculate(s, run.Result.Days, recalc.Edit{Day: 9, Field: recalc.FieldRecompute}, recalc.Options{})
	assert.True(t, errors.Is(err, model.ErrInvalidEdit))
}

func TestSchedulesListAndDelete(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newPlanner(t)
	assert.True(t, p.Persistent())

	_, err := p.SimulateProduct(ctx, causticRequest())
	require.NoError(t, err)
	keys, err := p.Schedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Key{{Facility: "plant-1", Product: "caustic"}}, keys)

	require.NoError(t, p.DeleteSchedule(ctx, "plant-1", "caustic"))
	_, err = p.Schedule(ctx, "plant-1", "caustic")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
