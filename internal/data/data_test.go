package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silo-dispatch/internal/model"
	"silo-dispatch/internal/simulate"
)

func TestResultCacheTTL(t *testing.T) {
	c := NewResultCache(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	run := c.Put("plant-1", model.Settings{ProductKey: "caustic"}, &simulate.Result{Deliveries: 2})
	assert.NotEqual(t, uuid.Nil, run.ID)

	got, ok := c.Get(run.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Result.Deliveries)
	assert.Equal(t, "plant-1", got.Facility)

	_, ok = c.Get(uuid.New())
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(run.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Purge())
	assert.Zero(t, c.Len())
}

func TestResultCacheCleanupStops(t *testing.T) {
	c := NewResultCache(time.Millisecond)
	c.Put("", model.Settings{}, &simulate.Result{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Cleanup(ctx, 5*time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}

func TestNilCacheGet(t *testing.T) {
	var c *ResultCache
	_, ok := c.Get(uuid.New())
	assert.False(t, ok)
}

func TestScheduleJSONRoundTrip(t *testing.T) {
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
	res, err := simulate.New(nil).Run(s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "schedule.json")
	require.NoError(t, SaveScheduleJSON(path, &ScheduleFile{Settings: s, Days: res.Days}))

	got, err := LoadScheduleJSON(path)
	require.NoError(t, err)
	require.Len(t, got.Days, 2)
	assert.Equal(t, res.Days[1].DeliveryTimes, got.Days[1].DeliveryTimes)
	assert.InDelta(t, float64(res.Days[1].EveningStock), float64(got.Days[1].EveningStock), 1e-9)
	assert.Equal(t, 2, got.Settings.HorizonDays())

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, SaveScheduleJSON(empty, &ScheduleFile{Settings: s}))
	_, err = LoadScheduleJSON(empty)
	assert.Error(t, err)
}
