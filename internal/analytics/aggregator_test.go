package analytics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/lumos-platform/internal/clock"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func utcSettings() Settings {
	settings := DefaultSettings()
	settings.Location = time.UTC
	return settings
}

// seedStore fills a store around 2024-05-10 and returns it with "now" at noon
func seedStore(t *testing.T) (*store.MemoryStore, time.Time) {
	t.Helper()
	ctx := context.Background()
	es := store.NewMemoryStore(time.UTC)
	midnight := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	m := midnight.Unix()

	for _, ts := range []int64{m, m + 5, m + 130, m + 36000, m + 36010} {
		_, err := es.Insert(ctx, ts)
		require.NoError(t, err)
	}
	insertAt(t, es, midnight.AddDate(0, 0, -1), 5)
	insertAt(t, es, midnight.AddDate(0, 0, -3), 4)
	insertAt(t, es, midnight.AddDate(0, 0, -30), 1)

	return es, midnight.Add(12 * time.Hour)
}

func TestAggregator_BuildToday(t *testing.T) {
	es, now := seedStore(t)
	agg := NewAggregator(es, clock.Fixed(now), utcSettings(), observability.NewMetrics(), testLogger())

	result := agg.BuildToday(context.Background())
	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	report := result.Report

	assert.Equal(t, "2024-05-10", report.Day)
	assert.Equal(t, int64(15), report.TotalDetections)
	assert.Equal(t, int64(5), report.ActivitiesToday)
	assert.Equal(t, []int64{5, 5, 0, 4, 0, 0, 0}, report.DetectionsByDay)
	assert.Equal(t, map[int]int64{0: 3, 10: 2}, report.HourlyDistribution)
	assert.Equal(t, "00h-01h", report.PeakHours)

	assert.Equal(t, SessionSummary{Count: 3, AverageDurationSeconds: 5, MaxDurationSeconds: 10}, report.SessionsToday)

	assert.Equal(t, int64(35870), report.IdleMetrics.MaxIdleSeconds)
	require.NotNil(t, report.IdleMetrics.LastEventAgeSeconds)
	assert.Equal(t, int64(7190), *report.IdleMetrics.LastEventAgeSeconds)

	assert.Equal(t, int64(15), report.EnergyMetrics.HighSecondsToday)
	assert.Equal(t, int64(43185), report.EnergyMetrics.LowSecondsToday)

	assert.Equal(t, int64(5), report.Trends.TodayCount)
	assert.Equal(t, int64(5), report.Trends.YesterdayCount)
	assert.InDelta(t, 2.0, report.Trends.WeekAverage, 1e-9)
	assertPercent(t, ptr(0.0), report.Trends.DeltaVsYesterdayPercent)
	assertPercent(t, ptr(150.0), report.Trends.DeltaVsWeekPercent)

	assert.Equal(t, int64(5), report.Daylight.EventsInDaylight+report.Daylight.EventsAfterDark)
}

func TestAggregator_Idempotent(t *testing.T) {
	es, now := seedStore(t)
	agg := NewAggregator(es, clock.Fixed(now), utcSettings(), nil, testLogger())

	first := agg.BuildToday(context.Background())
	second := agg.BuildToday(context.Background())
	require.True(t, first.OK())
	assert.Equal(t, first.Report, second.Report)
}

func TestAggregator_PastDay(t *testing.T) {
	es, now := seedStore(t)
	agg := NewAggregator(es, clock.Fixed(now), utcSettings(), nil, testLogger())

	result := agg.BuildForDay(context.Background(), "2024-05-09")
	require.True(t, result.OK())
	report := result.Report

	assert.Equal(t, int64(5), report.ActivitiesToday)
	assert.Equal(t, []int64{5, 0, 4, 0, 0, 0, 0}, report.DetectionsByDay)
	assert.Nil(t, report.IdleMetrics.LastEventAgeSeconds)
	assert.Equal(t, int64(86400), report.EnergyMetrics.HighSecondsToday+report.EnergyMetrics.LowSecondsToday)
	assert.Equal(t, "08h-09h", report.PeakHours)
	assert.Nil(t, report.Trends.DeltaVsYesterdayPercent)
}

func TestAggregator_EmptyDay(t *testing.T) {
	now := time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC)
	agg := NewAggregator(store.NewMemoryStore(time.UTC), clock.Fixed(now), utcSettings(), nil, testLogger())

	result := agg.BuildToday(context.Background())
	require.True(t, result.OK())
	report := result.Report

	assert.Equal(t, "N/A", report.PeakHours)
	assert.Equal(t, int64(6*3600), report.IdleMetrics.MaxIdleSeconds)
	assert.Nil(t, report.IdleMetrics.LastEventAgeSeconds)
	assert.Zero(t, report.EnergyMetrics.HighSecondsToday)
	assert.Equal(t, int64(6*3600), report.EnergyMetrics.LowSecondsToday)
	assert.Zero(t, report.EnergyMetrics.EnergySavedPercent)
	assert.Nil(t, report.Daylight.AfterDarkPercent)
}

func TestAggregator_FailureYieldsDefaultReport(t *testing.T) {
	es, now := seedStore(t)
	broken := &brokenEventsStore{MemoryStore: es}
	agg := NewAggregator(broken, clock.Fixed(now), utcSettings(), nil, testLogger())

	result := agg.BuildToday(context.Background())
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, errStoreDown)
	assert.Equal(t, DefaultReport(), result.Report)
}

func TestAggregator_InvalidDay(t *testing.T) {
	agg := NewAggregator(store.NewMemoryStore(time.UTC), clock.Fixed(time.Now()), utcSettings(), nil, testLogger())

	result := agg.BuildForDay(context.Background(), "2024/05/10")
	assert.ErrorIs(t, result.Err, store.ErrInvalidDay)
	assert.Equal(t, DefaultReport(), result.Report)
}

func TestDefaultReport_JSONShape(t *testing.T) {
	raw, err := json.Marshal(DefaultReport())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "N/A", doc["peakHours"])
	assert.Equal(t, []interface{}{0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0}, doc["detectionsByDay"])
	assert.Equal(t, map[string]interface{}{}, doc["hourlyDistribution"])

	trends := doc["trends"].(map[string]interface{})
	assert.Contains(t, trends, "deltaVsYesterdayPercent")
	assert.Nil(t, trends["deltaVsYesterdayPercent"])
	assert.Nil(t, trends["deltaVsWeekPercent"])

	idle := doc["idleMetrics"].(map[string]interface{})
	assert.Contains(t, idle, "lastEventAgeSeconds")
	assert.Nil(t, idle["lastEventAgeSeconds"])

	for _, key := range []string{"totalDetections", "activitiesToday", "sessionsToday", "energyMetrics", "daylight"} {
		assert.Contains(t, doc, key)
	}
}

func TestPeakHours(t *testing.T) {
	tests := []struct {
		name      string
		histogram map[int]int64
		expected  string
	}{
		{"empty", map[int]int64{}, "N/A"},
		{"single", map[int]int64{9: 4}, "09h-10h"},
		{"tie goes to earliest hour", map[int]int64{14: 5, 7: 5, 20: 2}, "07h-08h"},
		{"last hour wraps", map[int]int64{23: 1}, "23h-00h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PeakHours(tt.histogram))
		})
	}
}

type brokenEventsStore struct {
	*store.MemoryStore
}

func (b *brokenEventsStore) EventsForDay(ctx context.Context, day string) ([]store.MotionEvent, error) {
	return nil, errStoreDown
}
