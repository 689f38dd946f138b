package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/lumos-platform/internal/clock"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/observability"
)

// Aggregator assembles the metrics report of a day. It reads the day's events
// from the store once and hands the same ordered timestamps to every analyzer.
type Aggregator struct {
	store    store.EventStore
	clock    clock.Clock
	loc      *time.Location
	sessions *SessionBuilder
	idle     *IdleAnalyzer
	energy   *EnergyEstimator
	trends   *TrendAnalyzer
	daylight *DaylightAnalyzer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAggregator creates an aggregator. metrics may be nil.
func NewAggregator(es store.EventStore, clk clock.Clock, settings Settings, metrics *observability.Metrics, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:    es,
		clock:    clk,
		loc:      settings.location(),
		sessions: NewSessionBuilder(settings),
		idle:     NewIdleAnalyzer(),
		energy:   NewEnergyEstimator(settings),
		trends:   NewTrendAnalyzer(es, settings),
		daylight: NewDaylightAnalyzer(settings),
		metrics:  metrics,
		logger:   logger,
	}
}

// Today returns the current day key according to the aggregator's clock
func (a *Aggregator) Today() string {
	return store.DayKey(a.clock.Now(), a.loc)
}

// BuildToday builds the report for the current day
func (a *Aggregator) BuildToday(ctx context.Context) Result {
	return a.BuildForDay(ctx, a.Today())
}

// BuildForDay builds the report for day (YYYY-MM-DD). Any failure yields
// DefaultReport together with the error.
func (a *Aggregator) BuildForDay(ctx context.Context, day string) Result {
	start := time.Now()

	report, err := a.build(ctx, day, a.clock.Now())
	a.metrics.ReportBuilt(time.Since(start), err != nil)

	if err != nil {
		a.logger.Error("Failed to build metrics report, serving default report", "day", day, "error", err)
		return Result{Report: DefaultReport(), Err: err}
	}

	a.logger.Debug("Built metrics report",
		"day", day,
		"events", report.ActivitiesToday,
		"sessions", report.SessionsToday.Count,
		"duration_ms", time.Since(start).Milliseconds())
	return Result{Report: report}
}

func (a *Aggregator) build(ctx context.Context, day string, now time.Time) (Report, error) {
	bounds, err := NewDayBounds(day, now, a.loc)
	if err != nil {
		return Report{}, err
	}
	date, err := store.ParseDay(day, a.loc)
	if err != nil {
		return Report{}, err
	}

	total, err := a.store.TotalCount(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to count events: %w", err)
	}

	week, err := WeekCounts(ctx, a.store, date, a.loc)
	if err != nil {
		return Report{}, err
	}
	byDay := make([]int64, daysInHistory)
	for i := range byDay {
		byDay[i] = week[len(week)-1-i]
	}

	histogram, err := a.store.HourlyHistogram(ctx, day)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load hourly histogram for %s: %w", day, err)
	}

	events, err := a.store.EventsForDay(ctx, day)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load events for %s: %w", day, err)
	}
	timestamps := make([]int64, len(events))
	for i, e := range events {
		timestamps[i] = e.Timestamp
	}

	trends, err := a.trends.Analyze(ctx, day)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Day:                day,
		TotalDetections:    total,
		ActivitiesToday:    byDay[0],
		DetectionsByDay:    byDay,
		PeakHours:          PeakHours(histogram),
		HourlyDistribution: histogram,
		SessionsToday:      Summarize(a.sessions.Build(timestamps)),
		IdleMetrics:        a.idle.Analyze(timestamps, bounds),
		EnergyMetrics:      a.energy.Estimate(timestamps, bounds),
		Trends:             trends,
		Daylight:           a.daylight.Analyze(timestamps),
	}, nil
}

// PeakHours formats the busiest hour of a histogram as "HHh-HHh". Ties go to
// the earliest hour; an empty histogram yields "N/A".
func PeakHours(histogram map[int]int64) string {
	peak, best := -1, int64(0)
	for hour := 0; hour < 24; hour++ {
		if count := histogram[hour]; count > best {
			peak, best = hour, count
		}
	}
	if peak < 0 {
		return noPeakHour
	}
	return fmt.Sprintf("%02dh-%02dh", peak, (peak+1)%24)
}
