package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/saaga0h/lumos-platform/internal/store"
)

// trendWindowDays is the trailing window the week average covers, day included
const trendWindowDays = 7

// CountLookup is the part of the event store the trend analyzer reads
type CountLookup interface {
	CountForDay(ctx context.Context, day string) (int64, error)
	CountsForRange(ctx context.Context, startDay, endDay string) (map[string]int64, error)
}

// TrendMetrics compares a day's count against the day before and the
// trailing week. Deltas are nil when their reference is zero.
type TrendMetrics struct {
	TodayCount              int64    `json:"todayCount"`
	YesterdayCount          int64    `json:"yesterdayCount"`
	WeekAverage             float64  `json:"weekAverage"`
	DeltaVsYesterdayPercent *float64 `json:"deltaVsYesterdayPercent"`
	DeltaVsWeekPercent      *float64 `json:"deltaVsWeekPercent"`
}

// TrendAnalyzer computes short-term count trends from the event store
type TrendAnalyzer struct {
	counts CountLookup
	loc    *time.Location
}

// NewTrendAnalyzer creates a trend analyzer reading counts from lookup
func NewTrendAnalyzer(lookup CountLookup, settings Settings) *TrendAnalyzer {
	return &TrendAnalyzer{counts: lookup, loc: settings.location()}
}

// Analyze computes trends for day (YYYY-MM-DD)
func (a *TrendAnalyzer) Analyze(ctx context.Context, day string) (TrendMetrics, error) {
	date, err := store.ParseDay(day, a.loc)
	if err != nil {
		return TrendMetrics{}, err
	}
	yesterday := store.DayKey(date.AddDate(0, 0, -1), a.loc)

	today, err := a.counts.CountForDay(ctx, day)
	if err != nil {
		return TrendMetrics{}, fmt.Errorf("failed to count %s: %w", day, err)
	}
	prev, err := a.counts.CountForDay(ctx, yesterday)
	if err != nil {
		return TrendMetrics{}, fmt.Errorf("failed to count %s: %w", yesterday, err)
	}

	week, err := WeekCounts(ctx, a.counts, date, a.loc)
	if err != nil {
		return TrendMetrics{}, err
	}

	return ComputeTrends(today, prev, week), nil
}

// WeekCounts returns the trailing seven daily counts ending at day, oldest
// first, with days lacking data filled with zero
func WeekCounts(ctx context.Context, lookup CountLookup, day time.Time, loc *time.Location) ([]int64, error) {
	start := day.AddDate(0, 0, -(trendWindowDays - 1))
	startKey, endKey := store.DayKey(start, loc), store.DayKey(day, loc)

	byDay, err := lookup.CountsForRange(ctx, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s..%s: %w", startKey, endKey, err)
	}

	counts := make([]int64, trendWindowDays)
	for i := range counts {
		counts[i] = byDay[store.DayKey(start.AddDate(0, 0, i), loc)]
	}
	return counts, nil
}

// ComputeTrends derives trend metrics from already fetched counts
func ComputeTrends(today, yesterday int64, week []int64) TrendMetrics {
	var average float64
	if len(week) > 0 {
		var sum int64
		for _, c := range week {
			sum += c
		}
		average = float64(sum) / float64(len(week))
	}

	return TrendMetrics{
		TodayCount:              today,
		YesterdayCount:          yesterday,
		WeekAverage:             round(average, 2),
		DeltaVsYesterdayPercent: roundPtr(percentDelta(float64(today), float64(yesterday)), 2),
		DeltaVsWeekPercent:      roundPtr(percentDelta(float64(today), average), 2),
	}
}

// percentDelta returns the change of value relative to reference in percent,
// nil for a non-positive reference
func percentDelta(value, reference float64) *float64 {
	if reference <= 0 {
		return nil
	}
	delta := (value - reference) / reference * 100
	return &delta
}
