package analytics

import "sort"

// EnergyMetrics is the reconstructed duty cycle and energy of a day
type EnergyMetrics struct {
	HighSecondsToday   int64   `json:"highSecondsToday"`
	LowSecondsToday    int64   `json:"lowSecondsToday"`
	EnergyUsedWh       float64 `json:"energyUsedWh"`
	EnergySavedPercent float64 `json:"energySavedPercent"`
}

// interval is a half-open [start, end) span the light was held high
type interval struct {
	start int64
	end   int64
}

// EnergyEstimator reconstructs the light's high/low duty cycle from motion
// triggers and estimates its consumption against an always-high baseline
type EnergyEstimator struct {
	window    int64
	powerHigh float64
	powerLow  float64
}

// NewEnergyEstimator creates an energy estimator
func NewEnergyEstimator(settings Settings) *EnergyEstimator {
	return &EnergyEstimator{
		window:    settings.MotionWindowSeconds,
		powerHigh: settings.PowerHighWatts,
		powerLow:  settings.PowerLowWatts,
	}
}

// Estimate computes energy metrics for the timestamps of one day
func (e *EnergyEstimator) Estimate(timestamps []int64, bounds DayBounds) EnergyMetrics {
	total := bounds.Window()

	merged := mergeIntervals(e.intervals(timestamps, bounds))
	if len(merged) == 0 || total == 0 {
		return EnergyMetrics{LowSecondsToday: total}
	}

	var high int64
	for _, iv := range merged {
		high += iv.end - iv.start
	}
	if high > total {
		high = total
	}
	low := total - high

	used := float64(high)/3600*e.powerHigh + float64(low)/3600*e.powerLow
	baseline := float64(total) / 3600 * e.powerHigh

	var saved float64
	if baseline > 0 {
		saved = (baseline - used) / baseline * 100
		if saved < 0 {
			saved = 0
		}
	}

	return EnergyMetrics{
		HighSecondsToday:   high,
		LowSecondsToday:    low,
		EnergyUsedWh:       round(used, 4),
		EnergySavedPercent: round(saved, 2),
	}
}

// intervals builds one hold window per event clamped to bounds, dropping
// windows with nothing left inside the day
func (e *EnergyEstimator) intervals(timestamps []int64, bounds DayBounds) []interval {
	out := make([]interval, 0, len(timestamps))
	for _, ts := range timestamps {
		iv := interval{start: ts, end: ts + e.window}
		if iv.start < bounds.Start {
			iv.start = bounds.Start
		}
		if iv.end > bounds.End {
			iv.end = bounds.End
		}
		if iv.start < iv.end {
			out = append(out, iv)
		}
	}
	return out
}

// mergeIntervals sorts by start and folds overlapping or touching intervals
func mergeIntervals(intervals []interval) []interval {
	if len(intervals) == 0 {
		return nil
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	merged := []interval{intervals[0]}
	for _, iv := range intervals[1:] {
		run := &merged[len(merged)-1]
		if iv.start <= run.end {
			if iv.end > run.end {
				run.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
