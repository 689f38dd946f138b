package analytics

// IdleMetrics is the idle section of a report
type IdleMetrics struct {
	MaxIdleSeconds      int64  `json:"maxIdleSeconds"`
	LastEventAgeSeconds *int64 `json:"lastEventAgeSeconds"`
}

// IdleAnalyzer finds the longest motion-free gap of a day
type IdleAnalyzer struct{}

// NewIdleAnalyzer creates an idle analyzer
func NewIdleAnalyzer() *IdleAnalyzer {
	return &IdleAnalyzer{}
}

// Analyze computes idle metrics for ascending timestamps within bounds.
// The day edges count as gap ends. LastEventAgeSeconds is only set for the
// current day, where bounds.End is "now".
func (a *IdleAnalyzer) Analyze(timestamps []int64, bounds DayBounds) IdleMetrics {
	if len(timestamps) == 0 {
		return IdleMetrics{MaxIdleSeconds: bounds.Window()}
	}

	first := timestamps[0]
	last := timestamps[len(timestamps)-1]

	maxIdle := first - bounds.Start
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i] - timestamps[i-1]; gap > maxIdle {
			maxIdle = gap
		}
	}
	if tail := bounds.End - last; tail > maxIdle {
		maxIdle = tail
	}

	metrics := IdleMetrics{MaxIdleSeconds: maxIdle}
	if bounds.Today {
		age := bounds.End - last
		metrics.LastEventAgeSeconds = &age
	}
	return metrics
}
