package analytics

// daysInHistory is the length of the detectionsByDay series
const daysInHistory = 7

// noPeakHour is reported when a day has no events
const noPeakHour = "N/A"

// Report is the consolidated metrics document served to dashboards. Its JSON
// shape is identical for successful and fallback reports.
type Report struct {
	Day                string          `json:"day"`
	TotalDetections    int64           `json:"totalDetections"`
	ActivitiesToday    int64           `json:"activitiesToday"`
	DetectionsByDay    []int64         `json:"detectionsByDay"`
	PeakHours          string          `json:"peakHours"`
	HourlyDistribution map[int]int64   `json:"hourlyDistribution"`
	SessionsToday      SessionSummary  `json:"sessionsToday"`
	IdleMetrics        IdleMetrics     `json:"idleMetrics"`
	EnergyMetrics      EnergyMetrics   `json:"energyMetrics"`
	Trends             TrendMetrics    `json:"trends"`
	Daylight           DaylightMetrics `json:"daylight"`
}

// DefaultReport returns the fixed report substituted when aggregation fails:
// every count zero, peak hour "N/A", every percentage null
func DefaultReport() Report {
	return Report{
		DetectionsByDay:    make([]int64, daysInHistory),
		PeakHours:          noPeakHour,
		HourlyDistribution: map[int]int64{},
	}
}

// Result is the outcome of one aggregation. On failure Err is set and Report
// holds DefaultReport, never a partial report.
type Result struct {
	Report Report
	Err    error
}

// OK reports whether the report was computed from the store
func (r Result) OK() bool {
	return r.Err == nil
}
