package analytics

import (
	"time"

	"github.com/sixdouglas/suncalc"
)

// DaylightMetrics splits a day's events by whether the sun was up
type DaylightMetrics struct {
	EventsInDaylight int64    `json:"eventsInDaylight"`
	EventsAfterDark  int64    `json:"eventsAfterDark"`
	AfterDarkPercent *float64 `json:"afterDarkPercent"`
}

// DaylightAnalyzer classifies events by sun altitude at the sensor location
type DaylightAnalyzer struct {
	lat float64
	lon float64
}

// NewDaylightAnalyzer creates a daylight analyzer
func NewDaylightAnalyzer(settings Settings) *DaylightAnalyzer {
	return &DaylightAnalyzer{lat: settings.Latitude, lon: settings.Longitude}
}

// Analyze counts events with the sun above and below the horizon
func (a *DaylightAnalyzer) Analyze(timestamps []int64) DaylightMetrics {
	var metrics DaylightMetrics
	for _, ts := range timestamps {
		if a.IsDaylight(time.Unix(ts, 0)) {
			metrics.EventsInDaylight++
		} else {
			metrics.EventsAfterDark++
		}
	}

	if len(timestamps) > 0 {
		pct := round(float64(metrics.EventsAfterDark)/float64(len(timestamps))*100, 2)
		metrics.AfterDarkPercent = &pct
	}
	return metrics
}

// IsDaylight reports whether the sun is above the horizon at t
func (a *DaylightAnalyzer) IsDaylight(t time.Time) bool {
	return suncalc.GetPosition(t, a.lat, a.lon).Altitude > 0
}
