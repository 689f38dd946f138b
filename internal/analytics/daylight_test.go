package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaylightAnalyzer_IsDaylight(t *testing.T) {
	analyzer := NewDaylightAnalyzer(DefaultSettings())

	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"midsummer noon", time.Date(2024, 6, 21, 10, 0, 0, 0, time.UTC), true},
		{"midwinter noon", time.Date(2024, 12, 21, 10, 30, 0, 0, time.UTC), true},
		{"midwinter evening", time.Date(2024, 12, 21, 18, 0, 0, 0, time.UTC), false},
		{"spring night", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, analyzer.IsDaylight(tt.at))
		})
	}
}

func TestDaylightAnalyzer_Analyze(t *testing.T) {
	analyzer := NewDaylightAnalyzer(DefaultSettings())

	empty := analyzer.Analyze(nil)
	assert.Zero(t, empty.EventsInDaylight)
	assert.Zero(t, empty.EventsAfterDark)
	assert.Nil(t, empty.AfterDarkPercent)

	noon := time.Date(2024, 6, 21, 10, 0, 0, 0, time.UTC).Unix()
	night := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).Unix()

	result := analyzer.Analyze([]int64{noon, noon + 60, night})
	assert.Equal(t, int64(2), result.EventsInDaylight)
	assert.Equal(t, int64(1), result.EventsAfterDark)
	require.NotNil(t, result.AfterDarkPercent)
	assert.InDelta(t, 33.33, *result.AfterDarkPercent, 1e-9)
}
