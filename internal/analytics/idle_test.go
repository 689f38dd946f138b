package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleAnalyzer_Analyze(t *testing.T) {
	today := DayBounds{Start: 1000, End: 5000, Today: true}
	past := DayBounds{Start: 0, End: 86400}

	tests := []struct {
		name        string
		timestamps  []int64
		bounds      DayBounds
		expectedMax int64
		expectedAge *int64
	}{
		{"empty today covers midnight to now", nil, today, 4000, nil},
		{"empty past day covers full day", nil, past, 86400, nil},
		{"leading gap wins", []int64{3000, 3100, 4900}, today, 2000, ptr(int64(100))},
		{"inner gap wins", []int64{1100, 4800}, today, 3700, ptr(int64(200))},
		{"trailing gap wins", []int64{1010, 1020}, today, 3980, ptr(int64(3980))},
		{"past day has no age", []int64{40000}, past, 46400, nil},
	}

	analyzer := NewIdleAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(tt.timestamps, tt.bounds)
			assert.Equal(t, tt.expectedMax, result.MaxIdleSeconds)
			if tt.expectedAge == nil {
				assert.Nil(t, result.LastEventAgeSeconds)
			} else {
				require.NotNil(t, result.LastEventAgeSeconds)
				assert.Equal(t, *tt.expectedAge, *result.LastEventAgeSeconds)
			}
		})
	}
}

func TestIdleAnalyzer_EmptyTodayFromBounds(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	now := time.Date(2024, 6, 1, 13, 30, 0, 0, loc)
	midnight := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)

	bounds, err := NewDayBounds("2024-06-01", now, loc)
	require.NoError(t, err)
	require.True(t, bounds.Today)

	result := NewIdleAnalyzer().Analyze(nil, bounds)
	assert.Equal(t, now.Unix()-midnight.Unix(), result.MaxIdleSeconds)
	assert.Nil(t, result.LastEventAgeSeconds)
}

func TestNewDayBounds(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skip("tzdata not available")
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, helsinki)

	tests := []struct {
		day    string
		window int64
		today  bool
	}{
		{"2024-06-01", 12 * 3600, true},
		{"2024-05-31", 24 * 3600, false},
		// Spring forward and fall back
		{"2024-03-31", 23 * 3600, false},
		{"2024-10-27", 25 * 3600, false},
	}

	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			bounds, err := NewDayBounds(tt.day, now, helsinki)
			require.NoError(t, err)
			assert.Equal(t, tt.today, bounds.Today)
			assert.Equal(t, tt.window, bounds.Window())
		})
	}

	_, err = NewDayBounds("June 1st", now, helsinki)
	assert.Error(t, err)
}

func ptr[T any](v T) *T {
	return &v
}
