package analytics

import (
	"fmt"
	"time"
)

// Settings holds the tunables shared by the analyzers. Each analyzer copies
// what it needs at construction, so tests can override them per instance.
type Settings struct {
	// SessionGapSeconds is the largest gap between two events of one session (inclusive)
	SessionGapSeconds int64

	// MotionWindowSeconds is how long the device holds the light high after a trigger
	MotionWindowSeconds int64

	// PowerHighWatts and PowerLowWatts are the light's draw in each state
	PowerHighWatts float64
	PowerLowWatts  float64

	// Location defines calendar days and hours
	Location *time.Location

	// Latitude and Longitude place the sensor for the daylight context
	Latitude  float64
	Longitude float64
}

// DefaultSettings returns the settings matching the reference device firmware
func DefaultSettings() Settings {
	return Settings{
		SessionGapSeconds:   120,
		MotionWindowSeconds: 3,
		PowerHighWatts:      3.0,
		PowerLowWatts:       0.5,
		Location:            time.Local,
		Latitude:            60.1695,
		Longitude:           24.9354,
	}
}

// Validate checks the settings for values the analyzers cannot work with
func (s Settings) Validate() error {
	if s.SessionGapSeconds < 0 {
		return fmt.Errorf("session gap must not be negative, got %d", s.SessionGapSeconds)
	}
	if s.MotionWindowSeconds <= 0 {
		return fmt.Errorf("motion window must be positive, got %d", s.MotionWindowSeconds)
	}
	if s.PowerHighWatts < 0 || s.PowerLowWatts < 0 {
		return fmt.Errorf("power draw must not be negative (high=%.2f, low=%.2f)", s.PowerHighWatts, s.PowerLowWatts)
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %.4f", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %.4f", s.Longitude)
	}
	return nil
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}
