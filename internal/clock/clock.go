package clock

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Clock supplies the server's notion of "now"
type Clock interface {
	Now() time.Time
}

// Fixed is a clock frozen at one instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// TimeManager is a wall clock that can be switched into a scaled virtual
// time for replaying scenarios
type TimeManager struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	logger       *slog.Logger
}

// NewTimeManager creates a time manager running on real time
func NewTimeManager(logger *slog.Logger) *TimeManager {
	return &TimeManager{
		realStart: time.Now(),
		timeScale: 1,
		logger:    logger,
	}
}

// TimeConfig is the payload published on the time configuration topic
type TimeConfig struct {
	VirtualStart string `json:"virtual_start"`
	TimeScale    int    `json:"time_scale"`
	TestMode     bool   `json:"test_mode"`
}

// Apply parses and applies a TimeConfig payload
func (tm *TimeManager) Apply(payload []byte) error {
	var cfg TimeConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return fmt.Errorf("failed to parse time config: %w", err)
	}

	if !cfg.TestMode {
		tm.mu.Lock()
		tm.testMode = false
		tm.mu.Unlock()
		tm.logger.Info("Virtual time disabled")
		return nil
	}

	virtualStart, err := time.Parse(time.RFC3339, cfg.VirtualStart)
	if err != nil {
		return fmt.Errorf("invalid virtual_start %q: %w", cfg.VirtualStart, err)
	}
	scale := cfg.TimeScale
	if scale < 1 {
		scale = 1
	}

	tm.mu.Lock()
	tm.testMode = true
	tm.virtualStart = virtualStart
	tm.realStart = time.Now()
	tm.timeScale = scale
	tm.mu.Unlock()

	tm.logger.Info("Virtual time enabled",
		"virtual_start", cfg.VirtualStart,
		"time_scale", scale)
	return nil
}

// Now returns the current time, real or virtual
func (tm *TimeManager) Now() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.testMode {
		return time.Now()
	}

	realElapsed := time.Since(tm.realStart)
	return tm.virtualStart.Add(realElapsed * time.Duration(tm.timeScale))
}

// IsTestMode returns whether virtual time is active
func (tm *TimeManager) IsTestMode() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.testMode
}
