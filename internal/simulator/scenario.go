package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes a simulated motion history followed by live traffic
type Scenario struct {
	Name     string   `yaml:"name"`
	Seed     int64    `yaml:"seed"`
	Backfill Backfill `yaml:"backfill"`
	Live     Live     `yaml:"live"`
}

// Backfill spreads Hours*EventsPerHour random events over the last Hours hours
type Backfill struct {
	Hours         int `yaml:"hours"`
	EventsPerHour int `yaml:"events_per_hour"`
}

// Live emits one event every IntervalSeconds. Count 0 runs until cancelled.
type Live struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	Count           int     `yaml:"count"`
}

// DefaultScenario returns six hours of history at forty events an hour,
// then one live event every five seconds
func DefaultScenario() Scenario {
	return Scenario{
		Name: "default",
		Backfill: Backfill{
			Hours:         6,
			EventsPerHour: 40,
		},
		Live: Live{
			IntervalSeconds: 5,
		},
	}
}

// LoadScenario loads a scenario from a YAML file. Omitted fields keep
// their DefaultScenario values.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes loads a scenario from YAML data
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	scenario := DefaultScenario()
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	return &scenario, nil
}

// Validate performs validation checks on a scenario
func (s *Scenario) Validate() error {
	if s.Backfill.Hours < 0 {
		return fmt.Errorf("backfill.hours cannot be negative")
	}
	if s.Backfill.EventsPerHour < 0 {
		return fmt.Errorf("backfill.events_per_hour cannot be negative")
	}
	if s.Live.Count < 0 {
		return fmt.Errorf("live.count cannot be negative")
	}
	if s.Live.Count != 0 && s.Live.IntervalSeconds <= 0 {
		return fmt.Errorf("live.interval_seconds must be positive")
	}
	if s.Live.IntervalSeconds < 0 {
		return fmt.Errorf("live.interval_seconds cannot be negative")
	}
	return nil
}
