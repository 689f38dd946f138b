package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Processor parses device payloads
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

// MotionNotice is one "motion occurred" notification. ReceivedAt is the
// server receipt time and the only timestamp ever stored; DeviceTimestamp is
// diagnostic and nil when the payload did not carry a usable one.
type MotionNotice struct {
	ReceivedAt      time.Time
	DeviceTimestamp *int64
}

// motionPayload is the firmware's motion message, e.g. {"timestamp": 1732708465}
type motionPayload struct {
	Timestamp json.RawMessage `json:"timestamp"`
}

// ParseMotion builds a notice for a motion payload received at receivedAt.
// The notice is always usable; a non-nil error only reports why the device
// timestamp was dropped.
func (p *Processor) ParseMotion(payload []byte, receivedAt time.Time) (MotionNotice, error) {
	notice := MotionNotice{ReceivedAt: receivedAt}

	if len(bytes.TrimSpace(payload)) == 0 {
		return notice, nil
	}

	var msg motionPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return notice, fmt.Errorf("failed to parse motion payload: %w", err)
	}
	if len(msg.Timestamp) == 0 {
		return notice, nil
	}

	ts, err := parseDeviceTimestamp(msg.Timestamp)
	if err != nil {
		return notice, err
	}
	notice.DeviceTimestamp = &ts
	return notice, nil
}

// parseDeviceTimestamp accepts a JSON number or a numeric string; fractional
// seconds are truncated
func parseDeviceTimestamp(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}

	if ts, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ts, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid device timestamp %s", string(raw))
	}
	return int64(f), nil
}

// ParseStatus normalises a device status payload such as "online"
func (p *Processor) ParseStatus(payload []byte) string {
	status := strings.ToLower(strings.TrimSpace(string(payload)))
	if status == "" {
		return "unknown"
	}
	return status
}
