package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/redis"
)

const (
	fieldLastMotionAt        = "last_motion_at"
	fieldLastDeviceTimestamp = "last_device_timestamp"
	fieldStatus              = "status"
	fieldStatusAt            = "status_at"
)

// DeviceStatus is the last known state of the motion device
type DeviceStatus struct {
	Status              string `json:"status"`
	StatusAt            *int64 `json:"statusAt"`
	LastMotionAt        *int64 `json:"lastMotionAt"`
	LastDeviceTimestamp *int64 `json:"lastDeviceTimestamp"`
}

// StatusStore keeps device state in a Redis hash
type StatusStore struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewStatusStore creates a status store on the given Redis client
func NewStatusStore(redisClient redis.Client, logger *slog.Logger) *StatusStore {
	return &StatusStore{
		redis:  redisClient,
		logger: logger,
	}
}

// RecordMotion stores the time of the latest recorded motion event
func (s *StatusStore) RecordMotion(ctx context.Context, event store.MotionEvent, notice MotionNotice) error {
	fields := map[string]interface{}{
		fieldLastMotionAt: event.Timestamp,
	}
	if notice.DeviceTimestamp != nil {
		fields[fieldLastDeviceTimestamp] = *notice.DeviceTimestamp
	}

	if err := s.redis.HSet(ctx, redis.DeviceStatusKey, fields); err != nil {
		return fmt.Errorf("failed to record motion: %w", err)
	}
	return nil
}

// RecordStatus stores a device status report received at the given time
func (s *StatusStore) RecordStatus(ctx context.Context, status string, at time.Time) error {
	fields := map[string]interface{}{
		fieldStatus:   status,
		fieldStatusAt: at.Unix(),
	}

	if err := s.redis.HSet(ctx, redis.DeviceStatusKey, fields); err != nil {
		return fmt.Errorf("failed to record device status: %w", err)
	}
	return nil
}

// Get returns the stored device state; a device never seen reports "unknown"
func (s *StatusStore) Get(ctx context.Context) (DeviceStatus, error) {
	fields, err := s.redis.HGetAll(ctx, redis.DeviceStatusKey)
	if err != nil {
		return DeviceStatus{}, err
	}

	status := DeviceStatus{Status: fields[fieldStatus]}
	if status.Status == "" {
		status.Status = "unknown"
	}
	status.StatusAt = s.parseInt(fields, fieldStatusAt)
	status.LastMotionAt = s.parseInt(fields, fieldLastMotionAt)
	status.LastDeviceTimestamp = s.parseInt(fields, fieldLastDeviceTimestamp)

	return status, nil
}

// Ping checks the Redis connection
func (s *StatusStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

func (s *StatusStore) parseInt(fields map[string]string, key string) *int64 {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("Ignoring invalid device status field", "field", key, "value", raw)
		return nil
	}
	return &v
}
