package simulator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/mqtt"
)

// Sink receives simulated motion timestamps
type Sink interface {
	Emit(ctx context.Context, ts int64) error
	Name() string
}

// StoreSink inserts events straight into an event store
type StoreSink struct {
	store store.EventStore
}

// NewStoreSink creates a sink writing to es
func NewStoreSink(es store.EventStore) *StoreSink {
	return &StoreSink{store: es}
}

func (s *StoreSink) Emit(ctx context.Context, ts int64) error {
	if _, err := s.store.Insert(ctx, ts); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *StoreSink) Name() string { return "store" }

// MotionPayload is the device's motion message body
type MotionPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// MQTTSink publishes events the way the device does
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink creates a sink publishing to topic
func NewMQTTSink(client mqtt.Client, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: topic}
}

func (s *MQTTSink) Emit(ctx context.Context, ts int64) error {
	payload, err := json.Marshal(MotionPayload{Timestamp: ts})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := s.client.Publish(s.topic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *MQTTSink) Name() string { return "mqtt" }
