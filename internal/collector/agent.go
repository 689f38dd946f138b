package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/lumos-platform/internal/clock"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/config"
	"github.com/saaga0h/lumos-platform/pkg/mqtt"
	"github.com/saaga0h/lumos-platform/pkg/observability"
)

// timeConfigurable is implemented by clocks that accept virtual time settings
type timeConfigurable interface {
	Apply(payload []byte) error
}

// Agent receives motion notifications over MQTT and records them. Message
// callbacks only stamp and enqueue; a single writer goroutine performs the
// store inserts.
type Agent struct {
	mqtt      mqtt.Client
	store     store.EventStore
	status    *StatusStore
	clock     clock.Clock
	processor *Processor
	metrics   *observability.Metrics
	cfg       *config.Config
	logger    *slog.Logger

	queue   chan MotionNotice
	stopped chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

// NewAgent creates a new collector agent. status and metrics may be nil.
func NewAgent(mqttClient mqtt.Client, es store.EventStore, status *StatusStore, clk clock.Clock, metrics *observability.Metrics, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:      mqttClient,
		store:     es,
		status:    status,
		clock:     clk,
		processor: NewProcessor(logger),
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		queue:     make(chan MotionNotice, cfg.IngestBuffer),
		stopped:   make(chan struct{}),
	}
}

// Start connects, subscribes and records events until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting collector agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"motion_topic", a.cfg.MotionTopic)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	a.wg.Add(1)
	go a.runWriter(ctx)

	if err := a.mqtt.Subscribe(a.cfg.MotionTopic, 1, a.handleMessage); err != nil {
		a.shutdown()
		return fmt.Errorf("failed to subscribe to motion topic: %w", err)
	}

	if a.cfg.StatusTopic != "" {
		if err := a.mqtt.Subscribe(a.cfg.StatusTopic, 1, a.handleMessage); err != nil {
			// Device status is informational only
			a.logger.Warn("Failed to subscribe to status topic", "topic", a.cfg.StatusTopic, "error", err)
		}
	}

	if _, ok := a.clock.(timeConfigurable); ok && a.cfg.TimeConfigTopic != "" {
		if err := a.mqtt.Subscribe(a.cfg.TimeConfigTopic, 1, a.handleMessage); err != nil {
			a.logger.Warn("Failed to subscribe to time config topic", "error", err)
		} else {
			a.logger.Info("Virtual time configuration enabled", "topic", a.cfg.TimeConfigTopic)
		}
	}

	a.logger.Info("Collector agent started and ready to receive messages")

	<-ctx.Done()
	a.logger.Info("Collector agent stopping")
	return nil
}

// Stop disconnects from MQTT and waits for queued events to be written
func (a *Agent) Stop() error {
	a.logger.Info("Stopping collector agent")

	a.mqtt.Disconnect()
	a.shutdown()
	a.wg.Wait()

	a.logger.Info("Collector agent stopped")
	return nil
}

// Connected reports whether the MQTT connection is up
func (a *Agent) Connected() bool {
	return a.mqtt.IsConnected()
}

func (a *Agent) shutdown() {
	a.stop.Do(func() { close(a.stopped) })
}

// handleMessage routes an inbound message by topic
func (a *Agent) handleMessage(msg mqtt.Message) {
	topic := msg.Topic()
	payload := msg.Payload()
	receivedAt := a.clock.Now()

	a.logger.Debug("Received MQTT message", "topic", topic, "size", len(payload))

	switch {
	case mqtt.Matches(a.cfg.MotionTopic, topic):
		a.handleMotion(payload, receivedAt)
	case a.cfg.StatusTopic != "" && mqtt.Matches(a.cfg.StatusTopic, topic):
		a.handleStatus(payload, receivedAt)
	case a.cfg.TimeConfigTopic != "" && mqtt.Matches(a.cfg.TimeConfigTopic, topic):
		a.handleTimeConfig(payload)
	default:
		a.logger.Info("MQTT message on unknown topic", "topic", topic, "payload", string(payload))
	}
}

func (a *Agent) handleMotion(payload []byte, receivedAt time.Time) {
	notice, err := a.processor.ParseMotion(payload, receivedAt)
	if err != nil {
		a.metrics.MalformedPayload()
		a.logger.Warn("Dropping device timestamp from motion payload", "error", err, "payload", string(payload))
	}

	select {
	case <-a.stopped:
		a.metrics.IngestError()
		a.logger.Error("Collector stopped, motion event not recorded", "received_at", receivedAt.Unix())
		return
	default:
	}

	select {
	case a.queue <- notice:
		a.metrics.QueueDepth(len(a.queue))
	case <-a.stopped:
		a.metrics.IngestError()
		a.logger.Error("Collector stopped, motion event not recorded", "received_at", receivedAt.Unix())
	}
}

func (a *Agent) handleStatus(payload []byte, receivedAt time.Time) {
	status := a.processor.ParseStatus(payload)
	a.logger.Info("Device status", "status", status)

	if a.status == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.status.RecordStatus(ctx, status, receivedAt); err != nil {
		a.logger.Error("Failed to store device status", "error", err)
	}
}

func (a *Agent) handleTimeConfig(payload []byte) {
	tc, ok := a.clock.(timeConfigurable)
	if !ok {
		return
	}
	if err := tc.Apply(payload); err != nil {
		a.logger.Error("Failed to apply time config", "error", err)
	}
}

// runWriter is the single store writer. On shutdown it drains what is
// already queued before returning.
func (a *Agent) runWriter(ctx context.Context) {
	defer a.wg.Done()

	// Events already received are written even while shutting down
	writeCtx := context.WithoutCancel(ctx)

	for {
		select {
		case notice := <-a.queue:
			a.record(writeCtx, notice)
		case <-ctx.Done():
			a.shutdown()
			a.drain()
			return
		case <-a.stopped:
			a.drain()
			return
		}
	}
}

func (a *Agent) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		select {
		case notice := <-a.queue:
			a.record(ctx, notice)
		default:
			return
		}
	}
}

// record inserts one event and updates the device status hash
func (a *Agent) record(ctx context.Context, notice MotionNotice) {
	a.metrics.QueueDepth(len(a.queue))

	event, err := a.store.Insert(ctx, notice.ReceivedAt.Unix())
	if err != nil {
		a.metrics.IngestError()
		a.logger.Error("Failed to store motion event", "timestamp", notice.ReceivedAt.Unix(), "error", err)
		return
	}
	a.metrics.EventIngested()

	if notice.DeviceTimestamp != nil {
		a.logger.Info("Stored motion event", "id", event.ID, "timestamp", event.Timestamp, "device_timestamp", *notice.DeviceTimestamp)
	} else {
		a.logger.Info("Stored motion event", "id", event.ID, "timestamp", event.Timestamp, "device_timestamp", "none")
	}

	if a.status == nil {
		return
	}
	if err := a.status.RecordMotion(ctx, event, notice); err != nil {
		a.logger.Warn("Failed to update device status", "error", err)
	}
}
