package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autofarm/autofarm-core/internal/dashboard"
	"github.com/autofarm/autofarm-core/internal/devicelink"
	"github.com/autofarm/autofarm-core/internal/infrastructure/mqtt"
	"github.com/autofarm/autofarm-core/internal/storage"
)

// insertTimeout bounds the storage insert for one frame.
const insertTimeout = 5 * time.Second

// Store is the subset of storage operations the sink needs.
type Store interface {
	InsertReading(ctx context.Context, reading *storage.Reading) error
	InsertSeedLevel(ctx context.Context, level *storage.SeedLevel) error
	InsertAlert(ctx context.Context, alert *storage.Alert) error
	InsertLog(ctx context.Context, entry *storage.Log) error
}

// Broadcaster pushes events to the dashboard subscriber.
type Broadcaster interface {
	Publish(event dashboard.Event)
}

// MQTTPublisher mirrors frames onto the message bus. Retained publishes
// are for state topics, event publishes for one-shot notifications.
type MQTTPublisher interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
}

// MetricsWriter mirrors samples into the time-series store.
// Writes are non-blocking; errors surface via the client's callback.
type MetricsWriter interface {
	WriteReading(deviceID string, temperature, humidity float64)
	WriteSeedLevel(deviceID string, level float64)
}

// Logger defines the logging interface for the sink.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// statePayload is the JSON mirrored to autofarm/state/<device_id>.
type statePayload struct {
	DeviceID    string  `json:"device_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   string  `json:"timestamp"`
}

// eventPayload is the JSON published to autofarm/event/<device_id> for
// alerts and lifecycle transitions.
type eventPayload struct {
	DeviceID  string `json:"device_id"`
	Event     string `json:"event"`
	AlertType string `json:"alert_type,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Sink distributes accepted device frames to storage, the dashboard, and
// the optional mirrors. It implements devicelink.Sink, and its
// HandleStateChange method plugs into Session.SetOnStateChange.
//
// The mqtt and metrics fields are nil when those integrations are
// disabled; pass nil interfaces, not typed nil pointers.
type Sink struct {
	deviceID string
	store    Store
	hub      Broadcaster
	mqtt     MQTTPublisher
	metrics  MetricsWriter
	logger   Logger
}

// NewSink creates a Sink for the given device. store and hub are
// required; mqtt and metrics may be nil when the corresponding
// integration is disabled.
func NewSink(deviceID string, store Store, hub Broadcaster, mqttPub MQTTPublisher, metrics MetricsWriter, logger Logger) *Sink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Sink{
		deviceID: deviceID,
		store:    store,
		hub:      hub,
		mqtt:     mqttPub,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleReading applies all fan-out effects for one reading.
//
// Effects run in a fixed order but are independent: each failure is
// logged and the remaining effects still run. Never returns an error and
// never panics into the device read loop.
func (s *Sink) HandleReading(reading devicelink.Reading) {
	s.persistReading(reading)
	s.broadcast(reading)
	s.mirrorState(reading)
	if s.metrics != nil {
		s.metrics.WriteReading(reading.DeviceID, reading.Temperature, reading.Humidity)
	}
}

// HandleSeedLevel persists a hopper fill report and mirrors it into the
// time-series store. Same independence guarantees as HandleReading.
func (s *Sink) HandleSeedLevel(level devicelink.SeedLevel) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	row := &storage.SeedLevel{
		DeviceID:  level.DeviceID,
		Level:     level.Level,
		CreatedAt: level.At,
	}
	if err := s.store.InsertSeedLevel(ctx, row); err != nil {
		s.logger.Error("seed level insert failed",
			"device_id", level.DeviceID,
			"error", err,
		)
	}

	s.insertLog(ctx, level.DeviceID, storage.LogTypeSeedLevel,
		fmt.Sprintf("Seed level: %g %%", level.Level), level.At)

	if s.metrics != nil {
		s.metrics.WriteSeedLevel(level.DeviceID, level.Level)
	}
}

// HandleAlert persists a firmware alert and publishes it on the device
// event topic so external automations can react.
func (s *Sink) HandleAlert(alert devicelink.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	row := &storage.Alert{
		DeviceID:  alert.DeviceID,
		Type:      alert.Type,
		Message:   alert.Message,
		CreatedAt: alert.At,
	}
	if err := s.store.InsertAlert(ctx, row); err != nil {
		s.logger.Error("alert insert failed",
			"device_id", alert.DeviceID,
			"alert_type", alert.Type,
			"error", err,
		)
	}

	s.insertLog(ctx, alert.DeviceID, storage.LogTypeAlert,
		fmt.Sprintf("%s: %s", alert.Type, alert.Message), alert.At)

	s.publishEvent(alert.DeviceID, eventPayload{
		DeviceID:  alert.DeviceID,
		Event:     "alert",
		AlertType: alert.Type,
		Message:   alert.Message,
		Timestamp: alert.At.UTC().Format(time.RFC3339),
	})
}

// HandleStateChange records a session lifecycle transition and announces
// it on the device event topic.
func (s *Sink) HandleStateChange(state devicelink.State) {
	now := time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	s.insertLog(ctx, s.deviceID, storage.LogTypeLifecycle,
		fmt.Sprintf("Device %s", state), now)

	s.publishEvent(s.deviceID, eventPayload{
		DeviceID:  s.deviceID,
		Event:     state.String(),
		Timestamp: now.Format(time.RFC3339),
	})
}

// persistReading writes the reading row and its derived activity log entry.
func (s *Sink) persistReading(reading devicelink.Reading) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	row := &storage.Reading{
		DeviceID:    reading.DeviceID,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		CreatedAt:   reading.At,
	}
	if err := s.store.InsertReading(ctx, row); err != nil {
		s.logger.Error("reading insert failed",
			"device_id", reading.DeviceID,
			"error", err,
		)
	}

	s.insertLog(ctx, reading.DeviceID, storage.LogTypeReading,
		fmt.Sprintf("Temp: %g C, Hum: %g %%", reading.Temperature, reading.Humidity), reading.At)
}

// insertLog writes one activity log row, logging failures.
func (s *Sink) insertLog(ctx context.Context, deviceID, logType, message string, at time.Time) {
	entry := &storage.Log{
		DeviceID:  deviceID,
		Type:      logType,
		Message:   message,
		CreatedAt: at,
	}
	if err := s.store.InsertLog(ctx, entry); err != nil {
		s.logger.Error("activity log insert failed",
			"device_id", deviceID,
			"log_type", logType,
			"error", err,
		)
	}
}

// broadcast pushes the reading to the dashboard subscriber.
func (s *Sink) broadcast(reading devicelink.Reading) {
	s.hub.Publish(dashboard.SensorData(reading.Temperature, reading.Humidity, reading.At))
}

// mirrorState republishes the reading on the retained device state topic.
func (s *Sink) mirrorState(reading devicelink.Reading) {
	if s.mqtt == nil {
		return
	}

	payload, err := json.Marshal(statePayload{
		DeviceID:    reading.DeviceID,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		Timestamp:   reading.At.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("state payload marshal failed", "error", err)
		return
	}

	topic := mqtt.Topics{}.DeviceState(reading.DeviceID)
	if err := s.mqtt.PublishRetained(topic, payload); err != nil {
		s.logger.Warn("mqtt state mirror failed",
			"device_id", reading.DeviceID,
			"error", err,
		)
	}
}

// publishEvent sends a one-shot event on the device event topic.
func (s *Sink) publishEvent(deviceID string, event eventPayload) {
	if s.mqtt == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("event payload marshal failed", "error", err)
		return
	}

	topic := mqtt.Topics{}.DeviceEvent(deviceID)
	if err := s.mqtt.PublishEvent(topic, payload); err != nil {
		s.logger.Warn("mqtt event publish failed",
			"device_id", deviceID,
			"event", event.Event,
			"error", err,
		)
	}
}
