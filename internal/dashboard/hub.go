package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
)

// EventTypeSensorData is the type field of sensor data pushes.
const EventTypeSensorData = "sensor_data"

// sendBufferSize is the outbound message buffer size for the subscriber.
const sendBufferSize = 256

// Event is one message pushed to the dashboard.
type Event struct {
	Type        string  `json:"type"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   string  `json:"timestamp"`
}

// SensorData builds a sensor_data event with the current timestamp.
func SensorData(temperature, humidity float64, at time.Time) Event {
	return Event{
		Type:        EventTypeSensorData,
		Temperature: temperature,
		Humidity:    humidity,
		Timestamp:   at.UTC().Format(time.RFC3339),
	}
}

// Logger defines the logging interface for the dashboard hub.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// Hub manages the single dashboard subscriber and pushes events to it.
//
// Thread Safety: all methods are safe for concurrent use.
type Hub struct {
	cfg    config.WebSocketConfig
	logger Logger

	mu     sync.RWMutex
	client *client
}

// NewHub creates a dashboard hub.
func NewHub(cfg config.WebSocketConfig, logger Logger) *Hub {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
	}
}

// Path returns the configured WebSocket route, defaulting to /ws.
func (h *Hub) Path() string {
	if h.cfg.Path == "" {
		return "/ws"
	}
	return h.cfg.Path
}

// Run blocks until the context is cancelled, then closes the subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	current := h.client
	h.client = nil
	h.mu.Unlock()

	if current != nil {
		current.shutdown()
	}
}

// HandleUpgrade upgrades an HTTP request to the dashboard WebSocket and
// installs the connection as the hub's subscriber, replacing any prior one.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.subscribe(c)

	go c.writePump(h.cfg)
	go c.readPump(h.cfg)
}

// subscribe installs c as the sole subscriber. Last subscriber wins.
func (h *Hub) subscribe(c *client) {
	h.mu.Lock()
	prev := h.client
	h.client = c
	h.mu.Unlock()

	if prev != nil {
		prev.shutdown()
		h.logger.Info("dashboard subscriber replaced")
	} else {
		h.logger.Info("dashboard subscriber connected")
	}
}

// unsubscribe clears the slot if c is still the active subscriber.
// Called from the client's read pump on transport close.
func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	if h.client != c {
		h.mu.Unlock()
		return
	}
	h.client = nil
	h.mu.Unlock()

	h.logger.Info("dashboard subscriber disconnected")
}

// Publish pushes an event to the subscriber. With no subscriber it is a
// safe no-op. A full or closed outbound buffer drops the event rather
// than blocking the caller.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	current := h.client
	h.mu.RUnlock()

	if current == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal dashboard event", "error", err)
		return
	}

	current.trySend(data)
}

// HasSubscriber reports whether a dashboard client is connected.
func (h *Hub) HasSubscriber() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client != nil
}
