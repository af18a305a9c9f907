package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		Path:           "/ws",
		MaxMessageSize: 1024,
		PingInterval:   30,
		PongTimeout:    60,
	}
}

// startHub serves the hub's upgrade handler on a test HTTP server and
// returns the hub plus the ws:// URL to dial.
func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(testWSConfig(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleUpgrade))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() {
		conn.Close() //nolint:errcheck
	})
	return conn
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPublishNoSubscriber(t *testing.T) {
	hub := NewHub(testWSConfig(), nil)

	// Must not panic or block.
	hub.Publish(SensorData(23.5, 60.0, time.Now()))

	if hub.HasSubscriber() {
		t.Error("HasSubscriber() = true, want false")
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	waitFor(t, 2*time.Second, hub.HasSubscriber, "timeout waiting for subscription")

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	hub.Publish(SensorData(23.5, 60.0, at))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}

	if event.Type != EventTypeSensorData {
		t.Errorf("event type = %q, want %q", event.Type, EventTypeSensorData)
	}
	if event.Temperature != 23.5 || event.Humidity != 60.0 {
		t.Errorf("event = %+v, want 23.5/60.0", event)
	}
	if event.Timestamp != "2026-08-01T12:00:00Z" {
		t.Errorf("event timestamp = %q, want RFC3339 UTC", event.Timestamp)
	}
}

func TestLastSubscriberWins(t *testing.T) {
	hub, url := startHub(t)

	first := dial(t, url)
	waitFor(t, 2*time.Second, hub.HasSubscriber, "timeout waiting for first subscriber")

	second := dial(t, url)

	// The first connection is closed by the replacement.
	first.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	waitFor(t, 2*time.Second, func() bool {
		_, _, err := first.ReadMessage()
		return err != nil
	}, "timeout waiting for first subscriber to be closed")

	hub.Publish(SensorData(21.0, 55.0, time.Now()))

	second.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, data, err := second.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() on second subscriber error = %v", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Temperature != 21.0 {
		t.Errorf("second subscriber got %+v, want temperature 21.0", event)
	}
}

func TestSubscriberDisconnectClearsSlot(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	waitFor(t, 2*time.Second, hub.HasSubscriber, "timeout waiting for subscription")

	conn.Close() //nolint:errcheck

	waitFor(t, 2*time.Second, func() bool {
		return !hub.HasSubscriber()
	}, "timeout waiting for slot to clear")

	// Publishing after the disconnect is still a safe no-op.
	hub.Publish(SensorData(20.0, 50.0, time.Now()))
}

func TestSensorData(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	event := SensorData(18.2, 71.4, at)

	if event.Type != EventTypeSensorData {
		t.Errorf("Type = %q, want %q", event.Type, EventTypeSensorData)
	}
	if event.Temperature != 18.2 || event.Humidity != 71.4 {
		t.Errorf("event = %+v, want 18.2/71.4", event)
	}
	if event.Timestamp != "2026-01-15T08:30:00Z" {
		t.Errorf("Timestamp = %q, want %q", event.Timestamp, "2026-01-15T08:30:00Z")
	}
}
