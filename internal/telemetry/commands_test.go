package telemetry

import (
	"strings"
	"sync"
	"testing"

	"github.com/autofarm/autofarm-core/internal/infrastructure/mqtt"
)

type fakeSubscriber struct {
	mu           sync.Mutex
	subscribed   []string
	unsubscribed []string
	handler      mqtt.MessageHandler
	qos          byte
	failWith     error
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.subscribed = append(f.subscribed, topic)
	f.qos = qos
	f.handler = handler
	return nil
}

func (f *fakeSubscriber) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

type fakeSender struct {
	mu        sync.Mutex
	connected bool
	commands  []string
}

func (f *fakeSender) SendCommand(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return false
	}
	f.commands = append(f.commands, text)
	return true
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func TestCommandBridgeStart(t *testing.T) {
	sub := &fakeSubscriber{}
	bridge := NewCommandBridge("esp32-001", sub, &fakeSender{connected: true}, nil)

	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(sub.subscribed) != 1 || sub.subscribed[0] != "autofarm/command/esp32-001" {
		t.Errorf("subscribed to %v, want [autofarm/command/esp32-001]", sub.subscribed)
	}
	if sub.qos != 1 {
		t.Errorf("subscription qos = %d, want 1", sub.qos)
	}
}

func TestCommandBridgeForwardsValidCommands(t *testing.T) {
	sub := &fakeSubscriber{}
	device := &fakeSender{connected: true}
	bridge := NewCommandBridge("esp32-001", sub, device, nil)

	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, payload := range []string{"FEED=5", "INTERVAL=5000", "INTERVAL=1000"} {
		if err := sub.handler("autofarm/command/esp32-001", []byte(payload)); err != nil {
			t.Errorf("handler(%q) error = %v", payload, err)
		}
	}

	got := device.sent()
	want := []string{"FEED=5", "INTERVAL=5000", "INTERVAL=1000"}
	if len(got) != len(want) {
		t.Fatalf("forwarded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forwarded %v, want %v", got, want)
		}
	}
}

func TestCommandBridgeRejectsMalformedPayloads(t *testing.T) {
	sub := &fakeSubscriber{}
	device := &fakeSender{connected: true}
	bridge := NewCommandBridge("esp32-001", sub, device, nil)

	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rejected := []string{
		"",
		"REBOOT",
		"FEED=0",
		"FEED=-3",
		"FEED=abc",
		"INTERVAL=500",
		"FEED=5\nINTERVAL=5000",
		`{"command":"FEED=5"}`,
	}
	for _, payload := range rejected {
		if err := sub.handler("autofarm/command/esp32-001", []byte(payload)); err != nil {
			t.Errorf("handler(%q) error = %v, want nil (rejection is not a handler error)", payload, err)
		}
	}

	if got := device.sent(); len(got) != 0 {
		t.Errorf("forwarded %v for malformed payloads, want none", got)
	}
}

func TestCommandBridgeDeviceUnavailable(t *testing.T) {
	sub := &fakeSubscriber{}
	device := &fakeSender{connected: false}
	bridge := NewCommandBridge("esp32-001", sub, device, nil)

	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err := sub.handler("autofarm/command/esp32-001", []byte("FEED=5"))
	if err == nil {
		t.Fatal("handler error = nil with device disconnected, want error")
	}
	if !strings.Contains(err.Error(), "not connected") {
		t.Errorf("handler error = %v, want mention of disconnected device", err)
	}
}

func TestCommandBridgeClose(t *testing.T) {
	sub := &fakeSubscriber{}
	bridge := NewCommandBridge("esp32-001", sub, &fakeSender{}, nil)

	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := bridge.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(sub.unsubscribed) != 1 || sub.unsubscribed[0] != "autofarm/command/esp32-001" {
		t.Errorf("unsubscribed from %v, want [autofarm/command/esp32-001]", sub.unsubscribed)
	}
}
