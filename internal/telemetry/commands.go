package telemetry

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/autofarm/autofarm-core/internal/infrastructure/mqtt"
)

// commandQoS is the subscription QoS for inbound device commands.
// At-least-once: a duplicated FEED is preferable to a lost one being
// silently dropped by the broker.
const commandQoS = 1

// minCommandIntervalMs is the lowest reporting interval a remote command
// may set, matching the HTTP control surface.
const minCommandIntervalMs = 1000

// commandPattern matches the two firmware commands accepted over the bus.
var commandPattern = regexp.MustCompile(`^(FEED|INTERVAL)=([0-9]+)$`)

// Subscriber is the subset of the MQTT client the bridge needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// CommandSender forwards a validated command line to the device.
type CommandSender interface {
	SendCommand(text string) bool
}

// CommandBridge subscribes to autofarm/command/<device_id> and forwards
// well-formed command payloads to the device session, giving external
// automations the same control surface as the HTTP API.
//
// Payloads are the raw command lines the firmware understands, e.g.
// "FEED=5" or "INTERVAL=5000". Anything else is logged and dropped.
type CommandBridge struct {
	topic  string
	sub    Subscriber
	device CommandSender
	logger Logger
}

// NewCommandBridge creates a bridge for the given device. sub and device
// are required; logger may be nil.
func NewCommandBridge(deviceID string, sub Subscriber, device CommandSender, logger Logger) *CommandBridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CommandBridge{
		topic:  mqtt.Topics{}.DeviceCommand(deviceID),
		sub:    sub,
		device: device,
		logger: logger,
	}
}

// Start subscribes to the device command topic.
func (b *CommandBridge) Start() error {
	if err := b.sub.Subscribe(b.topic, commandQoS, b.handleMessage); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.topic, err)
	}
	return nil
}

// Close removes the command subscription.
func (b *CommandBridge) Close() error {
	return b.sub.Unsubscribe(b.topic)
}

// handleMessage validates one inbound payload and forwards it.
func (b *CommandBridge) handleMessage(topic string, payload []byte) error {
	command := string(payload)

	if err := validateCommand(command); err != nil {
		b.logger.Warn("mqtt command rejected",
			"topic", topic,
			"payload", command,
			"error", err,
		)
		return nil
	}

	if !b.device.SendCommand(command) {
		return fmt.Errorf("device not connected, command %q dropped", command)
	}

	b.logger.Debug("mqtt command forwarded", "command", command)
	return nil
}

// validateCommand checks a payload against the firmware command grammar.
func validateCommand(command string) error {
	m := commandPattern.FindStringSubmatch(command)
	if m == nil {
		return fmt.Errorf("unrecognized command %q", command)
	}

	value, err := strconv.Atoi(m[2])
	if err != nil {
		return fmt.Errorf("invalid command value %q: %w", m[2], err)
	}

	switch m[1] {
	case "FEED":
		if value < 1 {
			return fmt.Errorf("feed amount must be positive, got %d", value)
		}
	case "INTERVAL":
		if value < minCommandIntervalMs {
			return fmt.Errorf("interval must be at least %d ms, got %d", minCommandIntervalMs, value)
		}
	}

	return nil
}
