package devicelink

import (
	"net"
	"sync"
	"time"

	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
)

// State is the device session lifecycle state.
type State int

const (
	// StateDisconnected means no device socket is attached.
	StateDisconnected State = iota

	// StateConnected means a socket is attached but the handshake
	// marker has not been seen yet.
	StateConnected

	// StateHandshakeConfirmed means the device has identified itself.
	StateHandshakeConfirmed
)

// String returns the state as a human-readable string.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateHandshakeConfirmed:
		return "handshake_confirmed"
	default:
		return "disconnected"
	}
}

// Reading is one accepted temperature/humidity sample, handed to the Sink.
type Reading struct {
	DeviceID    string
	Temperature float64
	Humidity    float64
	At          time.Time
}

// SeedLevel is one accepted hopper fill report, handed to the Sink.
type SeedLevel struct {
	DeviceID string
	Level    float64
	At       time.Time
}

// Alert is one firmware-raised alert, handed to the Sink.
type Alert struct {
	DeviceID string
	Type     string
	Message  string
	At       time.Time
}

// Sink receives each successfully parsed frame, exactly once, in the
// order the frames arrived on the wire. Implementations must not assume
// they are called on any particular goroutine.
type Sink interface {
	HandleReading(reading Reading)
	HandleSeedLevel(level SeedLevel)
	HandleAlert(alert Alert)
}

// Logger defines the logging interface for the device link.
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

// Snapshot is a point-in-time read of session state for status queries.
//
// Connected is true only when the handshake is confirmed and the socket
// is still attached. Temperature and Humidity are nil until the first
// reading arrives; they survive disconnects as last-known values.
type Snapshot struct {
	Connected   bool
	Temperature *float64
	Humidity    *float64
}

// Session owns the single device connection's lifecycle: it tracks
// connection and handshake state, reassembles and classifies inbound
// bytes, stores the latest readings, and writes outbound commands.
//
// At most one connection is active; Attach replaces any prior socket.
// Latest readings are deliberately NOT cleared on disconnect so status
// queries keep reporting the last known values.
//
// Thread Safety: all methods are safe for concurrent use.
type Session struct {
	deviceID     string
	writeTimeout time.Duration
	sink         Sink
	logger       Logger

	mu          sync.Mutex
	conn        net.Conn
	state       State
	reasm       *Reassembler
	temperature *float64
	humidity    *float64
	onState     func(state State)
}

// NewSession creates a Session for the configured device.
//
// Parameters:
//   - cfg: Device configuration (id, line cap, write deadline)
//   - sink: Receiver for accepted readings (may be nil to discard)
//   - logger: Logger for protocol events (may be nil)
func NewSession(cfg config.DeviceConfig, sink Sink, logger Logger) *Session {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Session{
		deviceID:     cfg.ID,
		writeTimeout: cfg.GetWriteTimeout(),
		sink:         sink,
		logger:       logger,
		state:        StateDisconnected,
		reasm:        NewReassembler(cfg.MaxLineBytes),
	}
}

// SetOnStateChange registers a callback invoked after every lifecycle
// transition (Connected, HandshakeConfirmed, Disconnected). The callback
// runs outside the session lock and must not block for long.
func (s *Session) SetOnStateChange(callback func(state State)) {
	s.mu.Lock()
	s.onState = callback
	s.mu.Unlock()
}

// notifyState invokes the state callback, if set. Callers must not hold
// the session lock.
func (s *Session) notifyState(state State) {
	s.mu.Lock()
	callback := s.onState
	s.mu.Unlock()

	if callback != nil {
		callback(state)
	}
}

// Attach takes ownership of a new device socket, superseding any prior
// connection. The previous socket is closed; its read loop observes the
// close and exits without disturbing the new session.
func (s *Session) Attach(conn net.Conn) {
	s.mu.Lock()
	prev := s.conn
	s.conn = conn
	s.state = StateConnected
	s.reasm.Reset()
	s.mu.Unlock()

	if prev != nil {
		prev.Close() //nolint:errcheck // superseded socket, best effort
		s.logger.Warn("previous device connection superseded",
			"device_id", s.deviceID,
		)
	}

	s.notifyState(StateConnected)
}

// HandleBytes processes a chunk of bytes read from the given connection.
//
// The chunk is fed through the Reassembler; every complete line is
// classified and applied in arrival order. Readings update the latest
// values and are handed to the Sink exactly once each. Handshake lines
// are idempotent. Unrecognized lines are logged and ignored.
//
// Chunks from a superseded connection are silently discarded.
//
// Returns ErrLineTooLong when the device overflows the line buffer; the
// caller should treat this as a transport error and drop the connection.
func (s *Session) HandleBytes(conn net.Conn, chunk []byte) error {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return nil
	}

	lines, err := s.reasm.Feed(chunk)

	var confirmed bool
	var deliveries []func(Sink)
	for _, line := range lines {
		frame := Classify(line)
		switch frame.Kind {
		case FrameHandshake:
			if s.state != StateHandshakeConfirmed {
				s.state = StateHandshakeConfirmed
				confirmed = true
				s.logger.Info("device handshake confirmed",
					"device_id", s.deviceID,
				)
			}
		case FrameReading:
			temperature := frame.Temperature
			humidity := frame.Humidity
			s.temperature = &temperature
			s.humidity = &humidity
			reading := Reading{
				DeviceID:    s.deviceID,
				Temperature: temperature,
				Humidity:    humidity,
				At:          time.Now().UTC(),
			}
			deliveries = append(deliveries, func(k Sink) { k.HandleReading(reading) })
		case FrameSeedLevel:
			level := SeedLevel{
				DeviceID: s.deviceID,
				Level:    frame.Level,
				At:       time.Now().UTC(),
			}
			deliveries = append(deliveries, func(k Sink) { k.HandleSeedLevel(level) })
		case FrameAlert:
			alert := Alert{
				DeviceID: s.deviceID,
				Type:     frame.AlertType,
				Message:  frame.Message,
				At:       time.Now().UTC(),
			}
			deliveries = append(deliveries, func(k Sink) { k.HandleAlert(alert) })
		case FrameUnrecognized:
			s.logger.Debug("unrecognized device line",
				"device_id", s.deviceID,
				"raw", frame.Raw,
			)
		}
	}
	s.mu.Unlock()

	if confirmed {
		s.notifyState(StateHandshakeConfirmed)
	}

	// Sink calls happen outside the lock. HandleBytes is invoked from a
	// single read loop per connection, so per-frame order is preserved.
	if s.sink != nil {
		for _, deliver := range deliveries {
			deliver(s.sink)
		}
	}

	return err
}

// HandleClose rolls the session back to Disconnected if conn is still the
// active socket. A nil conn forces the close regardless of identity.
//
// The partial-line buffer is discarded; latest readings are untouched.
func (s *Session) HandleClose(conn net.Conn) {
	s.mu.Lock()
	if conn != nil && s.conn != conn {
		s.mu.Unlock()
		return
	}
	if s.conn != nil {
		s.conn.Close() //nolint:errcheck // already closing
	}
	wasAttached := s.conn != nil
	s.conn = nil
	s.state = StateDisconnected
	s.reasm.Reset()
	s.mu.Unlock()

	s.logger.Info("device disconnected", "device_id", s.deviceID)

	if wasAttached {
		s.notifyState(StateDisconnected)
	}
}

// SendCommand writes a single command line to the device socket.
//
// A newline terminator is appended. There is no acknowledgment; delivery
// is fire-and-forget. The write is bounded by the configured write
// deadline so a stalled device cannot block the caller indefinitely.
//
// Returns false, with no side effect, when no device is attached or the
// write fails. Never returns an error.
func (s *Session) SendCommand(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || s.state == StateDisconnected {
		return false
	}

	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)) //nolint:errcheck
	}

	if _, err := s.conn.Write([]byte(text + "\n")); err != nil {
		s.logger.Warn("device command write failed",
			"device_id", s.deviceID,
			"command", text,
			"error", err,
		)
		return false
	}

	return true
}

// Snapshot returns the current session state for status queries.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Connected:   s.state == StateHandshakeConfirmed && s.conn != nil,
		Temperature: s.temperature,
		Humidity:    s.humidity,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
