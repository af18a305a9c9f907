package devicelink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
)

// readBufferSize is the size of the per-connection read buffer.
const readBufferSize = 4096

// Listener accepts device connections and pumps their bytes into the
// shared Session. Only one device is expected; a second connection
// supersedes the first rather than being refused, so a rebooting ESP32
// can always reclaim its slot.
type Listener struct {
	cfg     config.DeviceConfig
	session *Session
	logger  Logger

	ln       net.Listener
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewListener creates a Listener bound to the given session.
func NewListener(cfg config.DeviceConfig, session *Session, logger Logger) *Listener {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Listener{
		cfg:     cfg,
		session: session,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start binds the TCP listener and launches the accept loop.
//
// Parameters:
//   - ctx: Cancellation also stops the accept loop
//
// Returns:
//   - error: ErrListenFailed if the port cannot be bound
func (l *Listener) Start(ctx context.Context) error {
	if l.ln != nil {
		return ErrAlreadyStarted
	}

	addr := net.JoinHostPort(l.cfg.Host, strconv.Itoa(l.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenFailed, err)
	}
	l.ln = ln

	l.logger.Info("device listener started", "addr", addr)

	l.wg.Add(1)
	go l.acceptLoop(ctx)

	return nil
}

// acceptLoop accepts device connections until the listener is closed.
func (l *Listener) acceptLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.done:
				return
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Error("device accept failed", "error", err)
			continue
		}

		l.logger.Info("device connected",
			"device_id", l.cfg.ID,
			"remote", conn.RemoteAddr().String(),
		)

		l.session.Attach(conn)

		l.wg.Add(1)
		go l.serve(conn)
	}
}

// serve pumps bytes from one connection into the session until the
// socket closes, errs, idles out, or overflows the line buffer.
func (l *Listener) serve(conn net.Conn) {
	defer l.wg.Done()

	idle := l.cfg.GetIdleTimeout()
	buf := make([]byte, readBufferSize)

	for {
		if idle > 0 {
			conn.SetReadDeadline(time.Now().Add(idle)) //nolint:errcheck
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if herr := l.session.HandleBytes(conn, buf[:n]); herr != nil {
				l.logger.Warn("dropping device connection",
					"device_id", l.cfg.ID,
					"error", herr,
				)
				l.session.HandleClose(conn)
				return
			}
		}
		if err != nil {
			l.session.HandleClose(conn)
			return
		}
	}
}

// Addr returns the bound listener address, or nil before Start.
// Useful when the configured port is 0 (ephemeral).
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Close stops accepting connections, closes the active device socket,
// and waits for connection goroutines to finish.
func (l *Listener) Close() error {
	l.stopOnce.Do(func() {
		close(l.done)
		if l.ln != nil {
			l.ln.Close() //nolint:errcheck
		}
		l.session.HandleClose(nil)
	})

	l.wg.Wait()
	return nil
}

// HealthCheck verifies the listener is accepting connections.
//
// Note: this reports on the listener itself, not on whether a device is
// currently attached; use Session.Snapshot for device presence.
func (l *Listener) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("devicelink health check: %w", ctx.Err())
	default:
	}

	if l.ln == nil {
		return fmt.Errorf("devicelink health check: listener not started")
	}

	select {
	case <-l.done:
		return fmt.Errorf("devicelink health check: listener closed")
	default:
	}

	return nil
}
