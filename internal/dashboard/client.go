package dashboard

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
)

// Fallback intervals when the config omits them.
const (
	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// pumpIntervals resolves the ping interval and pong wait from config.
func pumpIntervals(cfg config.WebSocketConfig) (pingInterval, pongWait time.Duration) {
	pingInterval = time.Duration(cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	pongWait = time.Duration(cfg.PongTimeout) * time.Second
	if pongWait <= 0 {
		pongWait = defaultPongTimeout
	}
	return pingInterval, pongWait
}

// client is one dashboard WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// shutdown closes the outbound channel and the connection. Safe to call
// more than once (replacement and read-pump exit can race).
func (c *client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.conn.Close() //nolint:errcheck
	})
}

// trySend attempts to queue data for the write pump.
// It silently handles closed channels (subscriber replaced during a
// publish) and full buffers (slow browser).
func (c *client) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Subscriber buffer full, skip
	}
}

// readPump drains inbound messages. Dashboard clients send nothing the
// core acts on; the pump exists to detect closes and keep the read
// deadline fresh.
func (c *client) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.unsubscribe(c)
		c.shutdown()
	}()

	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	pingInterval, pongWait := pumpIntervals(cfg)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("dashboard read error", "error", err)
			} else {
				c.hub.logger.Debug("dashboard connection closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	}
}

// writePump writes queued events and protocol pings to the connection.
func (c *client) writePump(cfg config.WebSocketConfig) {
	pingInterval, pongWait := pumpIntervals(cfg)
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
