package server

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/clusterstats/stathub/channels"
	"github.com/clusterstats/stathub/message"
)

// conn supervises one client connection: inbound decoding and routing, the
// outbound write pump, and the liveness state machine. gorilla permits one
// concurrent writer per socket, so every outbound byte goes through the
// write pump, which also owns the liveness ticker.
type conn struct {
	id       uuid.UUID
	sock     *websocket.Conn
	registry *channels.Registry
	config   Config

	out  chan []byte
	done chan struct{}

	// pongSeen starts true so a fresh connection survives until its first
	// probe; a pong at any time re-arms it for one more period.
	pongSeen  atomic.Bool
	closeOnce sync.Once
	onClose   func(*conn)
}

func newConn(sock *websocket.Conn, registry *channels.Registry, config Config, onClose func(*conn)) *conn {
	c := &conn{
		id:       uuid.New(),
		sock:     sock,
		registry: registry,
		config:   config,
		out:      make(chan []byte, config.SendBuffer),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
	c.pongSeen.Store(true)
	return c
}

// ID returns the connection identity used for subscriber dedup.
func (c *conn) ID() uuid.UUID {
	return c.id
}

// Send queues data for the write pump. It never blocks; a full outbound
// queue drops the message, and a closed connection reports an error.
func (c *conn) Send(data []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s closed", c.id)
	case c.out <- data:
		return nil
	default:
		return fmt.Errorf("connection %s outbound queue full", c.id)
	}
}

// close tears the connection down exactly once: transport closed, channel
// membership removed, write pump released.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
		c.registry.UnsubscribeAll(c)
		if c.onClose != nil {
			c.onClose(c)
		}
		slog.Debug("Connection closed", "conn", c.id)
	})
}

// readPump decodes inbound frames and routes them until the socket dies.
// A malformed frame is logged and skipped; it never costs the connection.
func (c *conn) readPump() {
	defer c.close()

	c.sock.SetReadLimit(c.config.ReadLimit)
	c.sock.SetPongHandler(func(string) error {
		c.pongSeen.Store(true)
		return nil
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Client disconnected", "conn", c.id)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Unexpected close", "conn", c.id, "error", err)
			}
			return
		}

		frame, err := message.Decode(raw)
		if err != nil {
			slog.Warn("Malformed frame ignored", "conn", c.id, "error", err)
			continue
		}

		c.registry.Route(frame, c)
	}
}

// writePump drains the outbound queue and runs the liveness probe cycle.
// Each period: an answered previous probe clears the flag and sends a new
// ping; an unanswered one terminates the connection.
func (c *conn) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.out:
			c.sock.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("Write failed", "conn", c.id, "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			if !c.pongSeen.Swap(false) {
				slog.Info("Liveness probe unanswered, terminating connection", "conn", c.id)
				c.close()
				return
			}
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.sock.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				slog.Debug("Ping failed", "conn", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}
