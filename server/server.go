// Package server accepts WebSocket connections and supervises their
// lifecycle: frame decoding, channel routing, and the ping/pong liveness
// protocol that reaps dead connections.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/clusterstats/stathub/channels"
)

// Server is the WebSocket connection supervisor. It implements the
// transport contract the engine starts and stops.
type Server struct {
	config   Config
	registry *channels.Registry

	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[uuid.UUID]*conn
	addr  net.Addr
}

// New creates a server routing frames through registry.
func New(config Config, registry *channels.Registry) *Server {
	s := &Server{
		config:   config.withDefaults(),
		registry: registry,
		conns:    make(map[uuid.UUID]*conn),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return s
}

// Start begins listening and accepting connections. It does not block.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:        s.config.Addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	slog.Info("Server listening", "addr", listener.Addr().String(), "path", s.config.Path)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	return nil
}

// Stop closes every active connection and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	active := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		active = append(active, c)
	}
	s.mu.Unlock()

	for _, c := range active {
		c.close()
	}
	if len(active) > 0 {
		slog.Info("Closed active connections", "count", len(active))
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the bound listen address, useful when Addr was ":0".
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ActiveConnections returns the number of live connections.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","connections":%d}`, s.ActiveConnections())
}

// handleWebSocket upgrades the request and supervises the connection until
// it dies.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newConn(sock, s.registry, s.config, s.remove)

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	slog.Debug("Connection accepted", "conn", c.id, "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump()
}

func (s *Server) remove(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}
