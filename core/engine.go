package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
)

// healthCheckTimeout bounds backend pings from Health.
const healthCheckTimeout = 5 * time.Second

// Engine is the main orchestration engine: it owns the backend store, the
// statistics backend, the dispatcher with its worker pool, and the
// connection transport, and sequences their startup and shutdown.
type Engine struct {
	backend    Backend
	stats      Statistics
	dispatcher *Dispatcher
	transport  Transport
	config     *Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new engine with dependency injection
func NewEngine(
	backend Backend,
	stats Statistics,
	dispatcher *Dispatcher,
	transport Transport,
	options ...EngineOption,
) *Engine {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	return &Engine{
		backend:    backend,
		stats:      stats,
		dispatcher: dispatcher,
		transport:  transport,
		config:     config,
	}
}

// Start connects the backends and brings up the dispatcher, the worker
// pool, and the transport.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.backend.Connect(e.ctx); err != nil {
		return errors.NewConnectionError("",
			fmt.Errorf("failed to connect backend store: %w", err))
	}

	if err := e.stats.Connect(e.ctx); err != nil {
		return errors.NewConnectionError("",
			fmt.Errorf("failed to connect statistics: %w", err))
	}

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		if err := e.dispatcher.Pool().Start(e.ctx, e.dispatcher.Completions()); err != nil {
			slog.Error("Worker pool error", "error", err)
		}
	}()

	go func() {
		defer e.wg.Done()
		if err := e.dispatcher.Run(e.ctx); err != nil {
			slog.Error("Dispatcher error", "error", err)
		}
	}()

	if err := e.transport.Start(e.ctx); err != nil {
		e.cancel()
		return fmt.Errorf("failed to start transport: %w", err)
	}

	slog.Info("Engine started")
	return nil
}

// Stop gracefully shuts down the engine
func (e *Engine) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.config.ShutdownTimeout)
	defer cancel()

	if err := e.transport.Stop(shutdownCtx); err != nil {
		slog.Error("Error stopping transport", "error", err)
	}

	if e.cancel != nil {
		e.cancel()
	}

	// Wait for graceful shutdown
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Engine stopped gracefully")
	case <-time.After(e.config.ShutdownTimeout):
		slog.Warn("Engine shutdown timeout exceeded")
	}

	// Close connections
	if err := e.backend.Close(shutdownCtx); err != nil {
		slog.Error("Error closing backend store", "error", err)
	}

	if err := e.stats.Close(); err != nil {
		slog.Error("Error closing statistics", "error", err)
	}

	return nil
}

// Health returns the current health status
func (e *Engine) Health() HealthStatus {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	backendHealth := e.backend.Health(ctx)
	statsHealth := e.stats.Health()

	return HealthStatus{
		Healthy:       backendHealth == nil && statsHealth == nil,
		BackendHealth: backendHealth,
		StatsHealth:   statsHealth,
		BusyWorkers:   e.dispatcher.Pool().BusyWorkers(),
		QueueDepth:    e.dispatcher.QueueDepth(),
		LastCheck:     time.Now(),
	}
}

// Submit hands a job to the dispatcher.
func (e *Engine) Submit(job message.Job) {
	e.dispatcher.Submit(job)
}

// Run starts the engine and blocks until shutdown signals are received.
// This is a convenience method that combines Start() + signal handling + Stop()
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	}

	return e.Stop()
}
