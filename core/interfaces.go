package core

import (
	"context"
	"time"

	"github.com/clusterstats/stathub/message"
)

// HandlerFunc executes the backend operation for one job. It is invoked
// from a worker goroutine with the job already decoded at the boundary.
type HandlerFunc func(ctx context.Context, job message.Job) error

// Registry interface defines what core needs from a job-handler registry
type Registry interface {
	// Get retrieves a handler for a (kind, request) pair
	Get(kind message.JobKind, request string) (HandlerFunc, bool)
}

// Backend interface defines what core needs from the backend store
type Backend interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Health(ctx context.Context) error
}

// Transport interface defines what core needs from the connection layer
type Transport interface {
	// Start begins accepting connections; it must not block.
	Start(ctx context.Context) error
	// Stop closes active connections and stops accepting new ones.
	Stop(ctx context.Context) error
}

// Statistics interface defines what core needs from a statistics backend
type Statistics interface {
	// Worker lifecycle
	RegisterWorker(ctx context.Context, worker WorkerInfo) error
	UnregisterWorker(ctx context.Context, workerID string) error

	// Job metrics
	RecordJobStarted(ctx context.Context, job message.Job, workerID string) error
	RecordJobCompleted(ctx context.Context, job message.Job, workerID string, duration time.Duration) error
	RecordJobFailed(ctx context.Context, job message.Job, workerID string, err error, duration time.Duration) error

	// Health and connection
	Connect(ctx context.Context) error
	Close() error
	Health() error
	Type() string
}

// Supporting types used by the interfaces

// WorkerInfo describes a worker
type WorkerInfo struct {
	ID       string
	Hostname string
	Pid      int
	Started  time.Time
}

// HealthStatus represents the health of the engine
type HealthStatus struct {
	Healthy       bool
	BackendHealth error
	StatsHealth   error
	BusyWorkers   int
	QueueDepth    int
	LastCheck     time.Time
}
