package core

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"context"

	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
)

// Worker is an isolated execution unit. It runs at most one job at a time
// and talks to the dispatcher only through its assignment channel and the
// shared completion channel; there is no other shared mutable state.
type Worker struct {
	id       int
	hostname string
	pid      int
	registry Registry
	stats    Statistics

	// busy is mutated only by the dispatcher loop; atomic so health
	// snapshots and tests can read it from other goroutines.
	busy        atomic.Bool
	assignments chan message.Job

	// Statistics
	processed int64
	failed    int64
	startTime time.Time
}

// completion pairs a worker with the signal it emitted for its last job.
type completion struct {
	worker *Worker
	job    message.Job
	signal message.Completion
}

// NewWorker creates a new worker. The assignment channel has capacity one:
// the dispatcher only sends to a worker it has just marked busy, so the
// send can never block.
func NewWorker(id int, registry Registry, stats Statistics) *Worker {
	hostname, _ := os.Hostname()

	return &Worker{
		id:          id,
		hostname:    hostname,
		pid:         os.Getpid(),
		registry:    registry,
		stats:       stats,
		assignments: make(chan message.Job, 1),
		startTime:   time.Now(),
	}
}

// GetID returns the worker's unique ID
func (w *Worker) GetID() string {
	return fmt.Sprintf("%s:%d-%d", w.hostname, w.pid, w.id)
}

// Busy reports whether the worker currently holds an unfinished job.
func (w *Worker) Busy() bool {
	return w.busy.Load()
}

func (w *Worker) setBusy(busy bool) {
	w.busy.Store(busy)
}

// Run processes assignments until ctx is cancelled. Every assignment
// produces exactly one completion signal, error or not; a failed handler
// never takes the worker down.
func (w *Worker) Run(ctx context.Context, completions chan<- completion) error {
	workerInfo := WorkerInfo{
		ID:       w.GetID(),
		Hostname: w.hostname,
		Pid:      w.pid,
		Started:  w.startTime,
	}

	if err := w.stats.RegisterWorker(ctx, workerInfo); err != nil {
		slog.Error("Failed to register worker", "error", err)
	}

	defer func() {
		if err := w.stats.UnregisterWorker(ctx, w.GetID()); err != nil {
			slog.Error("Failed to unregister worker", "error", err)
		}
	}()

	slog.Info("Worker started", "id", w.GetID())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Worker stopping", "id", w.GetID())
			return nil
		case job := <-w.assignments:
			signal := w.process(ctx, job)

			select {
			case completions <- completion{worker: w, job: job, signal: signal}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// process handles a single job and builds its completion signal.
func (w *Worker) process(ctx context.Context, job message.Job) message.Completion {
	startTime := time.Now()

	if err := w.stats.RecordJobStarted(ctx, job, w.GetID()); err != nil {
		slog.Error("Failed to record job start", "error", err)
	}

	handler, ok := w.registry.Get(job.Kind, job.Request)
	if !ok {
		err := errors.NewHandlerError(job.Kind.String(), job.Request, errors.ErrHandlerNotFound)
		w.recordFailure(ctx, job, err, startTime)
		return message.Completion{Result: message.ResultError, Err: err.Error()}
	}

	err := w.execute(ctx, handler, job)
	if err != nil {
		w.recordFailure(ctx, job, err, startTime)
		return message.Completion{Result: message.ResultError, Err: err.Error()}
	}

	w.recordSuccess(ctx, job, startTime)
	return message.Completion{Result: message.ResultSuccess}
}

// execute runs the handler with panic recovery so a crashing handler is
// reported like any other backend fault and the worker stays usable.
func (w *Worker) execute(ctx context.Context, handler HandlerFunc, job message.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewHandlerError(job.Kind.String(), job.Request,
				fmt.Errorf("panic: %v", r))
		}
	}()

	if execErr := handler(ctx, job); execErr != nil {
		return errors.NewHandlerError(job.Kind.String(), job.Request, execErr)
	}

	return nil
}

// recordSuccess records successful job completion
func (w *Worker) recordSuccess(ctx context.Context, job message.Job, startTime time.Time) {
	duration := time.Since(startTime)

	atomic.AddInt64(&w.processed, 1)

	if err := w.stats.RecordJobCompleted(ctx, job, w.GetID(), duration); err != nil {
		slog.Error("Failed to record job completion", "error", err)
	}

	slog.Debug("Job completed", "kind", job.Kind.String(), "request", job.Request, "duration", duration)
}

// recordFailure records job failure
func (w *Worker) recordFailure(ctx context.Context, job message.Job, err error, startTime time.Time) {
	duration := time.Since(startTime)

	atomic.AddInt64(&w.failed, 1)

	if statErr := w.stats.RecordJobFailed(ctx, job, w.GetID(), err, duration); statErr != nil {
		slog.Error("Failed to record job failure", "error", statErr)
	}

	slog.Error("Job failed", "kind", job.Kind.String(), "request", job.Request, "error", err)
}

// Processed returns the number of jobs this worker finished successfully.
func (w *Worker) Processed() int64 {
	return atomic.LoadInt64(&w.processed)
}

// Failed returns the number of jobs this worker reported as failed.
func (w *Worker) Failed() int64 {
	return atomic.LoadInt64(&w.failed)
}
