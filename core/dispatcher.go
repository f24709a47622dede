package core

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/clusterstats/stathub/message"
)

// Dispatcher couples the worker pool and the request queue. It is the only
// place that decides whether a job runs now or waits. All pool flags and
// queue mutation happen on the Run loop goroutine; submissions and worker
// completions reach it over channels, so no other locking is involved.
type Dispatcher struct {
	pool        *WorkerPool
	queue       *RequestQueue
	submits     chan message.Job
	completions chan completion

	// Counters kept atomically so health snapshots and tests can read
	// them without entering the loop goroutine.
	submitted  int64
	completed  int64
	queueDepth int64
}

// NewDispatcher creates a dispatcher for the given pool.
func NewDispatcher(pool *WorkerPool, options ...DispatcherOption) *Dispatcher {
	config := defaultDispatcherConfig()
	for _, opt := range options {
		opt(config)
	}

	return &Dispatcher{
		pool:        pool,
		queue:       NewRequestQueue(),
		submits:     make(chan message.Job, config.SubmitBufferSize),
		completions: make(chan completion, pool.Size()),
	}
}

// Submit hands a job to the dispatcher. It never returns an error to the
// caller; the job either runs immediately or joins the FIFO queue. The
// submit channel is buffered and the loop's work per event is a channel
// send, so callers are not held up.
func (d *Dispatcher) Submit(job message.Job) {
	d.submits <- job
}

// Completions returns the channel workers emit their signals on.
func (d *Dispatcher) Completions() chan<- completion {
	return d.completions
}

// Run drives the dispatch loop until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("Dispatcher started", "pool_size", d.pool.Size())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopped")
			return nil
		case job := <-d.submits:
			d.dispatch(job)
		case c := <-d.completions:
			d.handleCompletion(c)
		}
	}
}

// dispatch assigns the job to the first idle worker in pool order, or
// appends it to the queue tail when every worker is busy.
func (d *Dispatcher) dispatch(job message.Job) {
	atomic.AddInt64(&d.submitted, 1)

	worker := d.pool.FindIdle()
	if worker == nil {
		d.queue.Push(job)
		atomic.AddInt64(&d.queueDepth, 1)
		slog.Debug("Job queued", "kind", job.Kind.String(), "request", job.Request, "depth", d.queue.Len())
		return
	}

	d.assign(worker, job)
}

// assign marks the worker busy and hands it the job. This is the only
// moment a job crosses into worker execution.
func (d *Dispatcher) assign(worker *Worker, job message.Job) {
	worker.setBusy(true)
	worker.assignments <- job
	slog.Debug("Job assigned", "worker", worker.GetID(), "kind", job.Kind.String(), "request", job.Request)
}

// handleCompletion processes a worker's completion signal. Marking the
// worker idle and reassigning the queue head is one atomic step of the
// loop; no other job can reach that worker in between. A failed job is
// logged and dropped: no retry, no requeue, no requester notification.
func (d *Dispatcher) handleCompletion(c completion) {
	atomic.AddInt64(&d.completed, 1)

	if !c.signal.Succeeded() {
		slog.Error("Worker reported job failure",
			"worker", c.worker.GetID(),
			"kind", c.job.Kind.String(),
			"request", c.job.Request,
			"error", c.signal.Err)
	}

	next, ok := d.queue.Pop()
	if !ok {
		c.worker.setBusy(false)
		return
	}

	atomic.AddInt64(&d.queueDepth, -1)
	d.assign(c.worker, next)
}

// Submitted returns the number of jobs accepted by the dispatch loop.
func (d *Dispatcher) Submitted() int64 {
	return atomic.LoadInt64(&d.submitted)
}

// Completed returns the number of completion signals processed.
func (d *Dispatcher) Completed() int64 {
	return atomic.LoadInt64(&d.completed)
}

// QueueDepth returns the number of jobs waiting for an idle worker.
func (d *Dispatcher) QueueDepth() int {
	return int(atomic.LoadInt64(&d.queueDepth))
}

// Pool returns the worker pool owned by this dispatcher.
func (d *Dispatcher) Pool() *WorkerPool {
	return d.pool
}
