package core

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool is the fixed-size set of workers. Workers are created once at
// pool construction and never destroyed during normal operation; there is
// no grow or shrink operation.
type WorkerPool struct {
	size     int
	registry Registry
	stats    Statistics
	workers  []*Worker
	wg       sync.WaitGroup
}

// NewWorkerPool creates a pool of size workers. The slice order is the
// deterministic iteration order used by FindIdle for the life of the pool.
func NewWorkerPool(size int, registry Registry, stats Statistics) *WorkerPool {
	wp := &WorkerPool{
		size:     size,
		registry: registry,
		stats:    stats,
		workers:  make([]*Worker, 0, size),
	}

	for i := 0; i < size; i++ {
		wp.workers = append(wp.workers, NewWorker(i, registry, stats))
	}

	return wp
}

// Start launches one goroutine per worker and blocks until all of them
// have stopped.
func (wp *WorkerPool) Start(ctx context.Context, completions chan<- completion) error {
	slog.Info("Starting worker pool", "size", wp.size)

	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go func(w *Worker) {
			defer wp.wg.Done()
			if err := w.Run(ctx, completions); err != nil {
				slog.Error("Worker error", "id", w.GetID(), "error", err)
			}
		}(worker)
	}

	wp.wg.Wait()
	slog.Info("Worker pool stopped")
	return nil
}

// FindIdle returns the first idle worker in pool order, or nil when every
// worker is busy. Given the same pool state it always returns the same
// worker, which yields the lowest-ordered-first fairness the dispatcher
// relies on.
func (wp *WorkerPool) FindIdle() *Worker {
	for _, w := range wp.workers {
		if !w.Busy() {
			return w
		}
	}
	return nil
}

// Size returns the fixed pool size.
func (wp *WorkerPool) Size() int {
	return wp.size
}

// BusyWorkers returns the number of workers currently holding a job.
func (wp *WorkerPool) BusyWorkers() int {
	n := 0
	for _, w := range wp.workers {
		if w.Busy() {
			n++
		}
	}
	return n
}

// Workers returns the pool's workers in their fixed iteration order.
func (wp *WorkerPool) Workers() []*Worker {
	return wp.workers
}
