package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_FixedSize(t *testing.T) {
	pool := NewWorkerPool(3, NewMockRegistry(), NewMockStatistics())

	assert.Equal(t, 3, pool.Size())
	assert.Len(t, pool.Workers(), 3)
	assert.Equal(t, 0, pool.BusyWorkers())
}

func TestWorkerPool_FindIdle_PoolOrder(t *testing.T) {
	pool := NewWorkerPool(3, NewMockRegistry(), NewMockStatistics())

	for i := 0; i < 3; i++ {
		w := pool.FindIdle()
		require.NotNil(t, w)
		assert.Same(t, pool.workers[i], w)
		w.setBusy(true)
	}

	assert.Nil(t, pool.FindIdle())
	assert.Equal(t, 3, pool.BusyWorkers())

	pool.workers[1].setBusy(false)
	assert.Same(t, pool.workers[1], pool.FindIdle())
}

func TestWorkerPool_StartStopsOnCancel(t *testing.T) {
	pool := NewWorkerPool(2, NewMockRegistry(), NewMockStatistics())
	completions := make(chan completion, 2)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- pool.Start(ctx, completions)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker pool did not stop within timeout")
	}
}

func TestWorkerPool_ZeroSize(t *testing.T) {
	pool := NewWorkerPool(0, NewMockRegistry(), NewMockStatistics())
	completions := make(chan completion)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := pool.Start(ctx, completions)
	assert.NoError(t, err)
	assert.Len(t, pool.Workers(), 0)
	assert.Nil(t, pool.FindIdle())
}
