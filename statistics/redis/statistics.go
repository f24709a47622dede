// Package redis implements the statistics backend on Redis via redigo.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/clusterstats/stathub/core"
	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
)

// RedisStatistics implements the Statistics interface on Redis
type RedisStatistics struct {
	pool      *redis.Pool
	namespace string
	options   Options
}

// NewStatistics creates a new Redis statistics backend
func NewStatistics(options Options) *RedisStatistics {
	return &RedisStatistics{
		namespace: options.Namespace,
		options:   options,
	}
}

// Connect establishes connection to Redis
func (r *RedisStatistics) Connect(ctx context.Context) error {
	r.pool = createPool(r.options)

	// Test connection
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return errors.NewConnectionError(r.options.URI,
			fmt.Errorf("ping failed: %w", err))
	}

	return nil
}

// Close closes the Redis connection pool
func (r *RedisStatistics) Close() error {
	if r.pool != nil {
		return r.pool.Close()
	}
	return nil
}

// Health checks the Redis connection health
func (r *RedisStatistics) Health() error {
	if r.pool == nil {
		return errors.ErrNotConnected
	}

	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return errors.NewConnectionError(r.options.URI,
			fmt.Errorf("health check failed: %w", err))
	}

	return nil
}

// Type returns the statistics backend type
func (r *RedisStatistics) Type() string {
	return "redis"
}

// RegisterWorker registers a worker in Redis
func (r *RedisStatistics) RegisterWorker(ctx context.Context, worker core.WorkerInfo) error {
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("SADD", r.workersKey(), worker.ID); err != nil {
		return fmt.Errorf("failed to add worker to set: %w", err)
	}

	workerData, err := json.Marshal(worker)
	if err != nil {
		return fmt.Errorf("failed to marshal worker info: %w", err)
	}

	if _, err := conn.Do("SET", r.workerKey(worker.ID), workerData); err != nil {
		return fmt.Errorf("failed to set worker info: %w", err)
	}

	return nil
}

// UnregisterWorker removes a worker from Redis
func (r *RedisStatistics) UnregisterWorker(ctx context.Context, workerID string) error {
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("SREM", r.workersKey(), workerID); err != nil {
		return fmt.Errorf("failed to remove worker from set: %w", err)
	}

	keys := []string{
		r.workerKey(workerID),
		r.workerJobKey(workerID),
		r.statProcessedKey(workerID),
		r.statFailedKey(workerID),
	}

	for _, key := range keys {
		if _, err := conn.Do("DEL", key); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}

	return nil
}

// RecordJobStarted records that a job has started
func (r *RedisStatistics) RecordJobStarted(ctx context.Context, job message.Job, workerID string) error {
	conn := r.pool.Get()
	defer conn.Close()

	workData := map[string]interface{}{
		"kind":    job.Kind.String(),
		"request": job.Request,
		"run_at":  time.Now().Format(time.RFC3339),
	}

	workJSON, err := json.Marshal(workData)
	if err != nil {
		return fmt.Errorf("failed to marshal work data: %w", err)
	}

	if _, err := conn.Do("SET", r.workerJobKey(workerID), workJSON); err != nil {
		return fmt.Errorf("failed to set worker job: %w", err)
	}

	return nil
}

// RecordJobCompleted records successful job completion
func (r *RedisStatistics) RecordJobCompleted(ctx context.Context, job message.Job, workerID string, duration time.Duration) error {
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("INCR", r.statProcessedKey("")); err != nil {
		return fmt.Errorf("failed to increment global processed: %w", err)
	}

	if _, err := conn.Do("INCR", r.statProcessedKey(workerID)); err != nil {
		return fmt.Errorf("failed to increment worker processed: %w", err)
	}

	if _, err := conn.Do("DEL", r.workerJobKey(workerID)); err != nil {
		return fmt.Errorf("failed to clear worker job: %w", err)
	}

	return nil
}

// RecordJobFailed records job failure
func (r *RedisStatistics) RecordJobFailed(ctx context.Context, job message.Job, workerID string, jobErr error, duration time.Duration) error {
	conn := r.pool.Get()
	defer conn.Close()

	failure := map[string]interface{}{
		"failed_at": time.Now().Format(time.RFC3339),
		"kind":      job.Kind.String(),
		"request":   job.Request,
		"error":     jobErr.Error(),
		"worker":    workerID,
	}

	failureJSON, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to marshal failure data: %w", err)
	}

	if _, err := conn.Do("RPUSH", r.failedKey(), failureJSON); err != nil {
		return fmt.Errorf("failed to store failure: %w", err)
	}

	if _, err := conn.Do("INCR", r.statFailedKey("")); err != nil {
		return fmt.Errorf("failed to increment global failed: %w", err)
	}

	if _, err := conn.Do("INCR", r.statFailedKey(workerID)); err != nil {
		return fmt.Errorf("failed to increment worker failed: %w", err)
	}

	if _, err := conn.Do("DEL", r.workerJobKey(workerID)); err != nil {
		return fmt.Errorf("failed to clear worker job: %w", err)
	}

	return nil
}

// Key builders

func (r *RedisStatistics) workersKey() string {
	return r.namespace + "workers"
}

func (r *RedisStatistics) workerKey(workerID string) string {
	return r.namespace + "worker:" + workerID
}

func (r *RedisStatistics) workerJobKey(workerID string) string {
	return r.namespace + "worker:" + workerID + ":job"
}

func (r *RedisStatistics) statProcessedKey(workerID string) string {
	if workerID == "" {
		return r.namespace + "stat:processed"
	}
	return r.namespace + "stat:processed:" + workerID
}

func (r *RedisStatistics) statFailedKey(workerID string) string {
	if workerID == "" {
		return r.namespace + "stat:failed"
	}
	return r.namespace + "stat:failed:" + workerID
}

func (r *RedisStatistics) failedKey() string {
	return r.namespace + "failed"
}
