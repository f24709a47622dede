package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clusterstats/stathub/message"
)

// MockRegistry is an in-memory handler registry for tests
type MockRegistry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{handlers: make(map[string]HandlerFunc)}
}

func (m *MockRegistry) Register(kind message.JobKind, request string, handler HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[mockKey(kind, request)] = handler
}

func (m *MockRegistry) Get(kind message.JobKind, request string) (HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[mockKey(kind, request)]
	return h, ok
}

func mockKey(kind message.JobKind, request string) string {
	return fmt.Sprintf("%d/%s", int(kind), request)
}

// MockStatistics records statistics calls for assertions
type MockStatistics struct {
	mu           sync.Mutex
	registered   []string
	unregistered []string
	started      int
	completed    int
	failed       int
	lastError    error
}

func NewMockStatistics() *MockStatistics {
	return &MockStatistics{}
}

func (m *MockStatistics) Connect(ctx context.Context) error { return nil }
func (m *MockStatistics) Close() error                      { return nil }
func (m *MockStatistics) Health() error                     { return nil }
func (m *MockStatistics) Type() string                      { return "mock" }

func (m *MockStatistics) RegisterWorker(ctx context.Context, worker WorkerInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, worker.ID)
	return nil
}

func (m *MockStatistics) UnregisterWorker(ctx context.Context, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unregistered = append(m.unregistered, workerID)
	return nil
}

func (m *MockStatistics) RecordJobStarted(ctx context.Context, job message.Job, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	return nil
}

func (m *MockStatistics) RecordJobCompleted(ctx context.Context, job message.Job, workerID string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
	return nil
}

func (m *MockStatistics) RecordJobFailed(ctx context.Context, job message.Job, workerID string, err error, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
	m.lastError = err
	return nil
}

func (m *MockStatistics) Started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *MockStatistics) Completed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

func (m *MockStatistics) Failed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

func (m *MockStatistics) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.registered...)
}

// MockBackend is a backend store stub for engine tests
type MockBackend struct {
	mu           sync.Mutex
	connected    bool
	closed       bool
	connectError error
}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectError != nil {
		return m.connectError
	}
	m.connected = true
	return nil
}

func (m *MockBackend) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockBackend) Health(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("not connected")
	}
	return nil
}

// MockTransport is a transport stub for engine tests
type MockTransport struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *MockTransport) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *MockTransport) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *MockTransport) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// testJob builds a job with an opaque payload
func testJob(kind message.JobKind, request, payload string) message.Job {
	return message.Job{
		Kind:    kind,
		Request: request,
		Data:    []byte(fmt.Sprintf(`{"cluster_id":%q}`, payload)),
	}
}
