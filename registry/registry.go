// Package registry maps (job kind, request) pairs to handler functions.
package registry

import (
	"sync"

	"github.com/clusterstats/stathub/core"
	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
)

type key struct {
	kind    message.JobKind
	request string
}

// Registry is a thread-safe job-handler registry
type Registry struct {
	mu       sync.RWMutex
	handlers map[key]core.HandlerFunc
}

// NewRegistry creates a new registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[key]core.HandlerFunc),
	}
}

// Register adds a handler for a (kind, request) pair
func (r *Registry) Register(kind message.JobKind, request string, handler core.HandlerFunc) error {
	if request == "" {
		return errors.ErrEmptyRequest
	}

	if handler == nil {
		return errors.ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[key{kind: kind, request: request}] = handler
	return nil
}

// Get retrieves a handler by (kind, request)
func (r *Registry) Get(kind message.JobKind, request string) (core.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[key{kind: kind, request: request}]
	return handler, ok
}

// List returns all registered (kind, request) pairs
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		entries = append(entries, k.kind.String()+"/"+k.request)
	}

	return entries
}

// Remove unregisters a handler
func (r *Registry) Remove(kind message.JobKind, request string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.handlers, key{kind: kind, request: request})
}
