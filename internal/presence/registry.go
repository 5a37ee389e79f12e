// Package presence is the session registry: which connection, if any, a user
// currently has open. It replaces the ad-hoc in-process userId -> socketId
// map with an explicit component; the Redis implementation makes lookups work
// across multiple service instances.
package presence

import (
	"context"
	"sync"
)

// Registry maps a user to their live connection handle. A user has at most
// one registered connection; registering again replaces the previous handle.
type Registry interface {
	Register(ctx context.Context, userID, connID string) error
	Lookup(ctx context.Context, userID string) (connID string, ok bool, err error)
	Unregister(ctx context.Context, userID string) error
}

// MemoryRegistry is the single-process implementation.
type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: make(map[string]string)}
}

func (r *MemoryRegistry) Register(_ context.Context, userID, connID string) error {
	r.mu.Lock()
	r.conns[userID] = connID
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, userID string) (string, bool, error) {
	r.mu.RLock()
	connID, ok := r.conns[userID]
	r.mu.RUnlock()
	return connID, ok, nil
}

func (r *MemoryRegistry) Unregister(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.conns, userID)
	r.mu.Unlock()
	return nil
}
