// Package dedup tracks processed event ids so that at-least-once delivery
// becomes effectively-once projection. A projector reserves (topic, eventId)
// before applying; a reservation that already exists means the event was
// applied and the redelivery is dropped. If the apply fails the reservation
// is released so the retry can go through.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Deduper is the processed-event store.
type Deduper interface {
	// Reserve records (topic, eventID) and reports whether it was fresh.
	Reserve(ctx context.Context, topic, eventID string) (bool, error)
	// Release forgets a reservation after a failed apply.
	Release(ctx context.Context, topic, eventID string)
}

// Noop performs no tracking: every delivery looks fresh. This reproduces the
// pipeline's historical behavior, where duplicate delivery double-counts
// counters and duplicates notification rows.
type Noop struct{}

func (Noop) Reserve(context.Context, string, string) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string, string)               {}

// Memory is an in-process deduper with TTL-based retention, used by tests
// and single-process runs.
type Memory struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (m *Memory) Reserve(_ context.Context, topic, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := topic + ":" + eventID
	if expiry, ok := m.seen[key]; ok && m.now().Before(expiry) {
		return false, nil
	}
	m.seen[key] = m.now().Add(m.ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, topic, eventID string) {
	m.mu.Lock()
	delete(m.seen, topic+":"+eventID)
	m.mu.Unlock()
}
