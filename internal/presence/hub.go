package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"socialgrid/internal/inbox"
	"socialgrid/pkg/logger"
)

// Hub fans freshly projected notifications out to live streams on this
// instance. The registry answers "is the user connected and where"; the hub
// owns the local connection channels.
type Hub struct {
	registry Registry
	mu       sync.Mutex
	streams  map[string]chan inbox.Notification // connID -> stream
}

func NewHub(registry Registry) *Hub {
	return &Hub{registry: registry, streams: make(map[string]chan inbox.Notification)}
}

// Connect registers a live stream for the user and returns its channel plus
// a close function. A second connection for the same user replaces the
// registry entry; the old stream stops receiving pushes.
func (h *Hub) Connect(ctx context.Context, userID string) (<-chan inbox.Notification, func(), error) {
	connID := uuid.New().String()
	ch := make(chan inbox.Notification, 16)

	h.mu.Lock()
	h.streams[connID] = ch
	h.mu.Unlock()

	if err := h.registry.Register(ctx, userID, connID); err != nil {
		h.mu.Lock()
		delete(h.streams, connID)
		h.mu.Unlock()
		return nil, nil, err
	}

	closeFn := func() {
		h.mu.Lock()
		delete(h.streams, connID)
		h.mu.Unlock()
		// Only unregister if the registry still points at this connection.
		if current, ok, err := h.registry.Lookup(context.Background(), userID); err == nil && ok && current == connID {
			_ = h.registry.Unregister(context.Background(), userID)
		}
	}
	return ch, closeFn, nil
}

// Push delivers a notification to the recipient's live stream, if any is
// registered on this instance. A full or absent stream drops the push; the
// inbox row is the durable copy.
func (h *Hub) Push(ctx context.Context, recipientID string, n *inbox.Notification) {
	connID, ok, err := h.registry.Lookup(ctx, recipientID)
	if err != nil {
		logger.Debug(ctx, "Presence lookup failed", "recipient", recipientID, "error", err)
		return
	}
	if !ok {
		return
	}
	h.mu.Lock()
	ch, live := h.streams[connID]
	h.mu.Unlock()
	if !live {
		return
	}
	select {
	case ch <- *n:
	default:
	}
}
