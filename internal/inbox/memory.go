package inbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-process inbox used by tests and single-process runs.
// List semantics mirror PostgresStore exactly, including the keyset cursor.
type MemoryStore struct {
	mu    sync.Mutex
	items []Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, *n)
	return nil
}

func (s *MemoryStore) List(_ context.Context, recipientID string, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var owned []Notification
	for _, n := range s.items {
		if n.RecipientID == recipientID {
			owned = append(owned, n)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	start := 0
	if cursor != "" {
		for i, n := range owned {
			if n.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	rest := owned[min(start, len(owned)):]
	if len(rest) > limit+1 {
		rest = rest[:limit+1]
	}
	items := make([]Notification, len(rest))
	copy(items, rest)
	return paginate(items, limit), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, recipientID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].RecipientID == recipientID {
			s.items[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) MarkAllRead(_ context.Context, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].RecipientID == recipientID {
			s.items[i].IsRead = true
		}
	}
	return nil
}

func (s *MemoryStore) DeleteByActor(_ context.Context, recipientID, actorID, notifType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, n := range s.items {
		if n.RecipientID == recipientID && n.ActorID == actorID && n.Type == notifType {
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	return nil
}
