package bus

import (
	"context"
	"sync"
	"time"
)

// redeliverDelay paces redelivery of a failed message so a poison message
// cannot busy-spin its topic goroutine.
const redeliverDelay = 10 * time.Millisecond

// MemoryBus is an in-process implementation of the bus contract: per-topic
// append-only logs with independent consumer-group cursors. Delivery within a
// topic is in append order, which trivially satisfies the per-key ordering
// guarantee. Used by tests and single-process runs; semantics mirror the
// Kafka implementation, including redelivery of unacknowledged messages.
type MemoryBus struct {
	mu      sync.Mutex
	cond    *sync.Cond
	logs    map[string][]Message
	cursors map[string]int // groupID + "|" + topic -> next offset
}

func NewMemoryBus() *MemoryBus {
	b := &MemoryBus{
		logs:    make(map[string][]Message),
		cursors: make(map[string]int),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *MemoryBus) Publish(ctx context.Context, msg Message) error {
	b.mu.Lock()
	b.logs[msg.Topic] = append(b.logs[msg.Topic], msg)
	b.mu.Unlock()
	b.cond.Broadcast()
	return nil
}

// Journal returns a copy of every message appended to a topic, in order.
func (b *MemoryBus) Journal(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.logs[topic]))
	copy(out, b.logs[topic])
	return out
}

// ProcessPending synchronously delivers, in order, every message appended so
// far that groupID has not yet acknowledged. Messages published by handlers
// during the pass are delivered too; the call returns once the group has
// caught up on all topics. On handler error the cursor is not advanced and
// the error is returned, so a retry redelivers the same message.
func (b *MemoryBus) ProcessPending(ctx context.Context, groupID string, topics []string, handler Handler) error {
	for {
		progressed := false
		for _, topic := range topics {
			for {
				msg, ok := b.next(groupID, topic)
				if !ok {
					break
				}
				if err := handler(ctx, msg); err != nil {
					return err
				}
				b.advance(groupID, topic)
				progressed = true
			}
		}
		if !progressed {
			return nil
		}
	}
}

// Subscribe delivers messages to the handler as they arrive, blocking until
// ctx is cancelled. One goroutine per topic keeps per-topic order.
func (b *MemoryBus) Subscribe(ctx context.Context, groupID string, topics []string, handler Handler) error {
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		b.cond.Broadcast()
		close(stop)
	}()

	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			for {
				msg, ok := b.waitNext(ctx, groupID, topic)
				if !ok {
					return
				}
				if err := handler(ctx, msg); err != nil {
					select {
					case <-ctx.Done():
						return
					case <-time.After(redeliverDelay):
					}
					continue // redeliver
				}
				b.advance(groupID, topic)
			}
		}(topic)
	}
	wg.Wait()
	<-stop
	return nil
}

func (b *MemoryBus) next(groupID, topic string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.cursors[groupID+"|"+topic]
	log := b.logs[topic]
	if cur >= len(log) {
		return Message{}, false
	}
	return log[cur], true
}

func (b *MemoryBus) waitNext(ctx context.Context, groupID, topic string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := groupID + "|" + topic
	for {
		if ctx.Err() != nil {
			return Message{}, false
		}
		cur := b.cursors[key]
		log := b.logs[topic]
		if cur < len(log) {
			return log[cur], true
		}
		b.cond.Wait()
	}
}

func (b *MemoryBus) advance(groupID, topic string) {
	b.mu.Lock()
	b.cursors[groupID+"|"+topic]++
	b.mu.Unlock()
}
