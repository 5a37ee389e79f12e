// Package bus is the ordered, partitioned, durable log abstraction shared by
// every service. Topics are named event streams; consumers join named groups
// for competing-consumer semantics, and every subscribing group sees every
// message (fan-out). Delivery is at-least-once: a message is redelivered if
// the handler fails before the offset is committed.
package bus

import "context"

// Message is one record on a topic. Messages with the same Key are delivered
// in publish order to a given consumer group; there is no ordering across
// keys.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Handler processes one message. Returning nil acknowledges it; returning an
// error leaves the offset uncommitted so the message can be redelivered.
type Handler func(ctx context.Context, msg Message) error

// Publisher appends messages to topics. Publish failures surface
// synchronously to the caller.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber runs a consumer group over a set of topics. Subscribe blocks
// until ctx is cancelled, draining in-flight handlers before returning.
type Subscriber interface {
	Subscribe(ctx context.Context, groupID string, topics []string, handler Handler) error
}

// DeadLetterTopic names the holding topic for messages that exhaust their
// retry budget.
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}
