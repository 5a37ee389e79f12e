package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"socialgrid/pkg/logger"
)

// KafkaPublisher writes messages through a shared kafka-go writer. The hash
// balancer routes all messages with the same key to the same partition, which
// is what gives the pipeline its per-entity ordering. Writes are synchronous
// so a publish failure surfaces to the originating request.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchSize:    100,
			BatchTimeout: 0,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// KafkaSubscriber runs consumer groups against Kafka.
type KafkaSubscriber struct {
	brokers []string
}

func NewKafkaSubscriber(brokers []string) *KafkaSubscriber {
	return &KafkaSubscriber{brokers: brokers}
}

// readerResetBackoff paces reader recreation after a handler failure.
const readerResetBackoff = time.Second

// kafkaFetcher is the slice of kafka.Reader the consume loop needs.
type kafkaFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Subscribe consumes the given topics under groupID until ctx is cancelled.
// The offset is committed only after the handler returns nil. On handler
// error the reader is closed and recreated: the reader's fetch position runs
// ahead of the committed offset, and offset commits are cumulative, so
// fetching past a failed message would let a later commit acknowledge it
// implicitly. Recreating the reader rewinds the group to the last committed
// offset and the failed message is redelivered (at-least-once).
func (s *KafkaSubscriber) Subscribe(ctx context.Context, groupID string, topics []string, handler Handler) error {
	logger.Info(ctx, "Consumer group started", "group", groupID, "topics", topics)
	for {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     s.brokers,
			GroupID:     groupID,
			GroupTopics: topics,
			MinBytes:    1,
			MaxBytes:    10e6,
		})
		err := consumeLoop(ctx, groupID, reader, handler)
		reader.Close()
		if ctx.Err() != nil {
			logger.Info(ctx, "Consumer group draining", "group", groupID)
			return nil
		}
		logger.Error(ctx, "Handler failed, resetting reader to last committed offset",
			"group", groupID, "error", err)
		select {
		case <-time.After(readerResetBackoff):
		case <-ctx.Done():
			logger.Info(ctx, "Consumer group draining", "group", groupID)
			return nil
		}
	}
}

// consumeLoop fetches, handles, and commits until ctx is cancelled or the
// handler fails. A handler error returns with the offset uncommitted so the
// caller can reset the reader and force redelivery.
func consumeLoop(ctx context.Context, groupID string, r kafkaFetcher, handler Handler) error {
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error(ctx, "Fetch failed", "group", groupID, "error", err)
			continue
		}
		m := Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
		if err := handler(ctx, m); err != nil {
			logger.Error(ctx, "Handler failed, offset not committed",
				"group", groupID, "topic", msg.Topic, "error", err)
			return err
		}
		if err := r.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Commit failed", "group", groupID, "error", err)
		}
	}
}

// EnsureTopics creates the given topics (idempotent). Call at startup; a
// failure is logged but non-fatal since topics may already exist or be
// auto-created by the broker.
func EnsureTopics(ctx context.Context, brokers []string, topics []string, partitions int) {
	if len(brokers) == 0 || len(topics) == 0 {
		return
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             t,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}
	if err := ctrlConn.CreateTopics(configs...); err != nil {
		logger.Debug(ctx, "Kafka create topics failed (topics may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topics ensured", "count", len(topics), "partitions", partitions)
}
