package bus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publish(t *testing.T, b *MemoryBus, topic, key, value string) {
	t.Helper()
	require.NoError(t, b.Publish(context.Background(), Message{
		Topic: topic,
		Key:   []byte(key),
		Value: []byte(value),
	}))
}

func TestMemoryBusDeliversInAppendOrder(t *testing.T) {
	b := NewMemoryBus()
	publish(t, b, "post.liked", "post-1", "first")
	publish(t, b, "post.liked", "post-1", "second")
	publish(t, b, "post.liked", "post-2", "third")

	var got []string
	err := b.ProcessPending(context.Background(), "g1", []string{"post.liked"}, func(_ context.Context, m Message) error {
		got = append(got, string(m.Value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestMemoryBusIndependentGroupCursors(t *testing.T) {
	b := NewMemoryBus()
	publish(t, b, "user.followed", "u1", "a")
	publish(t, b, "user.followed", "u1", "b")

	count := func(group string) int {
		n := 0
		err := b.ProcessPending(context.Background(), group, []string{"user.followed"}, func(context.Context, Message) error {
			n++
			return nil
		})
		require.NoError(t, err)
		return n
	}

	// Both groups see the full stream.
	assert.Equal(t, 2, count("post-service"))
	assert.Equal(t, 2, count("notification-service"))
	// A second pass for the same group delivers nothing new.
	assert.Equal(t, 0, count("post-service"))
}

func TestMemoryBusRedeliversOnHandlerError(t *testing.T) {
	b := NewMemoryBus()
	publish(t, b, "comment.liked", "c1", "payload")

	boom := errors.New("apply failed")
	err := b.ProcessPending(context.Background(), "g1", []string{"comment.liked"}, func(context.Context, Message) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The cursor did not advance; the same message comes back.
	var redelivered []string
	err = b.ProcessPending(context.Background(), "g1", []string{"comment.liked"}, func(_ context.Context, m Message) error {
		redelivered = append(redelivered, string(m.Value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"payload"}, redelivered)
}

func TestMemoryBusProcessPendingDrainsHandlerPublishes(t *testing.T) {
	b := NewMemoryBus()
	publish(t, b, "comment.created", "p1", "comment")

	var deltas int
	handler := func(ctx context.Context, m Message) error {
		switch m.Topic {
		case "comment.created":
			// Handler cascades a second event during the pass.
			return b.Publish(ctx, Message{Topic: "post.comment_count.changed", Key: m.Key, Value: []byte("+1")})
		case "post.comment_count.changed":
			deltas++
		}
		return nil
	}
	topics := []string{"comment.created", "post.comment_count.changed"}
	require.NoError(t, b.ProcessPending(context.Background(), "g1", topics, handler))
	assert.Equal(t, 1, deltas)
}

func TestMemoryBusJournalCopies(t *testing.T) {
	b := NewMemoryBus()
	publish(t, b, "post.liked", "p1", "x")

	j := b.Journal("post.liked")
	require.Len(t, j, 1)
	j[0].Value = []byte("mutated")
	assert.Equal(t, "x", string(b.Journal("post.liked")[0].Value))
}

func TestWithRetryRecoversOnLaterAttempt(t *testing.T) {
	b := NewMemoryBus()
	attempts := 0
	h := WithRetry(func(context.Context, Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, b, 3, time.Millisecond)

	err := h(context.Background(), Message{Topic: "post.liked", Value: []byte("v")})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, b.Journal(DeadLetterTopic("post.liked")))
}

func TestWithRetryDeadLettersAfterExhaustion(t *testing.T) {
	b := NewMemoryBus()
	attempts := 0
	h := WithRetry(func(context.Context, Message) error {
		attempts++
		return errors.New("poison")
	}, b, 3, time.Millisecond)

	// nil: the message is acknowledged so the stream keeps moving.
	err := h(context.Background(), Message{Topic: "comment.liked", Key: []byte("c1"), Value: []byte("bad")})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	dlq := b.Journal(DeadLetterTopic("comment.liked"))
	require.Len(t, dlq, 1)
	assert.Equal(t, "comment.liked.dlq", dlq[0].Topic)
	assert.Equal(t, "bad", string(dlq[0].Value))
	assert.Equal(t, "c1", string(dlq[0].Key))
}

func TestWithRetryPropagatesDeadLetterPublishFailure(t *testing.T) {
	pubErr := errors.New("broker down")
	h := WithRetry(func(context.Context, Message) error {
		return errors.New("handler broken")
	}, publisherFunc(func(context.Context, Message) error { return pubErr }), 1, 0)

	err := h(context.Background(), Message{Topic: "post.liked"})
	require.ErrorIs(t, err, pubErr)
}

type publisherFunc func(ctx context.Context, msg Message) error

func (f publisherFunc) Publish(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestMemoryBusSubscribeBacksOffOnFailingHandler(t *testing.T) {
	b := NewMemoryBus()
	publish(t, b, "post.liked", "p1", "poison")

	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Subscribe(ctx, "g1", []string{"post.liked"}, func(context.Context, Message) error {
			attempts.Add(1)
			return errors.New("poison")
		})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	require.GreaterOrEqual(t, attempts.Load(), int64(2), "the failed message is redelivered")
	assert.LessOrEqual(t, attempts.Load(), int64(50), "redelivery is paced, not busy-spun")
}
