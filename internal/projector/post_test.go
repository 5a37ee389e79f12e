package projector

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgrid/internal/bus"
	"socialgrid/internal/dedup"
	"socialgrid/internal/events"
)

// eventMessage wraps an event into its wire form the way the producer does.
func eventMessage(t *testing.T, ev events.Event) bus.Message {
	t.Helper()
	env, err := events.Wrap("test", ev)
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return bus.Message{Topic: ev.Topic(), Key: []byte(ev.Key()), Value: value}
}

// fakeCounters mirrors the repository's floor clamp: a delta can never take a
// counter below zero.
type fakeCounters struct {
	mu           sync.Mutex
	commentCount map[string]int
	likeCount    map[string]int
	failNext     error
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{commentCount: map[string]int{}, likeCount: map[string]int{}}
}

func (f *fakeCounters) ApplyCommentCountDelta(_ context.Context, postID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.commentCount[postID] = max(f.commentCount[postID]+delta, 0)
	return nil
}

func (f *fakeCounters) ApplyLikeDelta(_ context.Context, postID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.likeCount[postID] = max(f.likeCount[postID]+delta, 0)
	return nil
}

func TestPostProjectorAppliesDeltas(t *testing.T) {
	ctx := context.Background()
	counters := newFakeCounters()
	p := NewPostProjector(counters, dedup.Noop{})

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostCommentCountChanged{PostID: "p1", Delta: 1})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostLiked{PostID: "p1", UserID: "u1", AuthorID: "u2"})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostLiked{PostID: "p1", UserID: "u3", AuthorID: "u2"})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostUnliked{PostID: "p1", UserID: "u1", AuthorID: "u2"})))

	assert.Equal(t, 1, counters.commentCount["p1"])
	assert.Equal(t, 1, counters.likeCount["p1"])
}

func TestPostProjectorCounterNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	counters := newFakeCounters()
	p := NewPostProjector(counters, dedup.Noop{})

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostCommentCountChanged{PostID: "p1", Delta: -1})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostUnliked{PostID: "p1", UserID: "u1", AuthorID: "u2"})))

	assert.Equal(t, 0, counters.commentCount["p1"])
	assert.Equal(t, 0, counters.likeCount["p1"])
}

func TestDuplicateDeliveryDoubleCountsWithoutDedup(t *testing.T) {
	ctx := context.Background()
	counters := newFakeCounters()
	p := NewPostProjector(counters, dedup.Noop{})

	msg := eventMessage(t, events.PostCommentCountChanged{PostID: "p1", Delta: 1})
	require.NoError(t, p.Handle(ctx, msg))
	require.NoError(t, p.Handle(ctx, msg))

	// Without processed-event tracking a redelivery is applied again.
	assert.Equal(t, 2, counters.commentCount["p1"])
}

func TestDuplicateDeliveryAppliesOnceWithDedup(t *testing.T) {
	ctx := context.Background()
	counters := newFakeCounters()
	p := NewPostProjector(counters, dedup.NewMemory(time.Hour))

	msg := eventMessage(t, events.PostCommentCountChanged{PostID: "p1", Delta: 1})
	require.NoError(t, p.Handle(ctx, msg))
	require.NoError(t, p.Handle(ctx, msg))

	assert.Equal(t, 1, counters.commentCount["p1"])
}

func TestFailedApplyReleasesReservation(t *testing.T) {
	ctx := context.Background()
	counters := newFakeCounters()
	counters.failNext = errors.New("db down")
	p := NewPostProjector(counters, dedup.NewMemory(time.Hour))

	msg := eventMessage(t, events.PostLiked{PostID: "p1", UserID: "u1", AuthorID: "u2"})
	require.Error(t, p.Handle(ctx, msg))

	// The reservation was released, so the redelivery applies.
	require.NoError(t, p.Handle(ctx, msg))
	assert.Equal(t, 1, counters.likeCount["p1"])
}

func TestPostProjectorRejectsMalformedMessages(t *testing.T) {
	p := NewPostProjector(newFakeCounters(), dedup.Noop{})
	err := p.Handle(context.Background(), bus.Message{Topic: events.TopicPostLiked, Value: []byte("not json")})
	assert.Error(t, err)
}

func TestCommentProjectorAppliesLikeDeltas(t *testing.T) {
	ctx := context.Background()
	counters := newFakeCounters()
	p := NewCommentProjector(counters, dedup.NewMemory(time.Hour))

	liked := eventMessage(t, events.CommentLiked{CommentID: "c1", PostID: "p1", UserID: "u1"})
	require.NoError(t, p.Handle(ctx, liked))
	require.NoError(t, p.Handle(ctx, liked)) // duplicate
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.CommentUnliked{CommentID: "c2", PostID: "p1", UserID: "u1"})))

	assert.Equal(t, 1, counters.likeCount["c1"])
	assert.Equal(t, 0, counters.likeCount["c2"])
}
