package projector

import (
	"context"

	"socialgrid/internal/bus"
	"socialgrid/internal/dedup"
	"socialgrid/internal/events"
	"socialgrid/pkg/logger"
)

// PostCounterStore is the slice of the post repository the projector mutates.
type PostCounterStore interface {
	ApplyCommentCountDelta(ctx context.Context, postID string, delta int) error
	ApplyLikeDelta(ctx context.Context, postID string, delta int) error
}

// PostProjector folds comment-count deltas and like events into the post
// service's denormalized counters.
type PostProjector struct {
	counters PostCounterStore
	dedup    dedup.Deduper
}

func NewPostProjector(counters PostCounterStore, d dedup.Deduper) *PostProjector {
	return &PostProjector{counters: counters, dedup: d}
}

// Topics the post service's consumer group subscribes to.
func (p *PostProjector) Topics() []string {
	return []string{
		events.TopicPostCommentCountChanged,
		events.TopicPostLiked,
		events.TopicPostUnliked,
	}
}

func (p *PostProjector) Handle(ctx context.Context, msg bus.Message) error {
	env, ev, err := decode(msg)
	if err != nil {
		return err
	}
	switch ev := ev.(type) {
	case *events.PostCommentCountChanged:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.counters.ApplyCommentCountDelta(ctx, ev.PostID, ev.Delta)
		})
	case *events.PostLiked:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.counters.ApplyLikeDelta(ctx, ev.PostID, +1)
		})
	case *events.PostUnliked:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.counters.ApplyLikeDelta(ctx, ev.PostID, -1)
		})
	default:
		logger.Debug(ctx, "Event ignored by post projector", "topic", env.EventType)
		return nil
	}
}
