package projector

import (
	"context"

	"socialgrid/internal/bus"
	"socialgrid/internal/dedup"
	"socialgrid/internal/events"
	"socialgrid/pkg/logger"
)

// CommentCounterStore is the slice of the comment repository the projector
// mutates.
type CommentCounterStore interface {
	ApplyLikeDelta(ctx context.Context, commentID string, delta int) error
}

// CommentProjector folds like events into comment like counters. Counters
// are mutated only here, never by the user-facing like endpoints.
type CommentProjector struct {
	counters CommentCounterStore
	dedup    dedup.Deduper
}

func NewCommentProjector(counters CommentCounterStore, d dedup.Deduper) *CommentProjector {
	return &CommentProjector{counters: counters, dedup: d}
}

func (p *CommentProjector) Topics() []string {
	return []string{events.TopicCommentLiked, events.TopicCommentUnliked}
}

func (p *CommentProjector) Handle(ctx context.Context, msg bus.Message) error {
	env, ev, err := decode(msg)
	if err != nil {
		return err
	}
	switch ev := ev.(type) {
	case *events.CommentLiked:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.counters.ApplyLikeDelta(ctx, ev.CommentID, +1)
		})
	case *events.CommentUnliked:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.counters.ApplyLikeDelta(ctx, ev.CommentID, -1)
		})
	default:
		logger.Debug(ctx, "Event ignored by comment projector", "topic", env.EventType)
		return nil
	}
}
