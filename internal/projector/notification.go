package projector

import (
	"context"

	"socialgrid/internal/bus"
	"socialgrid/internal/dedup"
	"socialgrid/internal/events"
	"socialgrid/internal/inbox"
	"socialgrid/pkg/logger"
)

// AuthorResolver answers "who owns this post/comment" via synchronous
// cross-service lookups. Errors propagate: the handler retries and finally
// dead-letters rather than silently dropping the event.
type AuthorResolver interface {
	PostAuthor(ctx context.Context, postID string) (string, error)
	CommentAuthor(ctx context.Context, commentID string) (string, error)
}

// LivePusher delivers a just-created notification to the recipient's open
// stream, if any. Optional; delivery is best-effort.
type LivePusher interface {
	Push(ctx context.Context, recipientID string, n *inbox.Notification)
}

// NotificationProjector translates qualifying events into inbox rows. Self
// actions (actor == recipient) never notify.
type NotificationProjector struct {
	store   inbox.Store
	resolve AuthorResolver
	dedup   dedup.Deduper
	push    LivePusher
}

func NewNotificationProjector(store inbox.Store, resolve AuthorResolver, d dedup.Deduper, push LivePusher) *NotificationProjector {
	return &NotificationProjector{store: store, resolve: resolve, dedup: d, push: push}
}

func (p *NotificationProjector) Topics() []string {
	return []string{
		events.TopicCommentCreated,
		events.TopicCommentLiked,
		events.TopicCommentUnliked,
		events.TopicPostLiked,
		events.TopicPostUnliked,
		events.TopicUserFollowed,
		events.TopicUserUnfollowed,
	}
}

func (p *NotificationProjector) Handle(ctx context.Context, msg bus.Message) error {
	env, ev, err := decode(msg)
	if err != nil {
		return err
	}
	switch ev := ev.(type) {
	case *events.CommentCreated:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.commentCreated(ctx, ev)
		})
	case *events.CommentLiked:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.commentLiked(ctx, ev)
		})
	case *events.PostLiked:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.postLiked(ctx, ev)
		})
	case *events.UserFollowed:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			return p.userFollowed(ctx, ev)
		})
	case *events.UserUnfollowed:
		return applyOnce(ctx, p.dedup, env, func(ctx context.Context) error {
			// Unfollow withdraws the follower notification.
			return p.store.DeleteByActor(ctx, ev.FollowingID, ev.FollowerID, inbox.TypeNewFollower)
		})
	case *events.CommentUnliked, *events.PostUnliked:
		// Consumed so the group stays current; unlikes never notify.
		return nil
	default:
		logger.Debug(ctx, "Event ignored by notification projector", "topic", env.EventType)
		return nil
	}
}

func (p *NotificationProjector) commentCreated(ctx context.Context, ev *events.CommentCreated) error {
	// Replies notify the parent comment's author; top-level comments notify
	// the post's author.
	if ev.ParentCommentID != "" {
		recipient, err := p.resolve.CommentAuthor(ctx, ev.ParentCommentID)
		if err != nil {
			return err
		}
		if recipient == ev.UserID {
			return nil
		}
		return p.create(ctx, &inbox.Notification{
			RecipientID: recipient,
			ActorID:     ev.UserID,
			PostID:      &ev.PostID,
			CommentID:   &ev.CommentID,
			Type:        inbox.TypeReplyOnComment,
			Title:       "New reply to your comment",
			Body:        "Someone replied to your comment.",
		})
	}

	recipient, err := p.resolve.PostAuthor(ctx, ev.PostID)
	if err != nil {
		return err
	}
	if recipient == ev.UserID {
		return nil
	}
	return p.create(ctx, &inbox.Notification{
		RecipientID: recipient,
		ActorID:     ev.UserID,
		PostID:      &ev.PostID,
		CommentID:   &ev.CommentID,
		Type:        inbox.TypeCommentOnPost,
		Title:       "New comment on your post",
		Body:        "Someone commented on your post.",
	})
}

func (p *NotificationProjector) commentLiked(ctx context.Context, ev *events.CommentLiked) error {
	recipient, err := p.resolve.CommentAuthor(ctx, ev.CommentID)
	if err != nil {
		return err
	}
	if recipient == ev.UserID {
		return nil
	}
	return p.create(ctx, &inbox.Notification{
		RecipientID: recipient,
		ActorID:     ev.UserID,
		PostID:      &ev.PostID,
		CommentID:   &ev.CommentID,
		Type:        inbox.TypeCommentLiked,
		Title:       "Someone liked your comment",
		Body:        "Your comment received a like.",
	})
}

func (p *NotificationProjector) postLiked(ctx context.Context, ev *events.PostLiked) error {
	// AuthorID travels in the payload, so no lookup is needed here.
	if ev.AuthorID == ev.UserID {
		return nil
	}
	return p.create(ctx, &inbox.Notification{
		RecipientID: ev.AuthorID,
		ActorID:     ev.UserID,
		PostID:      &ev.PostID,
		Type:        inbox.TypePostLiked,
		Title:       "Someone liked your post",
		Body:        "Your post received a like.",
	})
}

func (p *NotificationProjector) userFollowed(ctx context.Context, ev *events.UserFollowed) error {
	if ev.FollowerID == ev.FollowingID {
		return nil
	}
	return p.create(ctx, &inbox.Notification{
		RecipientID: ev.FollowingID,
		ActorID:     ev.FollowerID,
		Type:        inbox.TypeNewFollower,
		Title:       "New follower",
		Body:        "Someone started following you.",
	})
}

func (p *NotificationProjector) create(ctx context.Context, n *inbox.Notification) error {
	if err := p.store.Create(ctx, n); err != nil {
		return err
	}
	logger.Info(ctx, "Notification created",
		"type", n.Type, "recipient", n.RecipientID, "actor", n.ActorID)
	if p.push != nil {
		p.push.Push(ctx, n.RecipientID, n)
	}
	return nil
}
