// Package inbox is the per-recipient notification store: an ordered list of
// generated notifications with read/unread state, strictly scoped to the
// recipient.
package inbox

import (
	"context"
	"errors"
	"time"
)

// Notification types.
const (
	TypeCommentOnPost  = "comment_on_post"
	TypeReplyOnComment = "reply_on_comment"
	TypePostLiked      = "post_liked"
	TypeCommentLiked   = "comment_liked"
	TypeNewFollower    = "new_follower"
)

var ErrNotFound = errors.New("inbox: notification not found")

// Notification is created once per qualifying event by the projector and
// mutated only by the owning user marking it read.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id"`
	PostID      *string   `json:"post_id,omitempty"`
	CommentID   *string   `json:"comment_id,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page is one slice of a reverse-chronological listing. NextCursor is the id
// of the last returned item; passing it back resumes strictly after it under
// the (created_at DESC, id DESC) order, so a fixed snapshot never repeats or
// skips items across pages.
type Page struct {
	Items      []Notification `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// Store is the inbox contract shared by the Postgres implementation and the
// in-memory one used in tests and single-process runs.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, recipientID string, limit int, cursor string) (Page, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	// DeleteByActor removes notifications of one type from one actor, e.g.
	// dropping the new_follower entry when the actor unfollows.
	DeleteByActor(ctx context.Context, recipientID, actorID, notifType string) error
}
