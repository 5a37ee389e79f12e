// Package events defines the domain event catalog: one topic per event type,
// a closed set of payload variants, and the envelope they travel in. Adding
// an event type means adding a variant here and a case to Envelope.Event;
// consumers dispatch on the concrete type, not on raw strings.
package events

// Topic names. Each event type is its own topic; the message key is the
// subject entity id so all events about one entity stay ordered.
const (
	TopicCommentCreated          = "comment.created"
	TopicCommentDeleted          = "comment.deleted"
	TopicCommentLiked            = "comment.liked"
	TopicCommentUnliked          = "comment.unliked"
	TopicPostLiked               = "post.liked"
	TopicPostUnliked             = "post.unliked"
	TopicPostCommentCountChanged = "post.comment_count.changed"
	TopicUserFollowed            = "user.followed"
	TopicUserUnfollowed          = "user.unfollowed"
	TopicMessageSent             = "message.sent"
	TopicMessageRead             = "message.read"
)

// AllTopics lists every topic in the catalog, for startup topic creation.
func AllTopics() []string {
	return []string{
		TopicCommentCreated,
		TopicCommentDeleted,
		TopicCommentLiked,
		TopicCommentUnliked,
		TopicPostLiked,
		TopicPostUnliked,
		TopicPostCommentCountChanged,
		TopicUserFollowed,
		TopicUserUnfollowed,
		TopicMessageSent,
		TopicMessageRead,
	}
}

// Event is the closed set of domain event payloads. Topic names the stream
// the event belongs to; Key is the partition key (the subject entity id).
type Event interface {
	Topic() string
	Key() string
	isEvent()
}

// CommentCreated is published by the comment service after a comment row
// commits. ParentCommentID is set for replies.
type CommentCreated struct {
	CommentID       string `json:"comment_id"`
	PostID          string `json:"post_id"`
	UserID          string `json:"user_id"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
}

func (CommentCreated) Topic() string { return TopicCommentCreated }
func (e CommentCreated) Key() string { return e.PostID }
func (CommentCreated) isEvent()      {}

type CommentDeleted struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
}

func (CommentDeleted) Topic() string { return TopicCommentDeleted }
func (e CommentDeleted) Key() string { return e.PostID }
func (CommentDeleted) isEvent()      {}

type CommentLiked struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
}

func (CommentLiked) Topic() string { return TopicCommentLiked }
func (e CommentLiked) Key() string { return e.CommentID }
func (CommentLiked) isEvent()      {}

type CommentUnliked struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
}

func (CommentUnliked) Topic() string { return TopicCommentUnliked }
func (e CommentUnliked) Key() string { return e.CommentID }
func (CommentUnliked) isEvent()      {}

// PostLiked carries AuthorID so the notification projector can suppress
// self-likes without a cross-service lookup.
type PostLiked struct {
	PostID   string `json:"post_id"`
	UserID   string `json:"user_id"`
	AuthorID string `json:"author_id"`
}

func (PostLiked) Topic() string { return TopicPostLiked }
func (e PostLiked) Key() string { return e.PostID }
func (PostLiked) isEvent()      {}

type PostUnliked struct {
	PostID   string `json:"post_id"`
	UserID   string `json:"user_id"`
	AuthorID string `json:"author_id"`
}

func (PostUnliked) Topic() string { return TopicPostUnliked }
func (e PostUnliked) Key() string { return e.PostID }
func (PostUnliked) isEvent()      {}

// PostCommentCountChanged is a delta event: the comment service does not know
// the current value of a counter it does not own, so it ships a relative
// change for the post service to fold in.
type PostCommentCountChanged struct {
	PostID string `json:"post_id"`
	Delta  int    `json:"delta"`
}

func (PostCommentCountChanged) Topic() string { return TopicPostCommentCountChanged }
func (e PostCommentCountChanged) Key() string { return e.PostID }
func (PostCommentCountChanged) isEvent()      {}

type UserFollowed struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

func (UserFollowed) Topic() string { return TopicUserFollowed }
func (e UserFollowed) Key() string { return e.FollowingID }
func (UserFollowed) isEvent()      {}

type UserUnfollowed struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

func (UserUnfollowed) Topic() string { return TopicUserUnfollowed }
func (e UserUnfollowed) Key() string { return e.FollowingID }
func (UserUnfollowed) isEvent()      {}

// MessageSent and MessageRead are published by the messaging services.
// Nothing consumes them yet; they are in the catalog so the streams exist.
type MessageSent struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
}

func (MessageSent) Topic() string { return TopicMessageSent }
func (e MessageSent) Key() string { return e.ConversationID }
func (MessageSent) isEvent()      {}

type MessageRead struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

func (MessageRead) Topic() string { return TopicMessageRead }
func (e MessageRead) Key() string { return e.ConversationID }
func (MessageRead) isEvent()      {}
