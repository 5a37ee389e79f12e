package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownEventType is returned when an envelope names an event type that
// is not in the catalog.
var ErrUnknownEventType = errors.New("events: unknown event type")

// Envelope is the wire form of an event: an immutable fact plus the metadata
// that makes projection idempotent. ID is the dedup key; EventType doubles as
// the topic name.
type Envelope struct {
	ID        string          `json:"event_id"`
	EventType string          `json:"event_type"`
	EmittedAt time.Time       `json:"emitted_at"`
	Producer  string          `json:"producer_service"`
	Payload   json.RawMessage `json:"payload"`
}

// Wrap builds an envelope around an event, assigning a fresh event id.
func Wrap(producer string, ev Event) (*Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Envelope{
		ID:        uuid.New().String(),
		EventType: ev.Topic(),
		EmittedAt: time.Now().UTC(),
		Producer:  producer,
		Payload:   payload,
	}, nil
}

// Decode parses an envelope from its wire form.
func Decode(b []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType == "" {
		return nil, errors.New("decode envelope: missing event_type")
	}
	return &env, nil
}

// Event unmarshals the payload into its concrete variant. The switch is the
// single place event types are bound to Go types; a topic missing here is a
// catalog bug surfaced as ErrUnknownEventType, not silently skipped.
func (e *Envelope) Event() (Event, error) {
	var ev Event
	switch e.EventType {
	case TopicCommentCreated:
		ev = &CommentCreated{}
	case TopicCommentDeleted:
		ev = &CommentDeleted{}
	case TopicCommentLiked:
		ev = &CommentLiked{}
	case TopicCommentUnliked:
		ev = &CommentUnliked{}
	case TopicPostLiked:
		ev = &PostLiked{}
	case TopicPostUnliked:
		ev = &PostUnliked{}
	case TopicPostCommentCountChanged:
		ev = &PostCommentCountChanged{}
	case TopicUserFollowed:
		ev = &UserFollowed{}
	case TopicUserUnfollowed:
		ev = &UserUnfollowed{}
	case TopicMessageSent:
		ev = &MessageSent{}
	case TopicMessageRead:
		ev = &MessageRead{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, e.EventType)
	}
	if err := json.Unmarshal(e.Payload, ev); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return ev, nil
}
