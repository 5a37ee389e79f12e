package projector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgrid/internal/dedup"
	"socialgrid/internal/events"
	"socialgrid/internal/inbox"
)

// fakeResolver answers authorship lookups from fixed maps.
type fakeResolver struct {
	postAuthors    map[string]string
	commentAuthors map[string]string
	err            error
	calls          int
}

func (f *fakeResolver) PostAuthor(_ context.Context, postID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.postAuthors[postID], nil
}

func (f *fakeResolver) CommentAuthor(_ context.Context, commentID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.commentAuthors[commentID], nil
}

func listAll(t *testing.T, store inbox.Store, recipient string) []inbox.Notification {
	t.Helper()
	page, err := store.List(context.Background(), recipient, 100, "")
	require.NoError(t, err)
	return page.Items
}

func TestCommentOnPostNotifiesPostAuthor(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	resolver := &fakeResolver{postAuthors: map[string]string{"p1": "author"}}
	p := NewNotificationProjector(store, resolver, dedup.Noop{}, nil)

	msg := eventMessage(t, events.CommentCreated{CommentID: "c1", PostID: "p1", UserID: "commenter"})
	require.NoError(t, p.Handle(ctx, msg))

	got := listAll(t, store, "author")
	require.Len(t, got, 1)
	assert.Equal(t, inbox.TypeCommentOnPost, got[0].Type)
	assert.Equal(t, "commenter", got[0].ActorID)
	assert.Equal(t, "New comment on your post", got[0].Title)
	assert.False(t, got[0].IsRead)
	require.NotNil(t, got[0].PostID)
	assert.Equal(t, "p1", *got[0].PostID)
}

func TestReplyNotifiesParentCommentAuthor(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	resolver := &fakeResolver{
		postAuthors:    map[string]string{"p1": "post-author"},
		commentAuthors: map[string]string{"c1": "parent-author"},
	}
	p := NewNotificationProjector(store, resolver, dedup.Noop{}, nil)

	msg := eventMessage(t, events.CommentCreated{
		CommentID: "c2", PostID: "p1", UserID: "replier", ParentCommentID: "c1",
	})
	require.NoError(t, p.Handle(ctx, msg))

	got := listAll(t, store, "parent-author")
	require.Len(t, got, 1)
	assert.Equal(t, inbox.TypeReplyOnComment, got[0].Type)
	// The post author is not notified for a reply.
	assert.Empty(t, listAll(t, store, "post-author"))
}

func TestSelfActionsNeverNotify(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	resolver := &fakeResolver{
		postAuthors:    map[string]string{"p1": "u1"},
		commentAuthors: map[string]string{"c1": "u1"},
	}
	p := NewNotificationProjector(store, resolver, dedup.Noop{}, nil)

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.CommentCreated{CommentID: "c2", PostID: "p1", UserID: "u1"})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.CommentLiked{CommentID: "c1", PostID: "p1", UserID: "u1"})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostLiked{PostID: "p1", UserID: "u1", AuthorID: "u1"})))

	assert.Empty(t, listAll(t, store, "u1"))
}

func TestPostLikedUsesAuthorFromPayload(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	resolver := &fakeResolver{}
	p := NewNotificationProjector(store, resolver, dedup.Noop{}, nil)

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostLiked{PostID: "p1", UserID: "liker", AuthorID: "author"})))

	got := listAll(t, store, "author")
	require.Len(t, got, 1)
	assert.Equal(t, inbox.TypePostLiked, got[0].Type)
	assert.Zero(t, resolver.calls, "author travels in the payload")
}

func TestUnlikesAreConsumedSilently(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	p := NewNotificationProjector(store, &fakeResolver{}, dedup.Noop{}, nil)

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.PostUnliked{PostID: "p1", UserID: "u1", AuthorID: "u2"})))
	require.NoError(t, p.Handle(ctx, eventMessage(t, events.CommentUnliked{CommentID: "c1", PostID: "p1", UserID: "u1"})))

	assert.Empty(t, listAll(t, store, "u2"))
}

func TestUnfollowWithdrawsFollowerNotification(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	p := NewNotificationProjector(store, &fakeResolver{}, dedup.Noop{}, nil)

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.UserFollowed{FollowerID: "u1", FollowingID: "u2"})))
	require.Len(t, listAll(t, store, "u2"), 1)

	require.NoError(t, p.Handle(ctx, eventMessage(t, events.UserUnfollowed{FollowerID: "u1", FollowingID: "u2"})))
	assert.Empty(t, listAll(t, store, "u2"))
}

func TestDuplicateEventCreatesOneNotificationWithDedup(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	p := NewNotificationProjector(store, &fakeResolver{}, dedup.NewMemory(time.Hour), nil)

	msg := eventMessage(t, events.PostLiked{PostID: "p1", UserID: "liker", AuthorID: "author"})
	require.NoError(t, p.Handle(ctx, msg))
	require.NoError(t, p.Handle(ctx, msg))

	assert.Len(t, listAll(t, store, "author"), 1)
}

func TestDuplicateEventDuplicatesRowWithoutDedup(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	p := NewNotificationProjector(store, &fakeResolver{}, dedup.Noop{}, nil)

	msg := eventMessage(t, events.PostLiked{PostID: "p1", UserID: "liker", AuthorID: "author"})
	require.NoError(t, p.Handle(ctx, msg))
	require.NoError(t, p.Handle(ctx, msg))

	assert.Len(t, listAll(t, store, "author"), 2)
}

func TestResolutionFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	resolver := &fakeResolver{err: errors.New("post service down")}
	p := NewNotificationProjector(store, resolver, dedup.NewMemory(time.Hour), nil)

	msg := eventMessage(t, events.CommentCreated{CommentID: "c1", PostID: "p1", UserID: "commenter"})
	require.Error(t, p.Handle(ctx, msg))
	assert.Empty(t, listAll(t, store, "author"))

	// Retry after the outage succeeds; the reservation was released.
	resolver.err = nil
	resolver.postAuthors = map[string]string{"p1": "author"}
	require.NoError(t, p.Handle(ctx, msg))
	assert.Len(t, listAll(t, store, "author"), 1)
}

// pushRecorder captures live-push deliveries.
type pushRecorder struct {
	pushed []inbox.Notification
}

func (r *pushRecorder) Push(_ context.Context, _ string, n *inbox.Notification) {
	r.pushed = append(r.pushed, *n)
}

func TestFreshNotificationIsPushedLive(t *testing.T) {
	ctx := context.Background()
	store := inbox.NewMemoryStore()
	rec := &pushRecorder{}
	p := NewNotificationProjector(store, &fakeResolver{}, dedup.NewMemory(time.Hour), rec)

	msg := eventMessage(t, events.UserFollowed{FollowerID: "u1", FollowingID: "u2"})
	require.NoError(t, p.Handle(ctx, msg))
	require.NoError(t, p.Handle(ctx, msg)) // duplicate: no second push

	require.Len(t, rec.pushed, 1)
	assert.Equal(t, "u2", rec.pushed[0].RecipientID)
	assert.Equal(t, inbox.TypeNewFollower, rec.pushed[0].Type)
}
