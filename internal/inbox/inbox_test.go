package inbox

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInbox(t *testing.T, s *MemoryStore, recipient string, n int) []Notification {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Notification, n)
	for i := 0; i < n; i++ {
		notif := Notification{
			RecipientID: recipient,
			ActorID:     "actor",
			Type:        TypePostLiked,
			Title:       "Someone liked your post",
			Body:        fmt.Sprintf("like %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Create(context.Background(), &notif))
		out[i] = notif
	}
	return out
}

func TestListIsReverseChronological(t *testing.T) {
	s := NewMemoryStore()
	seedInbox(t, s, "u1", 5)

	page, err := s.List(context.Background(), "u1", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	assert.False(t, page.HasMore)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
}

func TestListCursorPagesWithoutGapsOrRepeats(t *testing.T) {
	s := NewMemoryStore()
	seedInbox(t, s, "u1", 7)
	ctx := context.Background()

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := s.List(ctx, "u1", 3, cursor)
		require.NoError(t, err)
		for _, n := range page.Items {
			assert.False(t, seen[n.ID], "item %s repeated across pages", n.ID)
			seen[n.ID] = true
		}
		pages++
		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}
	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 7, "every item appears exactly once")
}

func TestListScopedToRecipient(t *testing.T) {
	s := NewMemoryStore()
	seedInbox(t, s, "u1", 3)
	seedInbox(t, s, "u2", 2)

	page, err := s.List(context.Background(), "u1", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for _, n := range page.Items {
		assert.Equal(t, "u1", n.RecipientID)
	}
}

func TestMarkRead(t *testing.T) {
	s := NewMemoryStore()
	created := seedInbox(t, s, "u1", 1)
	ctx := context.Background()

	// Another user cannot mark someone else's notification.
	require.ErrorIs(t, s.MarkRead(ctx, "u2", created[0].ID), ErrNotFound)
	require.ErrorIs(t, s.MarkRead(ctx, "u1", "no-such-id"), ErrNotFound)

	require.NoError(t, s.MarkRead(ctx, "u1", created[0].ID))
	page, err := s.List(ctx, "u1", 10, "")
	require.NoError(t, err)
	assert.True(t, page.Items[0].IsRead)
}

func TestMarkAllRead(t *testing.T) {
	s := NewMemoryStore()
	seedInbox(t, s, "u1", 4)
	seedInbox(t, s, "u2", 1)
	ctx := context.Background()

	require.NoError(t, s.MarkAllRead(ctx, "u1"))

	page, err := s.List(ctx, "u1", 10, "")
	require.NoError(t, err)
	for _, n := range page.Items {
		assert.True(t, n.IsRead)
	}
	other, err := s.List(ctx, "u2", 10, "")
	require.NoError(t, err)
	assert.False(t, other.Items[0].IsRead, "other inboxes untouched")
}

func TestDeleteByActorRemovesOnlyMatchingType(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	follow := Notification{RecipientID: "u1", ActorID: "u2", Type: TypeNewFollower, Title: "New follower"}
	like := Notification{RecipientID: "u1", ActorID: "u2", Type: TypePostLiked, Title: "Someone liked your post"}
	require.NoError(t, s.Create(ctx, &follow))
	require.NoError(t, s.Create(ctx, &like))

	require.NoError(t, s.DeleteByActor(ctx, "u1", "u2", TypeNewFollower))

	page, err := s.List(ctx, "u1", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, TypePostLiked, page.Items[0].Type)
}

func TestPaginateProbeRow(t *testing.T) {
	items := []Notification{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	page := paginate(items, 2)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "b", page.NextCursor)

	page = paginate(items[:2], 2)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}
