package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directoryServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestBatchFetchUsersResolvesKnownIDs(t *testing.T) {
	srv := directoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/batch", r.URL.Path)
		var body struct {
			IDs []string `json:"ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.ElementsMatch(t, []string{"u1", "u2"}, body.IDs)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []Author{{ID: "u1", Username: "alice"}},
		})
	})

	d := NewDirectory(DirectoryConfig{BaseURL: srv.URL})
	got := d.BatchFetchUsers(context.Background(), []string{"u1", "u2", "u1", ""})
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got["u1"].Username)
}

func TestBatchFetchUsersNeverErrors(t *testing.T) {
	srv := directoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	d := NewDirectory(DirectoryConfig{BaseURL: srv.URL, BreakerThreshold: 100})
	got := d.BatchFetchUsers(context.Background(), []string{"u1", "u2"})
	assert.Empty(t, got, "failure degrades to an empty result, not an error")
}

func TestAuthorsSubstitutesPlaceholders(t *testing.T) {
	srv := directoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []Author{{ID: "u2", Username: "bob"}},
		})
	})

	d := NewDirectory(DirectoryConfig{BaseURL: srv.URL})
	got := d.Authors(context.Background(), []string{"u1", "u2", "u3"})
	require.Len(t, got, 3, "one entry per input id, in input order")
	assert.Equal(t, "Unknown User", got[0].Username)
	assert.Equal(t, "bob", got[1].Username)
	assert.Equal(t, "Unknown User", got[2].Username)
}

func TestAuthorsWhenDirectoryUnreachable(t *testing.T) {
	// Nothing listens here; every call fails fast.
	d := NewDirectory(DirectoryConfig{
		BaseURL:          "http://127.0.0.1:1",
		Timeout:          200 * time.Millisecond,
		BreakerThreshold: 100,
	})
	got := d.Authors(context.Background(), []string{"u1", "u2"})
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, "Unknown User", a.Username)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int64
	srv := directoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	d := NewDirectory(DirectoryConfig{
		BaseURL:          srv.URL,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Hour,
	})
	ctx := context.Background()

	// Distinct id sets so singleflight does not coalesce the calls.
	d.BatchFetchUsers(ctx, []string{"u1"})
	d.BatchFetchUsers(ctx, []string{"u2"})
	require.EqualValues(t, 2, calls.Load())

	// Circuit is open: no network, placeholders immediately.
	got := d.Authors(ctx, []string{"u3"})
	assert.EqualValues(t, 2, calls.Load(), "open circuit skips the request")
	require.Len(t, got, 1)
	assert.Equal(t, "Unknown User", got[0].Username)
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	b := newBreaker(3, time.Hour)
	b.failure()
	b.failure()
	b.success()
	b.failure()
	b.failure()
	assert.True(t, b.allow(), "success resets the consecutive-failure count")
	b.failure()
	assert.False(t, b.allow())
}
