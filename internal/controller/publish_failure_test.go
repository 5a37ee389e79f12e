package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialgrid/internal/bus"
	"socialgrid/internal/events"
	"socialgrid/internal/repository"
)

// brokenPublisher stands in for an unreachable broker.
type brokenPublisher struct{}

func (brokenPublisher) Publish(context.Context, bus.Message) error {
	return errors.New("broker unreachable")
}

// The committed row is the durable fact: a publish failure after the write
// is logged, never surfaced as a request failure.
func TestPostLikeSucceedsWhenPublishFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, author_id, content, like_count, comment_count, created_at, updated_at").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "author_id", "content", "like_count", "comment_count", "created_at", "updated_at"}).
			AddRow("p1", "author", "hello", 0, 0, now, now))
	mock.ExpectExec("INSERT INTO post_likes").
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &Posts{
		Repo:     repository.NewPostRepo(db),
		Producer: events.NewProducer(brokenPublisher{}, "post-service"),
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/posts/:id/like", asUser("u1"), h.Like)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/p1/like", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowSucceedsWhenPublishFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO follows").
		WithArgs("u1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &Social{
		Repo:     repository.NewFollowRepo(db),
		Producer: events.NewProducer(brokenPublisher{}, "social-service"),
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/users/:id/follow", asUser("u1"), h.Follow)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/u2/follow", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
