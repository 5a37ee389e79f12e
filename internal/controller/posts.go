package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"socialgrid/internal/enrich"
	"socialgrid/internal/events"
	"socialgrid/internal/middleware"
	"socialgrid/internal/repository"
	"socialgrid/pkg/logger"
)

// Posts owns the posts table and its denormalized counters. Mutating
// endpoints commit the local row first and then publish exactly one event
// per domain fact; the counters themselves are only ever touched by the
// projector. The committed row is the durable fact, so a publish failure is
// logged and the request still succeeds.
type Posts struct {
	Repo      *repository.PostRepo
	Producer  *events.Producer
	Directory *enrich.Directory
}

func (h *Posts) Create(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	var body struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	p := &repository.Post{AuthorID: uid, Content: body.Content}
	if err := h.Repo.Create(ctx, p); err != nil {
		logger.Error(ctx, "Create post failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get serves a single post; also the enrichment source for the notification
// projector's author lookups.
func (h *Posts) Get(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.Repo.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Get post failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// List returns recent posts decorated with author summaries. Enrichment
// failure degrades to placeholder authors; the request never fails for it.
func (h *Posts) List(c *gin.Context) {
	ctx := c.Request.Context()
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	posts, err := h.Repo.ListRecent(ctx, limit)
	if err != nil {
		logger.Error(ctx, "List posts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors := h.Directory.BatchFetchUsers(ctx, ids)

	type enrichedPost struct {
		repository.Post
		Author enrich.Author `json:"author"`
	}
	out := make([]enrichedPost, len(posts))
	for i, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			author = enrich.Placeholder(p.AuthorID)
		}
		out[i] = enrichedPost{Post: p, Author: author}
	}
	c.JSON(http.StatusOK, gin.H{"posts": out})
}

// Like records the like fact and publishes post.liked. A repeated like is a
// no-op: no row change, no event.
func (h *Posts) Like(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	postID := c.Param("id")

	post, err := h.Repo.GetByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Like post lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like post"})
		return
	}
	inserted, err := h.Repo.InsertLike(ctx, postID, uid)
	if err != nil {
		logger.Error(ctx, "Like insert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like post"})
		return
	}
	if !inserted {
		c.JSON(http.StatusOK, gin.H{"message": "Already liked"})
		return
	}
	if err := h.Producer.Emit(ctx, events.PostLiked{PostID: postID, UserID: uid, AuthorID: post.AuthorID}); err != nil {
		logger.Error(ctx, "Publish post.liked failed", "error", err)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Like recorded"})
}

func (h *Posts) Unlike(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	postID := c.Param("id")

	post, err := h.Repo.GetByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Unlike post lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlike post"})
		return
	}
	removed, err := h.Repo.DeleteLike(ctx, postID, uid)
	if err != nil {
		logger.Error(ctx, "Unlike delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlike post"})
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{"message": "Not liked"})
		return
	}
	if err := h.Producer.Emit(ctx, events.PostUnliked{PostID: postID, UserID: uid, AuthorID: post.AuthorID}); err != nil {
		logger.Error(ctx, "Publish post.unliked failed", "error", err)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Unlike recorded"})
}
