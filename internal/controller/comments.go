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

// Comments owns the comments table. Creating or deleting a comment publishes
// both the comment fact and the post.comment_count.changed delta: this
// service does not know the post's current count, so it ships a relative
// change for the post service to fold in.
type Comments struct {
	Repo      *repository.CommentRepo
	Producer  *events.Producer
	Directory *enrich.Directory
}

func (h *Comments) Create(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	var body struct {
		PostID          string `json:"post_id" binding:"required"`
		Content         string `json:"content" binding:"required"`
		ParentCommentID string `json:"parent_comment_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	cm := &repository.Comment{PostID: body.PostID, UserID: uid, Content: body.Content}
	if body.ParentCommentID != "" {
		cm.ParentCommentID = &body.ParentCommentID
	}
	if err := h.Repo.Create(ctx, cm); err != nil {
		logger.Error(ctx, "Create comment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	if err := h.Producer.Emit(ctx, events.CommentCreated{
		CommentID:       cm.ID,
		PostID:          cm.PostID,
		UserID:          uid,
		ParentCommentID: body.ParentCommentID,
	}); err != nil {
		logger.Error(ctx, "Publish comment.created failed", "error", err)
	}
	if err := h.Producer.Emit(ctx, events.PostCommentCountChanged{PostID: cm.PostID, Delta: +1}); err != nil {
		logger.Error(ctx, "Publish comment count delta failed", "error", err)
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *Comments) Get(c *gin.Context) {
	ctx := c.Request.Context()
	cm, err := h.Repo.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Get comment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get comment"})
		return
	}
	c.JSON(http.StatusOK, cm)
}

// ListByPost returns a post's comments decorated with author summaries.
func (h *Comments) ListByPost(c *gin.Context) {
	ctx := c.Request.Context()
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	comments, err := h.Repo.ListByPost(ctx, c.Param("id"), limit)
	if err != nil {
		logger.Error(ctx, "List comments failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list comments"})
		return
	}
	ids := make([]string, len(comments))
	for i, cm := range comments {
		ids[i] = cm.UserID
	}
	authors := h.Directory.BatchFetchUsers(ctx, ids)

	type enrichedComment struct {
		repository.Comment
		Author enrich.Author `json:"author"`
	}
	out := make([]enrichedComment, len(comments))
	for i, cm := range comments {
		author, ok := authors[cm.UserID]
		if !ok {
			author = enrich.Placeholder(cm.UserID)
		}
		out[i] = enrichedComment{Comment: cm, Author: author}
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

func (h *Comments) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	id := c.Param("id")

	cm, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Delete comment lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	deleted, err := h.Repo.Delete(ctx, id, uid)
	if err != nil {
		logger.Error(ctx, "Delete comment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	if !deleted {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the comment owner"})
		return
	}

	if err := h.Producer.Emit(ctx, events.CommentDeleted{CommentID: id, PostID: cm.PostID, UserID: uid}); err != nil {
		logger.Error(ctx, "Publish comment.deleted failed", "error", err)
	}
	if err := h.Producer.Emit(ctx, events.PostCommentCountChanged{PostID: cm.PostID, Delta: -1}); err != nil {
		logger.Error(ctx, "Publish comment count delta failed", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func (h *Comments) Like(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	id := c.Param("id")

	cm, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Like comment lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like comment"})
		return
	}
	inserted, err := h.Repo.InsertLike(ctx, id, uid)
	if err != nil {
		logger.Error(ctx, "Like insert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like comment"})
		return
	}
	if !inserted {
		c.JSON(http.StatusOK, gin.H{"message": "Already liked"})
		return
	}
	if err := h.Producer.Emit(ctx, events.CommentLiked{CommentID: id, PostID: cm.PostID, UserID: uid}); err != nil {
		logger.Error(ctx, "Publish comment.liked failed", "error", err)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Like recorded"})
}

func (h *Comments) Unlike(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	id := c.Param("id")

	cm, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Unlike comment lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlike comment"})
		return
	}
	removed, err := h.Repo.DeleteLike(ctx, id, uid)
	if err != nil {
		logger.Error(ctx, "Unlike delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlike comment"})
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{"message": "Not liked"})
		return
	}
	if err := h.Producer.Emit(ctx, events.CommentUnliked{CommentID: id, PostID: cm.PostID, UserID: uid}); err != nil {
		logger.Error(ctx, "Publish comment.unliked failed", "error", err)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Unlike recorded"})
}
