package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialgrid/internal/events"
	"socialgrid/internal/middleware"
	"socialgrid/internal/repository"
	"socialgrid/pkg/logger"
)

// Social owns the follow graph. Follower counts are computed by live query,
// so the only events published here feed the notification pipeline.
type Social struct {
	Repo     *repository.FollowRepo
	Producer *events.Producer
}

func (h *Social) Follow(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	target := c.Param("id")

	err := h.Repo.Follow(ctx, uid, target)
	if errors.Is(err, repository.ErrSelfFollow) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return
	}
	if errors.Is(err, repository.ErrAlreadyFollowing) {
		c.JSON(http.StatusOK, gin.H{"message": "Already following"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Follow failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow"})
		return
	}
	if err := h.Producer.Emit(ctx, events.UserFollowed{FollowerID: uid, FollowingID: target}); err != nil {
		logger.Error(ctx, "Publish user.followed failed", "error", err)
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Following"})
}

func (h *Social) Unfollow(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	target := c.Param("id")

	removed, err := h.Repo.Unfollow(ctx, uid, target)
	if err != nil {
		logger.Error(ctx, "Unfollow failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow"})
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{"message": "Not following"})
		return
	}
	if err := h.Producer.Emit(ctx, events.UserUnfollowed{FollowerID: uid, FollowingID: target}); err != nil {
		logger.Error(ctx, "Publish user.unfollowed failed", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}

// Stats returns live follower/following counts for a user.
func (h *Social) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	followers, err := h.Repo.CountFollowers(ctx, id)
	if err != nil {
		logger.Error(ctx, "Follower count failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	following, err := h.Repo.CountFollowing(ctx, id)
	if err != nil {
		logger.Error(ctx, "Following count failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":   id,
		"followers": followers,
		"following": following,
	})
}
