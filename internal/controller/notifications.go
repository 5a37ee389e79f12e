package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"socialgrid/internal/enrich"
	"socialgrid/internal/inbox"
	"socialgrid/internal/middleware"
	"socialgrid/internal/presence"
	"socialgrid/pkg/logger"
)

// Notifications serves the per-user inbox and the live SSE stream. Listing
// decorates each entry with the actor's summary; enrichment failure degrades
// to placeholders instead of failing the page.
type Notifications struct {
	Store     inbox.Store
	Directory *enrich.Directory
	Hub       *presence.Hub
}

type enrichedNotification struct {
	inbox.Notification
	Actor enrich.Author `json:"actor"`
}

func (h *Notifications) List(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	cursor := c.Query("cursor")

	page, err := h.Store.List(ctx, uid, limit, cursor)
	if err != nil {
		logger.Error(ctx, "List notifications failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	ids := make([]string, len(page.Items))
	for i, n := range page.Items {
		ids[i] = n.ActorID
	}
	actors := h.Directory.BatchFetchUsers(ctx, ids)

	items := make([]enrichedNotification, len(page.Items))
	for i, n := range page.Items {
		actor, ok := actors[n.ActorID]
		if !ok {
			actor = enrich.Placeholder(n.ActorID)
		}
		items[i] = enrichedNotification{Notification: n, Actor: actor}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"next_cursor":   page.NextCursor,
		"has_more":      page.HasMore,
	})
}

func (h *Notifications) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	err := h.Store.MarkRead(ctx, uid, c.Param("id"))
	if errors.Is(err, inbox.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Mark read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked read"})
}

func (h *Notifications) MarkAllRead(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	if err := h.Store.MarkAllRead(ctx, uid); err != nil {
		logger.Error(ctx, "Mark all read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark all read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All marked read"})
}

// Stream holds the connection open and pushes newly projected notifications
// as server-sent events until the client disconnects.
func (h *Notifications) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	ch, closeFn, err := h.Hub.Connect(ctx, uid)
	if err != nil {
		logger.Error(ctx, "Stream connect failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open stream"})
		return
	}
	defer closeFn()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	logger.Info(ctx, "Notification stream opened", "user", uid)
	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-ch:
			if !ok {
				return false
			}
			data, err := json.Marshal(n)
			if err != nil {
				logger.Error(ctx, "Stream marshal failed", "error", err)
				return true
			}
			c.SSEvent("notification", string(data))
			return true
		case <-ctx.Done():
			return false
		}
	})
	logger.Info(ctx, "Notification stream closed", "user", uid)
}
