package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialgrid/internal/repository"
	"socialgrid/pkg/logger"
)

// Users serves the user directory: single and batch lookups consumed by the
// other services' enrichment paths.
type Users struct {
	Repo *repository.UserRepo
}

// Create registers a directory entry.
func (h *Users) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Username  string  `json:"username" binding:"required"`
		FirstName string  `json:"first_name"`
		LastName  string  `json:"last_name"`
		Avatar    *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	u := &repository.User{
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Avatar:    body.Avatar,
	}
	if err := h.Repo.Create(ctx, u); err != nil {
		logger.Error(ctx, "Create user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Users) Get(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.Repo.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Get user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Batch returns summaries for the requested ids; unknown ids are omitted so
// callers degrade per entry rather than failing the whole request.
func (h *Users) Batch(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	users, err := h.Repo.GetBatch(ctx, body.IDs)
	if err != nil {
		logger.Error(ctx, "Batch user fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	if users == nil {
		users = []repository.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
