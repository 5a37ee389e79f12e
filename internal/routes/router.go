package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"socialgrid/internal/controller"
	"socialgrid/internal/middleware"
)

func newEngine(db *sql.DB, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(db, rdb))

	return router
}

// UserRouter serves the user directory: public single/batch reads consumed by
// the other services' enrichment paths, plus registration.
func UserRouter(db *sql.DB, users *controller.Users) *gin.Engine {
	router := newEngine(db, nil)

	router.GET("/users/:id", users.Get)
	router.POST("/users/batch", users.Batch)

	api := router.Group("")
	api.Use(middleware.Auth())
	{
		api.POST("/users", users.Create)
	}
	return router
}

// PostRouter serves posts and post likes.
func PostRouter(db *sql.DB, rdb *redis.Client, posts *controller.Posts) *gin.Engine {
	router := newEngine(db, rdb)

	// Public: no auth
	router.GET("/posts", posts.List)
	router.GET("/posts/:id", posts.Get)

	// Protected: JWT required
	api := router.Group("")
	api.Use(middleware.Auth())
	{
		api.POST("/posts", posts.Create)
		api.POST("/posts/:id/like", posts.Like)
		api.DELETE("/posts/:id/like", posts.Unlike)
	}
	return router
}

// CommentRouter serves comments and comment likes.
func CommentRouter(db *sql.DB, rdb *redis.Client, comments *controller.Comments) *gin.Engine {
	router := newEngine(db, rdb)

	router.GET("/comments/:id", comments.Get)
	router.GET("/posts/:id/comments", comments.ListByPost)

	api := router.Group("")
	api.Use(middleware.Auth())
	{
		api.POST("/comments", comments.Create)
		api.DELETE("/comments/:id", comments.Delete)
		api.POST("/comments/:id/like", comments.Like)
		api.DELETE("/comments/:id/like", comments.Unlike)
	}
	return router
}

// SocialRouter serves the follow graph.
func SocialRouter(db *sql.DB, social *controller.Social) *gin.Engine {
	router := newEngine(db, nil)

	router.GET("/users/:id/follow-stats", social.Stats)

	api := router.Group("")
	api.Use(middleware.Auth())
	{
		api.POST("/users/:id/follow", social.Follow)
		api.DELETE("/users/:id/follow", social.Unfollow)
	}
	return router
}

// NotificationRouter serves the inbox and the live SSE stream. Everything is
// recipient-scoped, so the whole surface sits behind auth.
func NotificationRouter(db *sql.DB, rdb *redis.Client, notifications *controller.Notifications) *gin.Engine {
	router := newEngine(db, rdb)

	api := router.Group("")
	api.Use(middleware.Auth())
	{
		api.GET("/notifications", notifications.List)
		api.PUT("/notifications/:id/read", notifications.MarkRead)
		api.PUT("/notifications/read-all", notifications.MarkAllRead)
		api.GET("/notifications/stream", notifications.Stream)
	}
	return router
}
