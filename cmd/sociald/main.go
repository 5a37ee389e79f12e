package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialgrid/internal/bus"
	"socialgrid/internal/config"
	"socialgrid/internal/controller"
	"socialgrid/internal/database"
	"socialgrid/internal/events"
	"socialgrid/internal/repository"
	"socialgrid/internal/routes"
	"socialgrid/pkg/logger"
)

// sociald owns the follow graph. Counts are live queries, so this service
// publishes follow events but consumes nothing.
func main() {
	config.LoadEnvFile(".env")
	ctx := context.Background()
	cfg := config.Get()

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, db, database.SchemaFollows); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	publisher := bus.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()
	bus.EnsureTopics(ctx, cfg.KafkaBrokers, events.AllTopics(), cfg.KafkaPartitions)

	social := &controller.Social{
		Repo:     repository.NewFollowRepo(db),
		Producer: events.NewProducer(publisher, "social-service"),
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.SocialRouter(db, social),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "service", "sociald", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}
