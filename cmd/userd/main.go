package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialgrid/internal/config"
	"socialgrid/internal/controller"
	"socialgrid/internal/database"
	"socialgrid/internal/repository"
	"socialgrid/internal/routes"
	"socialgrid/pkg/logger"
)

// userd is the user directory: registration plus the single/batch lookups the
// other services call for enrichment.
func main() {
	config.LoadEnvFile(".env")
	ctx := context.Background()
	cfg := config.Get()

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, db, database.SchemaUsers); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	users := &controller.Users{Repo: repository.NewUserRepo(db)}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.UserRouter(db, users),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "service", "userd", "port", cfg.HTTPPort)
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
