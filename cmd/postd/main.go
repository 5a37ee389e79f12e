package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"socialgrid/internal/bus"
	"socialgrid/internal/cache"
	"socialgrid/internal/config"
	"socialgrid/internal/controller"
	"socialgrid/internal/database"
	"socialgrid/internal/dedup"
	"socialgrid/internal/enrich"
	"socialgrid/internal/events"
	"socialgrid/internal/projector"
	"socialgrid/internal/repository"
	"socialgrid/internal/routes"
	"socialgrid/pkg/logger"
)

const consumerGroup = "post-service"

// postd owns posts and their denormalized counters. The HTTP side publishes
// like events; the consumer side folds count deltas and likes back into the
// posts table.
func main() {
	config.LoadEnvFile(".env")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := config.Get()

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, db, database.SchemaPosts, database.SchemaPostLikes); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	rdb, err := cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		logger.Error(ctx, "Redis not available; exiting", "error", err)
		os.Exit(1)
	}

	publisher := bus.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()
	bus.EnsureTopics(ctx, cfg.KafkaBrokers, events.AllTopics(), cfg.KafkaPartitions)

	var deduper dedup.Deduper = dedup.Noop{}
	if cfg.DedupEnabled {
		deduper = dedup.NewRedis(rdb, cfg.DedupTTL)
	}

	repo := repository.NewPostRepo(db)
	proj := projector.NewPostProjector(repo, deduper)
	handler := bus.WithRetry(proj.Handle, publisher, cfg.ConsumerMaxAttempts, cfg.ConsumerRetryBackoff)

	posts := &controller.Posts{
		Repo:     repo,
		Producer: events.NewProducer(publisher, "post-service"),
		Directory: enrich.NewDirectory(enrich.DirectoryConfig{
			BaseURL:          cfg.UserServiceURL,
			Timeout:          cfg.EnrichTimeout,
			BreakerThreshold: cfg.BreakerThreshold,
			BreakerCooldown:  cfg.BreakerCooldown,
		}),
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.PostRouter(db, rdb, posts),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subscriber := bus.NewKafkaSubscriber(cfg.KafkaBrokers)
		return subscriber.Subscribe(gctx, consumerGroup, proj.Topics(), handler)
	})
	g.Go(func() error {
		logger.Info(gctx, "HTTP server listening", "service", "postd", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "Service exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info(context.Background(), "Server stopped")
}
