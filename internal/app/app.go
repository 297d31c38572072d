package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"substack-digest-go/internal/config"
	"substack-digest-go/internal/db"
	"substack-digest-go/internal/gmailbox"
	"substack-digest-go/internal/handlers"
	"substack-digest-go/internal/ingest"
	"substack-digest-go/internal/metrics"
	"substack-digest-go/internal/ratelimit"
	"substack-digest-go/internal/repository"
	"substack-digest-go/internal/scheduler"
	"substack-digest-go/internal/server"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Substack Digest Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	limiter := ratelimit.NewRedisLimiter(redisClient)

	m := metrics.NewMetrics()

	mailbox, err := gmailbox.NewClient(&cfg.Gmail)
	if err != nil {
		return fmt.Errorf("failed to create Gmail client: %w", err)
	}

	repo := repository.New(dbConn)

	pipeline := ingest.NewPipeline(mailbox, limiter, repo, m, cfg.Ingest, cfg.Gmail.NewsletterDomain)

	sched := scheduler.New(&cfg.Scheduler, cfg.Ingest.DaysBack, pipeline)

	h := handlers.NewHandlers(dbConn, repo, pipeline, sched)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := limiter.Close(); err != nil {
		logrus.Errorf("Failed to close rate limiter: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
