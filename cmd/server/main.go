package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/storefront/internal/broker"
	"github.com/Baaaki/storefront/internal/config"
	"github.com/Baaaki/storefront/internal/database"
	"github.com/Baaaki/storefront/internal/handler"
	"github.com/Baaaki/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Database connection failed", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Database migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = broker.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Log.Info("Redis connected; rate limiting and order stream enabled")
	} else {
		logger.Log.Warn("REDIS_URL not set; rate limiting and order stream disabled")
	}

	router := handler.NewRouter(handler.Deps{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Log.Info("Server stopped")
}
