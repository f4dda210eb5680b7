package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/changzer/choppy/auth-service/internal/handler"
	"github.com/changzer/choppy/auth-service/internal/repository"
	"github.com/changzer/choppy/auth-service/internal/service"
	"github.com/changzer/choppy/shared/config"
	"github.com/changzer/choppy/shared/database"
	"github.com/changzer/choppy/shared/events"
	"github.com/changzer/choppy/shared/logging"
	"github.com/changzer/choppy/shared/middleware"
	redisClient "github.com/changzer/choppy/shared/redis"
	"github.com/changzer/choppy/shared/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("auth-service", "8081", nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.Must(cfg.Service, cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	middleware.MustInitJWTSecret(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis connection (login events for the user read model)
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	userRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(userRepo, events.NewPublisher(redis.Client), service.Options{
		TokenTTL:          cfg.TokenTTL,
		MaxPasswordErrors: cfg.MaxPasswordErrors,
		LockDuration:      cfg.PasswordLockDuration,
	}, logger)
	authHandler := handler.NewAuthHandler(authSvc)

	router := middleware.NewEngine(logger)

	v1 := router.Group("/v1/auth", middleware.RequireJSON())
	{
		v1.POST("/login", authHandler.Login)
		v1.POST("/refresh", authHandler.RefreshToken)
	}

	if err := server.Run(ctx, logger, cfg.ListenAddr(), router); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
