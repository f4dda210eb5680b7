package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/changzer/choppy/shared/config"
	"github.com/changzer/choppy/shared/database"
	"github.com/changzer/choppy/shared/events"
	"github.com/changzer/choppy/shared/logging"
	"github.com/changzer/choppy/shared/middleware"
	redisClient "github.com/changzer/choppy/shared/redis"
	"github.com/changzer/choppy/shared/server"
	"github.com/changzer/choppy/shared/storage"
	usercmd "github.com/changzer/choppy/user-service/internal/command"
	"github.com/changzer/choppy/user-service/internal/handler"
	userqry "github.com/changzer/choppy/user-service/internal/query"
	"github.com/changzer/choppy/user-service/internal/repository"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("user-service", "8082", nil)
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

	// Database connection (write store)
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	var avatars storage.AvatarStore = storage.Unconfigured{}
	if cfg.S3AccessKey != "" {
		store, err := storage.NewS3Store(ctx, storage.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Fatal("Failed to configure avatar storage", zap.Error(err))
		}
		avatars = store
	} else {
		logger.Warn("S3_ACCESS_KEY not set, avatar uploads are disabled")
	}

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	writeRepo := repository.NewUserWriteRepository(db)
	readRepo := repository.NewUserReadRepository(db, redis.Client, logger)

	commandSvc := usercmd.NewUserCommandService(writeRepo, readRepo, publisher, avatars, cfg.DefaultPassword, logger)
	querySvc := userqry.NewUserQueryService(readRepo, avatars)

	userHandler := handler.NewUserHandler(commandSvc, querySvc)

	router := middleware.NewEngine(logger)
	handler.Register(router, userHandler, middleware.AuthMiddleware())

	// Org and station removals from core-service detach users. Login
	// outcomes from auth-service evict cached views.
	hostname, _ := os.Hostname()
	subscriber := events.NewSubscriber(redis.Client, logger, events.SubscriberConfig{
		Group:    "user-service-group",
		Consumer: "user-consumer-" + hostname,
		Streams:  []string{events.OrgEventsStream, events.StationEventsStream, events.AuthEventsStream},
		Handler:  commandSvc.HandleEvent,
	})
	go func() {
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Subscriber stopped", zap.Error(err))
		}
	}()

	if err := server.Run(ctx, logger, cfg.ListenAddr(), router); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
