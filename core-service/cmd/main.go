package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	corecmd "github.com/changzer/choppy/core-service/internal/command"
	"github.com/changzer/choppy/core-service/internal/handler"
	coreqry "github.com/changzer/choppy/core-service/internal/query"
	"github.com/changzer/choppy/core-service/internal/repository"
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
	cfg, err := config.Load("core-service", "8083", nil)
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

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	orgWriteRepo := repository.NewOrgWriteRepository(db)
	orgReadRepo := repository.NewOrgReadRepository(db, redis.Client, logger)
	stationWriteRepo := repository.NewStationWriteRepository(db)
	stationReadRepo := repository.NewStationReadRepository(db, redis.Client, logger)

	orgCommands := corecmd.NewOrgCommandService(orgWriteRepo, orgReadRepo, stationReadRepo, publisher, logger)
	stationCommands := corecmd.NewStationCommandService(stationWriteRepo, orgWriteRepo, stationReadRepo, publisher, logger)

	orgHandler := handler.NewOrgHandler(orgCommands, coreqry.NewOrgQueryService(orgReadRepo))
	stationHandler := handler.NewStationHandler(stationCommands, coreqry.NewStationQueryService(stationReadRepo))

	router := middleware.NewEngine(logger)
	handler.Register(router, orgHandler, stationHandler, middleware.AuthMiddleware())

	if err := server.Run(ctx, logger, cfg.ListenAddr(), router); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
