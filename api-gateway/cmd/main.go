package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/changzer/choppy/api-gateway/internal/proxy"
	"github.com/changzer/choppy/shared/config"
	"github.com/changzer/choppy/shared/logging"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("api-gateway", "8080", nil)
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

	router := middleware.NewEngine(logger)
	proxy.Register(router, proxy.Upstreams{
		Auth: cfg.AuthServiceURL,
		User: cfg.UserServiceURL,
		Core: cfg.CoreServiceURL,
	}, cfg.CORSOrigins, proxy.NewForwarder(nil, logger), middleware.AuthMiddleware())

	logger.Info("Routing to upstreams",
		zap.String("auth", cfg.AuthServiceURL),
		zap.String("user", cfg.UserServiceURL),
		zap.String("core", cfg.CoreServiceURL),
	)
	if err := server.Run(ctx, logger, cfg.ListenAddr(), router); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
