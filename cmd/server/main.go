package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/example/authsvc/internal/config"
	"github.com/example/authsvc/internal/database"
	"github.com/example/authsvc/internal/logging"
	"github.com/example/authsvc/internal/routes"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	db := database.Connect(cfg.DatabaseURL)

	var cache *redis.Client
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		cache = client
		defer cache.Close()
	} else {
		logger.Warn("REDIS_URL not set, send-code rate limiting disabled")
	}

	app := fiber.New(fiber.Config{
		AppName: "Auth Service",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, db, cache, cfg, logger)

	go func() {
		logger.Info("starting server", "port", cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			logger.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}
