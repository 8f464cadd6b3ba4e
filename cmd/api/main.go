package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"givehub-backend/internal/config"
	"givehub-backend/internal/interfaces/router"
	"givehub-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Setup("givehub-api", cfg.LogLevel, cfg.LogFormat, os.Stdout)

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	log.Info().Msg("postgres connected")
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	cancel()
	log.Info().Msg("redis connected")

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info().Str("port", cfg.Port).Str("health", "/health/json").Msg("server listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	_ = rdb.Close()
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}
