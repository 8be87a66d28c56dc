package main

import (
	"log"

	"go.uber.org/zap"

	"snapbee/internal/config"
	"snapbee/internal/logger"
	"snapbee/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if !cfg.EnvFileLoaded {
		zl.Info("no .env file found, using process environment")
	}

	if err := http.Run(cfg, zl); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}
