package main

import (
	"log/slog"
	"os"

	"go-market-auth/internal/app"
	"go-market-auth/internal/config"
	"go-market-auth/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logCloser, err := logger.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		slog.Warn("falling back to info log level", "error", err)
	}
	defer logCloser.Close()

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		return 1
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		return 1
	}

	return 0
}
