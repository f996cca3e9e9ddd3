package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/davsubmarine/airesearch/internal/app"
	"github.com/davsubmarine/airesearch/internal/config"
	"github.com/davsubmarine/airesearch/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
