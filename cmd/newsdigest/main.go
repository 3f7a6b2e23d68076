package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/newsdigest/internal/app"
	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/logger"

	_ "time/tzdata"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if cfg == nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}

	closer := logger.Init(logger.Options{Debug: cfg.Debug, File: cfg.LogFile})
	defer func() { _ = closer.Close() }()

	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting news digest run", "regions", len(cfg.Digest.Regions), "summarize", cfg.Summarize)
	if err := app.Run(ctx, cfg); err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}
