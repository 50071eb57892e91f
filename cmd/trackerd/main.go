package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rensai-hq/rensai-release-tracker/internal/app"
	"github.com/rensai-hq/rensai-release-tracker/internal/config"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trackerd start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, flush := logger.New(cfg.Env, cfg.LogLevel)
	defer flush()

	log.InfoObj("tracker starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker, err := app.NewTracker(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize tracker", "error", err.Error())
		return err
	}

	if err := tracker.Run(ctx); err != nil {
		return fmt.Errorf("tracker run: %w", err)
	}

	return nil
}
