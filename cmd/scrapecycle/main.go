// Command scrapecycle runs exactly one scrape cycle and exits, for
// installations that prefer an external cron scheduler over the daemon's
// built-in ticker. The shared file lock keeps runs from overlapping.
package main

import (
	"context"
	"encoding/json"
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
		fmt.Fprintf(os.Stderr, "scrape cycle failed: %v\n", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewOneshot(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize scrape run", "error", err.Error())
		return err
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
