package app

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/rensai-hq/rensai-release-tracker/internal/config"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
	"github.com/rensai-hq/rensai-release-tracker/internal/scrape"
)

// Oneshot runs exactly one scrape cycle and exits. It exists for external
// cron schedulers; the shared file lock means a run that would overlap the
// daemon (or another cron run) is skipped, never queued.
type Oneshot struct {
	comps *components
	lock  *flock.Flock
	log   logger.Logger
}

// NewOneshot builds the one-shot runtime from config files.
func NewOneshot(ctx context.Context, cfg *config.Config, log logger.Logger) (*Oneshot, error) {
	if log == nil {
		log = logger.NewNop()
	}

	comps, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	lock, err := newRunLock(cfg.LockPath)
	if err != nil {
		comps.Close()
		return nil, err
	}

	return &Oneshot{comps: comps, lock: lock, log: log}, nil
}

// Run executes one scrape cycle under the cross-process lock and returns
// its report. A run finding the lock held reports itself skipped.
func (o *Oneshot) Run(ctx context.Context) (scrape.CycleReport, error) {
	if o == nil || o.comps == nil {
		return scrape.CycleReport{}, fmt.Errorf("oneshot is not initialized")
	}
	defer o.comps.Close()

	locked, err := o.lock.TryLock()
	if err != nil {
		return scrape.CycleReport{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		o.log.InfoObj("scrape run skipped", "run_skipped", map[string]any{
			"reason":    "lock held by another process",
			"lock_path": o.lock.Path(),
		})
		return scrape.CycleReport{Skipped: true}, nil
	}
	defer o.lock.Unlock()

	return o.comps.runCycle(ctx)
}
