package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/rensai-hq/rensai-release-tracker/internal/api"
	"github.com/rensai-hq/rensai-release-tracker/internal/config"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
)

const shutdownGrace = 10 * time.Second

// Tracker is the long-running daemon: it serves the HTTP boundary and
// triggers one scrape cycle per interval. The file lock keeps a second
// daemon or a cron-driven one-shot run from overlapping this process.
type Tracker struct {
	cfg      *config.Config
	comps    *components
	interval time.Duration
	lock     *flock.Flock
	log      logger.Logger
}

// NewTracker builds the daemon runtime from config files.
func NewTracker(ctx context.Context, cfg *config.Config, log logger.Logger) (*Tracker, error) {
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

	return &Tracker{
		cfg:      cfg,
		comps:    comps,
		interval: cfg.ScrapeInterval,
		lock:     lock,
		log:      log,
	}, nil
}

// Run serves the API and the scrape loop until the context is cancelled.
// The first cycle runs immediately so a fresh deployment does not wait a
// full interval for releases.
func (t *Tracker) Run(ctx context.Context) error {
	if t == nil || t.comps == nil {
		return fmt.Errorf("tracker is not initialized")
	}
	defer t.comps.Close()

	locked, err := t.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another tracker process holds %s", t.lock.Path())
	}
	defer t.lock.Unlock()

	srv := &http.Server{
		Addr:    t.cfg.HTTPAddr,
		Handler: api.NewRouter(t.comps.dispatcher, t.log),
	}
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	t.log.InfoObj("tracker loop starting", "tracker_state", map[string]any{
		"http_addr":       t.cfg.HTTPAddr,
		"scrape_interval": t.interval.String(),
		"channels_count":  t.comps.router.Size(),
	})

	t.cycle(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.InfoObj("tracker loop exiting", "reason", ctx.Err().Error())
			return t.drain(srv)
		case err := <-srvErr:
			return fmt.Errorf("http server: %w", err)
		case <-ticker.C:
			t.cycle(ctx)
		}
	}
}

// cycle triggers one scrape pass. The orchestrator logs the report; only
// the aggregate failure needs surfacing here.
func (t *Tracker) cycle(ctx context.Context) {
	if _, err := t.comps.runCycle(ctx); err != nil {
		t.log.ErrorObj("scrape cycle failed", "cycle_error", map[string]any{
			"error": err.Error(),
		})
	}
}

// drain gives in-flight HTTP requests a grace period before shutdown.
func (t *Tracker) drain(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// newRunLock prepares the cross-process file lock, creating its directory
// on first run.
func newRunLock(path string) (*flock.Flock, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}
	return flock.New(path), nil
}
