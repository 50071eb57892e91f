// Package app wires configuration, storage, scraper strategies and
// delivery channels into the running tracker processes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rensai-hq/rensai-release-tracker/internal/catalog"
	"github.com/rensai-hq/rensai-release-tracker/internal/config"
	"github.com/rensai-hq/rensai-release-tracker/internal/dispatch"
	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
	"github.com/rensai-hq/rensai-release-tracker/internal/notify"
	"github.com/rensai-hq/rensai-release-tracker/internal/scrape"
	"github.com/rensai-hq/rensai-release-tracker/internal/store"
	"github.com/rensai-hq/rensai-release-tracker/pkg/channels"
	"github.com/rensai-hq/rensai-release-tracker/pkg/httpclient"
	"github.com/rensai-hq/rensai-release-tracker/pkg/scrapers"
)

// fetchRetries is how often a page fetch is retried on transport errors
// before the target counts as failed for the cycle.
const fetchRetries = 2

// components holds everything both runtimes share: the store, the wired
// dispatcher and the channel router that needs closing on shutdown.
type components struct {
	store      store.Store
	dispatcher *dispatch.Dispatcher
	router     *channels.Router
	log        logger.Logger
}

// buildComponents loads the registry files and assembles the full command
// path: store, seeded websites with bound strategies, delivery channels,
// fan-out, orchestrator and catalog, all registered on one dispatcher.
func buildComponents(ctx context.Context, cfg *config.Config, log logger.Logger) (*components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.NewStore(cfg.StorageType, cfg.BBoltPath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.BBoltPath,
	})

	sites, err := scrapers.LoadSites(cfg.SitesFile)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load sites registry: %w", err)
	}

	client := httpclient.NewRestyClient(cfg.HTTPTimeout,
		httpclient.WithUserAgent(cfg.HTTPUserAgent),
		httpclient.WithRetries(fetchRetries, time.Second),
	)

	registry := scrapers.NewRegistry()
	if err := seedSites(ctx, st, registry, sites, client, log); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed websites: %w", err)
	}
	siteNames := make([]string, 0, len(sites))
	for _, s := range sites {
		siteNames = append(siteNames, s.Name)
	}
	log.InfoObj("sites registry loaded", "sites_meta", map[string]any{
		"count": len(siteNames),
		"names": siteNames,
	})

	channelReg, err := channels.LoadChannels(cfg.ChannelsFile)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load channels registry: %w", err)
	}
	enabled := channelReg.Enabled()
	if len(enabled) == 0 {
		st.Close()
		return nil, fmt.Errorf("no delivery channels enabled")
	}

	chs, err := channels.BuildAll(ctx, channels.DefaultRegistry(), enabled, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build channels: %w", err)
	}
	router := channels.NewRouter(chs, log)
	channelSummaries := make([]map[string]string, 0, len(enabled))
	for _, chCfg := range enabled {
		channelSummaries = append(channelSummaries, map[string]string{
			"id":   chCfg.ID,
			"kind": chCfg.Kind,
			"type": chCfg.Type,
		})
	}
	log.InfoObj("channels registry loaded", "channels_meta", map[string]any{
		"count":    len(channelSummaries),
		"channels": channelSummaries,
	})

	fanout := notify.NewFanout(st, router, log)
	orchestrator := scrape.NewOrchestrator(st, registry, fanout, scrape.Config{
		Timeout:     cfg.ScrapeTimeout,
		Concurrency: cfg.ScrapeConcurrency,
	}, log)
	catalogSvc := catalog.NewService(st, cfg.DefaultPageSize, log)

	d := dispatch.New(log)
	orchestrator.Register(d)
	catalogSvc.Register(d)

	return &components{
		store:      st,
		dispatcher: d,
		router:     router,
		log:        log,
	}, nil
}

// seedSites makes the store match the sites file and binds one strategy
// per website. Seeding is idempotent: a site already stored keeps its
// identity, so restarts never orphan existing scrape targets.
func seedSites(ctx context.Context, st store.Store, registry scrapers.Registry, sites []scrapers.Site, client scrapers.HTTPClient, log logger.Logger) error {
	for _, site := range sites {
		existing, err := st.WebsiteByName(ctx, site.Name)
		if err != nil {
			return fmt.Errorf("look up website %q: %w", site.Name, err)
		}

		if existing == nil {
			res := domain.NewWebsite(site.Name, site.BaseURL)
			if res.IsError() {
				return fmt.Errorf("site %q: %w", site.Name, res.Error())
			}
			existing = res.MustGet()
			if err := st.CreateWebsite(ctx, existing); err != nil {
				return fmt.Errorf("persist website %q: %w", site.Name, err)
			}
			log.InfoObj("website registered", "website_seeded", map[string]any{
				"website_id": existing.ID,
				"name":       existing.Name,
				"base_url":   existing.BaseURL,
			})
		} else if existing.BaseURL != site.BaseURL {
			// Websites are immutable: stored targets derive their URLs
			// from the base recorded at creation. A changed file entry is
			// an operator mistake worth flagging, not applying.
			log.WarnObj("sites file diverges from stored website", "website_mismatch", map[string]any{
				"name":       site.Name,
				"stored_url": existing.BaseURL,
				"file_url":   site.BaseURL,
			})
		}

		strategy, err := scrapers.BuildStrategy(site, client)
		if err != nil {
			return err
		}
		registry.Register(existing.ID, strategy)
	}
	return nil
}

// Close releases everything the components hold open.
func (c *components) Close() {
	if c == nil {
		return
	}
	if c.router != nil {
		if err := c.router.Close(); err != nil {
			c.log.ErrorObj("channel close failed", "shutdown_error", map[string]any{
				"error": err.Error(),
			})
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.log.ErrorObj("storage close failed", "shutdown_error", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

// runCycle dispatches one ScrapeNewReleases and reports the outcome.
func (c *components) runCycle(ctx context.Context) (scrape.CycleReport, error) {
	return dispatch.Send[scrape.ScrapeNewReleases, scrape.CycleReport](ctx, c.dispatcher, scrape.ScrapeNewReleases{})
}
