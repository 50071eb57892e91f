// Package scrape implements the tracking commands: registering media and
// targets, and the periodic cycle that pulls new releases from source
// sites.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rensai-hq/rensai-release-tracker/internal/dispatch"
	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
	"github.com/rensai-hq/rensai-release-tracker/internal/store"
	"github.com/rensai-hq/rensai-release-tracker/pkg/scrapers"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 4
)

// Announcer notifies subscribers of a changed media and returns how many
// deliveries succeeded.
type Announcer interface {
	Announce(ctx context.Context, media *domain.Media, rel domain.ReleaseDetails) int
}

// Config bounds a scrape cycle.
type Config struct {
	// Timeout is the fetch budget per target.
	Timeout time.Duration
	// Concurrency caps how many targets are fetched in parallel.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}

// Orchestrator owns the scraping commands.
type Orchestrator struct {
	store      store.Store
	strategies scrapers.Registry
	announcer  Announcer
	guard      *CycleGuard
	cfg        Config
	log        logger.Logger
}

func NewOrchestrator(st store.Store, strategies scrapers.Registry, announcer Announcer, cfg Config, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		store:      st,
		strategies: strategies,
		announcer:  announcer,
		guard:      NewCycleGuard(),
		cfg:        cfg.withDefaults(),
		log:        log,
	}
}

// Register binds the scraping commands to the dispatcher.
func (o *Orchestrator) Register(d *dispatch.Dispatcher) {
	dispatch.Register(d, o.HandleAddMedia)
	dispatch.Register(d, o.HandleAddScrapeTarget)
	dispatch.Register(d, o.HandleScrapeNewReleases)
}

// HandleAddMedia probes the page first, then persists the media, its
// first target and the seeded release in one step. A failed probe
// persists nothing.
func (o *Orchestrator) HandleAddMedia(ctx context.Context, req AddMedia) (MediaAck, error) {
	if err := domain.Validate().NotBlank("relative path", req.RelativePath).Check(); err != nil {
		return MediaAck{}, err
	}

	site, err := o.websiteByName(ctx, req.WebsiteName)
	if err != nil {
		return MediaAck{}, err
	}

	candidate, err := o.probe(ctx, site, site.PageURL(req.RelativePath))
	if err != nil {
		return MediaAck{}, err
	}

	name := mediaNameFrom(candidate.Title, req.RelativePath)
	mediaRes := domain.NewMedia(name)
	if mediaRes.IsError() {
		return MediaAck{}, mediaRes.Error()
	}
	media := mediaRes.MustGet()
	media.ApplyRelease(candidate.Details())

	targetRes := domain.NewScrapeTarget(media.ID, site, req.RelativePath)
	if targetRes.IsError() {
		return MediaAck{}, targetRes.Error()
	}
	target := targetRes.MustGet()
	if err := media.AttachTarget(target); err != nil {
		return MediaAck{}, err
	}

	if err := o.store.CreateMedia(ctx, media); err != nil {
		switch {
		case errors.Is(err, store.ErrMediaNameTaken):
			return MediaAck{}, domain.InvariantViolation("media %q is already tracked", name)
		case errors.Is(err, store.ErrTargetOnOtherMedia):
			return MediaAck{}, domain.ScrapeTargetReferencesOtherMedia("%s is already scraped for another media", target.URL)
		case errors.Is(err, store.ErrTargetOnSameMedia):
			return MediaAck{}, domain.ScrapeTargetExists("media %q already scrapes %s", name, target.URL)
		default:
			return MediaAck{}, fmt.Errorf("persist media %q: %w", name, err)
		}
	}

	o.log.InfoObj("media tracked", "media_added", map[string]any{
		"media_id": media.ID,
		"name":     media.Name,
		"website":  site.Name,
		"url":      target.URL,
		"release":  candidate.Number.Display(),
	})

	return MediaAck{
		MediaID:  media.ID,
		Name:     media.Name,
		TargetID: target.ID,
		URL:      target.URL,
		Release:  candidate.Number.Display(),
	}, nil
}

// HandleAddScrapeTarget resolves the media and website, rejects duplicate
// placements, probes the page and only then persists. The probed release
// is discarded here; the next cycle picks it up.
func (o *Orchestrator) HandleAddScrapeTarget(ctx context.Context, req AddScrapeTarget) (TargetAck, error) {
	media, err := o.mediaByName(ctx, req.MediaName)
	if err != nil {
		return TargetAck{}, err
	}
	site, err := o.websiteByName(ctx, req.WebsiteName)
	if err != nil {
		return TargetAck{}, err
	}

	targetRes := domain.NewScrapeTarget(media.ID, site, req.RelativePath)
	if targetRes.IsError() {
		return TargetAck{}, targetRes.Error()
	}
	target := targetRes.MustGet()

	// Duplicate check against the media snapshot fails fast, before any
	// network traffic; the store re-checks inside the transaction.
	if err := media.AttachTarget(target); err != nil {
		return TargetAck{}, err
	}

	if _, err := o.probe(ctx, site, target.URL); err != nil {
		return TargetAck{}, err
	}

	if err := o.store.AttachTarget(ctx, media.ID, target); err != nil {
		switch {
		case errors.Is(err, store.ErrTargetOnSameMedia):
			return TargetAck{}, domain.ScrapeTargetExists("media %q already scrapes %s", media.Name, target.URL)
		case errors.Is(err, store.ErrTargetOnOtherMedia):
			return TargetAck{}, domain.ScrapeTargetReferencesOtherMedia("%s is already scraped for another media", target.URL)
		default:
			return TargetAck{}, fmt.Errorf("persist target on %q: %w", media.Name, err)
		}
	}

	o.log.InfoObj("scrape target added", "target_added", map[string]any{
		"media_id": media.ID,
		"media":    media.Name,
		"website":  site.Name,
		"url":      target.URL,
	})

	return TargetAck{TargetID: target.ID, MediaID: media.ID, URL: target.URL}, nil
}

type task struct {
	media  *domain.Media
	target domain.ScrapeTarget
}

// HandleScrapeNewReleases runs one bounded-parallel cycle over every
// target of every tracked media. Target failures are isolated; the
// operation fails only when every attempted target fails. A cycle that
// would overlap a running one reports itself skipped.
func (o *Orchestrator) HandleScrapeNewReleases(ctx context.Context, _ ScrapeNewReleases) (CycleReport, error) {
	if !o.guard.TryAcquire() {
		o.log.InfoObj("scrape cycle skipped", "cycle_skipped", map[string]any{
			"reason": "previous cycle still running",
		})
		return CycleReport{Skipped: true}, nil
	}
	defer o.guard.Release()

	started := time.Now()

	media, _, err := o.store.ListMedia(ctx, 0, 0)
	if err != nil {
		return CycleReport{}, fmt.Errorf("list media: %w", err)
	}

	var tasks []task
	for _, m := range media {
		for _, t := range m.Targets {
			tasks = append(tasks, task{media: m, target: t})
		}
	}

	report := CycleReport{Attempted: len(tasks)}
	if len(tasks) == 0 {
		report.Elapsed = time.Since(started)
		o.logReport(report)
		return report, nil
	}

	var (
		mu      sync.Mutex
		updated = make(map[domain.MediaID]struct{})
		wg      sync.WaitGroup
		sem     = make(chan struct{}, o.cfg.Concurrency)
	)

	for _, tk := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(tk task) {
			defer wg.Done()
			defer func() { <-sem }()

			applied, err := o.scrapeTarget(ctx, tk)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, TargetFailure{
					MediaName:   tk.media.Name,
					WebsiteName: tk.target.WebsiteName,
					URL:         tk.target.URL,
					Reason:      err.Error(),
				})
				return
			}
			if applied {
				report.Updated++
				updated[tk.media.ID] = struct{}{}
				return
			}
			report.Unchanged++
		}(tk)
	}
	wg.Wait()

	// Fan out only after every target settled so each changed media is
	// announced once, carrying its final release for this cycle.
	for id := range updated {
		m, err := o.store.MediaByID(ctx, id)
		if err != nil || m == nil {
			o.log.WarnObj("changed media vanished before fan-out", "cycle_fanout_miss", map[string]any{
				"media_id": id,
			})
			continue
		}
		rel, ok := m.LatestRelease.Get()
		if !ok {
			continue
		}
		report.Announced++
		if o.announcer != nil {
			report.Delivered += o.announcer.Announce(ctx, m, rel)
		}
	}

	report.Elapsed = time.Since(started)
	o.logReport(report)

	if report.Failed == report.Attempted {
		return report, domain.ScrapeFailed("all %d scrape targets failed", report.Attempted)
	}
	return report, nil
}

// scrapeTarget fetches one target and applies its release. The fetch gets
// its own timeout; the apply runs against the parent context so a slow
// fetch cannot starve persistence.
func (o *Orchestrator) scrapeTarget(ctx context.Context, tk task) (bool, error) {
	strategy, err := o.strategies.StrategyFor(tk.target.WebsiteID)
	if err != nil {
		return false, fmt.Errorf("website %q has no scraper bound: %w", tk.target.WebsiteName, err)
	}

	fctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	candidate, err := strategy.FetchLatest(fctx, tk.target.URL)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", tk.target.URL, err)
	}

	applied, err := o.store.ApplyRelease(ctx, tk.media.ID, candidate.Details())
	if err != nil {
		return false, fmt.Errorf("apply release for %q: %w", tk.media.Name, err)
	}
	if applied {
		o.log.DebugObj("release advanced", "cycle_release", map[string]any{
			"media":   tk.media.Name,
			"website": tk.target.WebsiteName,
			"release": candidate.Number.Display(),
		})
	}
	return applied, nil
}

func (o *Orchestrator) probe(ctx context.Context, site *domain.Website, pageURL string) (domain.CandidateRelease, error) {
	strategy, err := o.strategies.StrategyFor(site.ID)
	if err != nil {
		return domain.CandidateRelease{}, domain.ScrapeFailed("website %q has no scraper bound", site.Name)
	}

	pctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	candidate, err := strategy.FetchLatest(pctx, pageURL)
	if err != nil {
		return domain.CandidateRelease{}, domain.ScrapeFailed("probe %s: %v", pageURL, err)
	}
	return candidate, nil
}

func (o *Orchestrator) websiteByName(ctx context.Context, name string) (*domain.Website, error) {
	site, err := o.store.WebsiteByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up website %q: %w", name, err)
	}
	if site == nil {
		return nil, domain.NotFound("website %q is not registered", name)
	}
	return site, nil
}

func (o *Orchestrator) mediaByName(ctx context.Context, name string) (*domain.Media, error) {
	media, err := o.store.MediaByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up media %q: %w", name, err)
	}
	if media == nil {
		return nil, domain.NotFound("media %q is not tracked", name)
	}
	return media, nil
}

func (o *Orchestrator) logReport(report CycleReport) {
	o.log.InfoObj("scrape cycle finished", "cycle_report", map[string]any{
		"attempted": report.Attempted,
		"updated":   report.Updated,
		"unchanged": report.Unchanged,
		"failed":    report.Failed,
		"announced": report.Announced,
		"delivered": report.Delivered,
		"elapsed":   report.Elapsed.String(),
	})
	for _, f := range report.Failures {
		o.log.WarnObj("scrape target failed", "cycle_target_failure", map[string]any{
			"media":   f.MediaName,
			"website": f.WebsiteName,
			"url":     f.URL,
			"reason":  f.Reason,
		})
	}
}

// mediaNameFrom prefers the page's own title; a humanized form of the
// relative path is the fallback.
func mediaNameFrom(title, relativePath string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return humanizeSlug(relativePath)
}

// humanizeSlug turns "manga/solo-leveling" into "Solo Leveling".
func humanizeSlug(relativePath string) string {
	slug := strings.Trim(strings.TrimSpace(relativePath), "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	words := strings.Fields(slug)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
