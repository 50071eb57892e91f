package scrapers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/pkg/httpclient"
)

// ErrNoStrategy marks a website nothing was registered for. The
// orchestrator reports it the same way as any other scrape failure.
var ErrNoStrategy = errors.New("no strategy registered for website")

type strategyRegistry struct {
	mu         sync.RWMutex
	strategies map[domain.WebsiteID]Strategy
}

// NewRegistry builds an empty strategy registry. Bindings are added at
// startup, after the sites file has been seeded into the store.
func NewRegistry() Registry {
	return &strategyRegistry{strategies: make(map[domain.WebsiteID]Strategy)}
}

func (r *strategyRegistry) Register(siteID domain.WebsiteID, s Strategy) {
	if s == nil || strings.TrimSpace(string(siteID)) == "" {
		return
	}
	r.mu.Lock()
	r.strategies[siteID] = s
	r.mu.Unlock()
}

func (r *strategyRegistry) StrategyFor(siteID domain.WebsiteID) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.strategies[siteID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("website %s: %w", siteID, ErrNoStrategy)
}

// BuildStrategy constructs the strategy a site entry declares.
func BuildStrategy(site Site, client HTTPClient) (Strategy, error) {
	switch site.Scraper.Kind {
	case KindCSS:
		return NewCSSStrategy(site, client), nil
	case KindXPath:
		return NewXPathStrategy(site, client), nil
	default:
		return nil, fmt.Errorf("site %q: unknown scraper kind %q", site.Name, site.Scraper.Kind)
	}
}

// DefaultHTTPClient returns a tuned client for page fetches.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }
