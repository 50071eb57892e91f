package scrapers

import (
	"context"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/pkg/httpclient"
)

// Strategy fetches one source page and extracts its latest release
// marker. Implementations are website-specific since markup differs per
// source; the concrete ones live in css.go and xpath.go.
type Strategy interface {
	Kind() string
	FetchLatest(ctx context.Context, pageURL string) (domain.CandidateRelease, error)
}

// Registry resolves the strategy bound to a website identity.
type Registry interface {
	Register(siteID domain.WebsiteID, s Strategy)
	StrategyFor(siteID domain.WebsiteID) (Strategy, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within scrapers.
type HTTPClient = httpclient.Client
