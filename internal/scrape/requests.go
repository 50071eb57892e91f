package scrape

import "github.com/rensai-hq/rensai-release-tracker/internal/domain"

// AddMedia starts tracking a new media. The page at the website's relative
// path is probed first: it names the media and seeds its latest release.
type AddMedia struct {
	WebsiteName  string `json:"website_name"`
	RelativePath string `json:"relative_path"`
}

// AddScrapeTarget attaches an additional source page to a tracked media.
type AddScrapeTarget struct {
	MediaName    string `json:"media_name"`
	WebsiteName  string `json:"website_name"`
	RelativePath string `json:"relative_path"`
}

// ScrapeNewReleases runs one scrape cycle over every tracked media.
type ScrapeNewReleases struct{}

// MediaAck acknowledges a created media.
type MediaAck struct {
	MediaID  domain.MediaID  `json:"media_id"`
	Name     string          `json:"name"`
	TargetID domain.TargetID `json:"target_id"`
	URL      string          `json:"url"`
	Release  string          `json:"release,omitempty"`
}

// TargetAck acknowledges a created scrape target.
type TargetAck struct {
	TargetID domain.TargetID `json:"target_id"`
	MediaID  domain.MediaID  `json:"media_id"`
	URL      string          `json:"url"`
}
