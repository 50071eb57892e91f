package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// TargetID identifies a scrape target.
type TargetID string

// ScrapeTarget is one page scraped for a Media's latest release. The full
// URL is derived from the website's base URL at construction and never
// changes; the website name is denormalized for views and log records.
type ScrapeTarget struct {
	ID           TargetID  `json:"id"`
	MediaID      MediaID   `json:"media_id"`
	WebsiteID    WebsiteID `json:"website_id"`
	WebsiteName  string    `json:"website_name"`
	RelativePath string    `json:"relative_path"`
	URL          string    `json:"url"`
}

func NewScrapeTarget(mediaID MediaID, site *Website, relativePath string) mo.Result[ScrapeTarget] {
	relativePath = strings.TrimSpace(relativePath)
	return Create(Validate().
		NotBlank("media id", string(mediaID)).
		That("website", "must be known", func() bool { return site != nil }).
		NotBlank("relative path", relativePath),
		func() ScrapeTarget {
			return ScrapeTarget{
				ID:           TargetID(uuid.NewString()),
				MediaID:      mediaID,
				WebsiteID:    site.ID,
				WebsiteName:  site.Name,
				RelativePath: relativePath,
				URL:          site.PageURL(relativePath),
			}
		})
}
