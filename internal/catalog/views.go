package catalog

import (
	"github.com/samber/lo"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// ReleaseView is the reader-facing rendering of a release marker.
type ReleaseView struct {
	Label string `json:"label"`
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	URL   string `json:"url"`
}

func releaseView(rel domain.ReleaseDetails) *ReleaseView {
	return &ReleaseView{
		Label: rel.Display(),
		Major: rel.Number.Major,
		Minor: rel.Number.Minor,
		URL:   rel.URL,
	}
}

func optionalReleaseView(rel domain.Media) *ReleaseView {
	if r, ok := rel.LatestRelease.Get(); ok {
		return releaseView(r)
	}
	return nil
}

// TargetView names one scraped page of a media.
type TargetView struct {
	TargetID    domain.TargetID `json:"target_id"`
	WebsiteName string          `json:"website_name"`
	URL         string          `json:"url"`
}

// MediaDetails is the full single-media view.
type MediaDetails struct {
	MediaID       domain.MediaID `json:"media_id"`
	Name          string         `json:"name"`
	LatestRelease *ReleaseView   `json:"latest_release,omitempty"`
	Targets       []TargetView   `json:"targets"`
}

func mediaDetails(m *domain.Media) MediaDetails {
	return MediaDetails{
		MediaID:       m.ID,
		Name:          m.Name,
		LatestRelease: optionalReleaseView(*m),
		Targets: lo.Map(m.Targets, func(t domain.ScrapeTarget, _ int) TargetView {
			return TargetView{TargetID: t.ID, WebsiteName: t.WebsiteName, URL: t.URL}
		}),
	}
}

// AvailableMediaItem is one catalog row.
type AvailableMediaItem struct {
	MediaID       domain.MediaID `json:"media_id"`
	Name          string         `json:"name"`
	LatestRelease *ReleaseView   `json:"latest_release,omitempty"`
}

// AvailableMedia is one name-ordered page of the catalog.
type AvailableMedia struct {
	Items      []AvailableMediaItem `json:"items"`
	PageIndex  int                  `json:"page_index"`
	PageSize   int                  `json:"page_size"`
	TotalCount int                  `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
}

// SubscriptionView is one followed media in a subscriber's list.
type SubscriptionView struct {
	MediaID       domain.MediaID `json:"media_id"`
	MediaName     string         `json:"media_name"`
	LatestRelease *ReleaseView   `json:"latest_release,omitempty"`
}

// MediaSubscriptions is everything one subscriber follows. An unknown
// subscriber yields an empty list, never an error.
type MediaSubscriptions struct {
	ExternalID string               `json:"external_id"`
	Channels   []domain.ChannelKind `json:"channels,omitempty"`
	Items      []SubscriptionView   `json:"items"`
}

// WebsiteView is one registered source website.
type WebsiteView struct {
	WebsiteID domain.WebsiteID `json:"website_id"`
	Name      string           `json:"name"`
	BaseURL   string           `json:"base_url"`
}

// AvailableWebsites lists the registered source websites.
type AvailableWebsites struct {
	Items []WebsiteView `json:"items"`
}

// SubscribeAck reports the outcome of a subscribe command.
type SubscribeAck struct {
	ExternalID string         `json:"external_id"`
	MediaID    domain.MediaID `json:"media_id"`
	MediaName  string         `json:"media_name"`
	Created    bool           `json:"created"`
}

// UnsubscribeAck reports the outcome of an unsubscribe command.
type UnsubscribeAck struct {
	ExternalID string         `json:"external_id"`
	MediaID    domain.MediaID `json:"media_id"`
	MediaName  string         `json:"media_name"`
	Removed    bool           `json:"removed"`
}
