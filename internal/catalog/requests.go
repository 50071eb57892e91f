package catalog

import "github.com/rensai-hq/rensai-release-tracker/internal/domain"

// SubscribeMedia records a subscriber's interest in a media. Subscribing
// twice is a no-op acknowledged with Created=false.
type SubscribeMedia struct {
	ExternalID string `json:"external_id"`
	MediaName  string `json:"media_name"`
}

// UnsubscribeMedia removes a subscription. Unsubscribing from a media the
// subscriber never followed is a no-op acknowledged with Removed=false.
type UnsubscribeMedia struct {
	ExternalID string `json:"external_id"`
	MediaName  string `json:"media_name"`
}

// MediaQuery fetches one media with its targets and latest release.
type MediaQuery struct {
	MediaID domain.MediaID `json:"media_id"`
}

// AvailableMediaQuery pages through the tracked catalog, name-ordered.
type AvailableMediaQuery struct {
	PageIndex int `json:"page_index"`
	PageSize  int `json:"page_size"`
}

// MediaSubscriptionsQuery lists everything one subscriber follows.
type MediaSubscriptionsQuery struct {
	ExternalID string `json:"external_id"`
}

// AvailableWebsitesQuery lists the registered source websites.
type AvailableWebsitesQuery struct{}
