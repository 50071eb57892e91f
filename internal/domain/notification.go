package domain

import "fmt"

// Notification is one delivery request produced by fan-out: exactly one
// per (subscriber, channel) for a changed media. Delivery is best-effort
// and outcomes never flow back into domain state.
type Notification struct {
	SubscriberExternalID string      `json:"subscriber_external_id"`
	Channel              ChannelKind `json:"channel"`
	MediaID              MediaID     `json:"media_id"`
	MediaName            string      `json:"media_name"`
	Message              string      `json:"message"`
	ReleaseURL           string      `json:"release_url"`
}

// NewNotification builds the request for one subscriber and channel.
func NewNotification(sub *Subscriber, channel ChannelKind, media *Media, rel ReleaseDetails) Notification {
	return Notification{
		SubscriberExternalID: sub.ExternalID,
		Channel:              channel,
		MediaID:              media.ID,
		MediaName:            media.Name,
		Message:              fmt.Sprintf("%s: %s is out", media.Name, rel.Display()),
		ReleaseURL:           rel.URL,
	}
}
