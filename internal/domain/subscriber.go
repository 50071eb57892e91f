package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

type (
	// SubscriberID identifies a subscriber.
	SubscriberID string
	// SubscriptionID identifies one (subscriber, media) pairing.
	SubscriptionID string
)

// ChannelKind names a delivery audience.
type ChannelKind string

const (
	ChannelWeb  ChannelKind = "web"
	ChannelChat ChannelKind = "chat"
)

// ParseChannelKind maps a configuration string onto a known kind.
func ParseChannelKind(s string) (ChannelKind, error) {
	switch ChannelKind(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelWeb:
		return ChannelWeb, nil
	case ChannelChat:
		return ChannelChat, nil
	default:
		return "", fmt.Errorf("unknown channel kind %q", s)
	}
}

// DefaultChannels is the audience set a new subscriber starts with.
func DefaultChannels() []ChannelKind {
	return []ChannelKind{ChannelWeb, ChannelChat}
}

// Subscription is a subscriber's standing interest in one media. It is a
// back-reference pairing owned by the subscriber, never by the media.
type Subscription struct {
	ID           SubscriptionID `json:"id"`
	SubscriberID SubscriberID   `json:"subscriber_id"`
	MediaID      MediaID        `json:"media_id"`
}

// Subscriber is an external identity (web user or chat account) following
// media updates. The external identifier is immutable and unique.
type Subscriber struct {
	ID            SubscriberID   `json:"id"`
	ExternalID    string         `json:"external_id"`
	Channels      []ChannelKind  `json:"channels"`
	Subscriptions []Subscription `json:"subscriptions"`
}

func NewSubscriber(externalID string) mo.Result[*Subscriber] {
	externalID = strings.TrimSpace(externalID)
	return Create(Validate().
		NotBlank("subscriber external id", externalID),
		func() *Subscriber {
			return &Subscriber{
				ID:         SubscriberID(uuid.NewString()),
				ExternalID: externalID,
				Channels:   DefaultChannels(),
			}
		})
}

// Subscribe records interest in a media and reports whether a new
// subscription was created. Re-subscribing is a silent no-op.
func (s *Subscriber) Subscribe(mediaID MediaID) bool {
	if s.IsSubscribed(mediaID) {
		return false
	}
	s.Subscriptions = append(s.Subscriptions, Subscription{
		ID:           SubscriptionID(uuid.NewString()),
		SubscriberID: s.ID,
		MediaID:      mediaID,
	})
	return true
}

// Unsubscribe removes the subscription for a media and reports whether
// one was removed. Unsubscribing from a media never followed is a silent
// no-op, mirroring Subscribe.
func (s *Subscriber) Unsubscribe(mediaID MediaID) bool {
	for i, sub := range s.Subscriptions {
		if sub.MediaID == mediaID {
			s.Subscriptions = append(s.Subscriptions[:i], s.Subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Subscriber) IsSubscribed(mediaID MediaID) bool {
	for _, sub := range s.Subscriptions {
		if sub.MediaID == mediaID {
			return true
		}
	}
	return false
}
