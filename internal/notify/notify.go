// Package notify turns a detected release update into per-subscriber,
// per-channel notifications and hands them to the delivery transport.
package notify

import (
	"context"

	"github.com/samber/lo"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
)

// SubscriberSource lists the subscribers following a media.
type SubscriberSource interface {
	SubscribersOf(ctx context.Context, mediaID domain.MediaID) ([]*domain.Subscriber, error)
}

// Transport delivers one notification to every sink serving its channel.
type Transport interface {
	Deliver(ctx context.Context, n domain.Notification) (int, error)
}

// BuildNotifications expands one release update into the full fan-out set:
// exactly one notification per (subscriber, channel) pair.
func BuildNotifications(subs []*domain.Subscriber, media *domain.Media, rel domain.ReleaseDetails) []domain.Notification {
	return lo.FlatMap(subs, func(sub *domain.Subscriber, _ int) []domain.Notification {
		return lo.Map(sub.Channels, func(channel domain.ChannelKind, _ int) domain.Notification {
			return domain.NewNotification(sub, channel, media, rel)
		})
	})
}

// Fanout announces release updates to subscribers.
type Fanout struct {
	source    SubscriberSource
	transport Transport
	log       logger.Logger
}

// NewFanout wires the subscriber lookup to the delivery transport.
func NewFanout(source SubscriberSource, transport Transport, log logger.Logger) *Fanout {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fanout{source: source, transport: transport, log: log}
}

// Announce fans one release update out to every subscriber of the media
// and returns the number of deliveries that succeeded. Delivery is
// fire-and-forget: failures are logged and never propagate back into
// scrape state.
func (f *Fanout) Announce(ctx context.Context, media *domain.Media, rel domain.ReleaseDetails) int {
	if f == nil || f.source == nil || f.transport == nil || media == nil {
		return 0
	}

	subs, err := f.source.SubscribersOf(ctx, media.ID)
	if err != nil {
		f.log.ErrorObj("subscriber lookup failed", "notify_lookup_error", map[string]any{
			"media_id": media.ID,
			"error":    err.Error(),
		})
		return 0
	}

	notifications := BuildNotifications(subs, media, rel)
	delivered := 0
	for _, n := range notifications {
		count, err := f.transport.Deliver(ctx, n)
		delivered += count
		if err != nil {
			f.log.WarnObj("notification delivery incomplete", "notify_delivery_error", map[string]any{
				"media_id":   n.MediaID,
				"subscriber": n.SubscriberExternalID,
				"channel":    n.Channel,
				"error":      err.Error(),
			})
		}
	}

	f.log.InfoObj("release announced", "notify_fanout", map[string]any{
		"media_id":      media.ID,
		"media_name":    media.Name,
		"release":       rel.Display(),
		"notifications": len(notifications),
		"delivered":     delivered,
	})
	return delivered
}
