// Package catalog serves the reader-facing side: subscriptions and the
// queries over tracked media and websites.
package catalog

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/rensai-hq/rensai-release-tracker/internal/dispatch"
	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
	"github.com/rensai-hq/rensai-release-tracker/internal/store"
)

const defaultPageSize = 20

// Service owns the subscription commands and catalog queries.
type Service struct {
	store    store.Store
	pageSize int
	log      logger.Logger
}

// NewService builds the catalog service. pageSize is the page size used
// when a query does not name one.
func NewService(st store.Store, pageSize int, log logger.Logger) *Service {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: st, pageSize: pageSize, log: log}
}

// Register binds the catalog commands and queries to the dispatcher.
func (s *Service) Register(d *dispatch.Dispatcher) {
	dispatch.Register(d, s.HandleSubscribeMedia)
	dispatch.Register(d, s.HandleUnsubscribeMedia)
	dispatch.Register(d, s.HandleMediaQuery)
	dispatch.Register(d, s.HandleAvailableMediaQuery)
	dispatch.Register(d, s.HandleMediaSubscriptionsQuery)
	dispatch.Register(d, s.HandleAvailableWebsitesQuery)
}

// HandleSubscribeMedia subscribes an external identity to a media,
// creating the subscriber on first contact. Re-subscribing succeeds with
// Created=false.
func (s *Service) HandleSubscribeMedia(ctx context.Context, req SubscribeMedia) (SubscribeAck, error) {
	if err := domain.Validate().NotBlank("subscriber external id", req.ExternalID).Check(); err != nil {
		return SubscribeAck{}, err
	}

	media, err := s.mediaByName(ctx, req.MediaName)
	if err != nil {
		return SubscribeAck{}, err
	}

	created, err := s.store.AddSubscription(ctx, req.ExternalID, media.ID)
	if err != nil {
		return SubscribeAck{}, fmt.Errorf("subscribe %q to %q: %w", req.ExternalID, media.Name, err)
	}

	if created {
		s.log.InfoObj("subscription added", "subscription_added", map[string]any{
			"subscriber": req.ExternalID,
			"media_id":   media.ID,
			"media":      media.Name,
		})
	}

	return SubscribeAck{
		ExternalID: req.ExternalID,
		MediaID:    media.ID,
		MediaName:  media.Name,
		Created:    created,
	}, nil
}

// HandleUnsubscribeMedia removes a subscription. Unsubscribing from a
// media never followed succeeds with Removed=false; only a persistence
// fault reports UnsubscribeFailed.
func (s *Service) HandleUnsubscribeMedia(ctx context.Context, req UnsubscribeMedia) (UnsubscribeAck, error) {
	if err := domain.Validate().NotBlank("subscriber external id", req.ExternalID).Check(); err != nil {
		return UnsubscribeAck{}, err
	}

	media, err := s.mediaByName(ctx, req.MediaName)
	if err != nil {
		return UnsubscribeAck{}, err
	}

	removed, err := s.store.RemoveSubscription(ctx, req.ExternalID, media.ID)
	if err != nil {
		return UnsubscribeAck{}, domain.UnsubscribeFailed("removing subscription of %q from %q failed", req.ExternalID, media.Name)
	}

	if removed {
		s.log.InfoObj("subscription removed", "subscription_removed", map[string]any{
			"subscriber": req.ExternalID,
			"media_id":   media.ID,
			"media":      media.Name,
		})
	}

	return UnsubscribeAck{
		ExternalID: req.ExternalID,
		MediaID:    media.ID,
		MediaName:  media.Name,
		Removed:    removed,
	}, nil
}

// HandleMediaQuery returns one media with targets and latest release.
func (s *Service) HandleMediaQuery(ctx context.Context, req MediaQuery) (MediaDetails, error) {
	if err := domain.Validate().NotBlank("media id", string(req.MediaID)).Check(); err != nil {
		return MediaDetails{}, err
	}

	media, err := s.store.MediaByID(ctx, req.MediaID)
	if err != nil {
		return MediaDetails{}, fmt.Errorf("look up media %q: %w", req.MediaID, err)
	}
	if media == nil {
		return MediaDetails{}, domain.NotFound("media %q not found", req.MediaID)
	}
	return mediaDetails(media), nil
}

// HandleAvailableMediaQuery returns one name-ordered page of the catalog.
// A missing page size falls back to the service default.
func (s *Service) HandleAvailableMediaQuery(ctx context.Context, req AvailableMediaQuery) (AvailableMedia, error) {
	if err := domain.Validate().NonNegative("page index", req.PageIndex).Check(); err != nil {
		return AvailableMedia{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	items, total, err := s.store.ListMedia(ctx, req.PageIndex*pageSize, pageSize)
	if err != nil {
		return AvailableMedia{}, fmt.Errorf("list media: %w", err)
	}

	return AvailableMedia{
		Items: lo.Map(items, func(m *domain.Media, _ int) AvailableMediaItem {
			return AvailableMediaItem{
				MediaID:       m.ID,
				Name:          m.Name,
				LatestRelease: optionalReleaseView(*m),
			}
		}),
		PageIndex:  req.PageIndex,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// HandleMediaSubscriptionsQuery lists everything one subscriber follows.
// An unknown subscriber yields an empty list.
func (s *Service) HandleMediaSubscriptionsQuery(ctx context.Context, req MediaSubscriptionsQuery) (MediaSubscriptions, error) {
	if err := domain.Validate().NotBlank("subscriber external id", req.ExternalID).Check(); err != nil {
		return MediaSubscriptions{}, err
	}

	view := MediaSubscriptions{ExternalID: req.ExternalID, Items: []SubscriptionView{}}

	sub, err := s.store.SubscriberByExternalID(ctx, req.ExternalID)
	if err != nil {
		return MediaSubscriptions{}, fmt.Errorf("look up subscriber %q: %w", req.ExternalID, err)
	}
	if sub == nil {
		return view, nil
	}

	view.Channels = sub.Channels
	for _, subscription := range sub.Subscriptions {
		media, err := s.store.MediaByID(ctx, subscription.MediaID)
		if err != nil {
			return MediaSubscriptions{}, fmt.Errorf("look up media %q: %w", subscription.MediaID, err)
		}
		if media == nil {
			// Dangling back-reference; skip rather than fail the view.
			continue
		}
		view.Items = append(view.Items, SubscriptionView{
			MediaID:       media.ID,
			MediaName:     media.Name,
			LatestRelease: optionalReleaseView(*media),
		})
	}
	return view, nil
}

// HandleAvailableWebsitesQuery lists the registered source websites.
func (s *Service) HandleAvailableWebsitesQuery(ctx context.Context, _ AvailableWebsitesQuery) (AvailableWebsites, error) {
	sites, err := s.store.ListWebsites(ctx)
	if err != nil {
		return AvailableWebsites{}, fmt.Errorf("list websites: %w", err)
	}
	return AvailableWebsites{
		Items: lo.Map(sites, func(w *domain.Website, _ int) WebsiteView {
			return WebsiteView{WebsiteID: w.ID, Name: w.Name, BaseURL: w.BaseURL}
		}),
	}, nil
}

func (s *Service) mediaByName(ctx context.Context, name string) (*domain.Media, error) {
	media, err := s.store.MediaByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up media %q: %w", name, err)
	}
	if media == nil {
		return nil, domain.NotFound("media %q is not tracked", name)
	}
	return media, nil
}
