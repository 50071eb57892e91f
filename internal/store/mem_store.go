package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// memStore mirrors the bbolt backend in process memory. It backs unit
// tests and local development; semantics, error precedence and snapshot
// isolation match the disk store.
type memStore struct {
	mu                  sync.Mutex
	websites            map[domain.WebsiteID]*domain.Website
	media               map[domain.MediaID]*domain.Media
	mediaNames          map[string]domain.MediaID
	websiteNames        map[string]domain.WebsiteID
	targetLocations     map[string]domain.MediaID
	subscribers         map[domain.SubscriberID]*domain.Subscriber
	subscriberExternals map[string]domain.SubscriberID
}

func newMemStore() *memStore {
	return &memStore{
		websites:            make(map[domain.WebsiteID]*domain.Website),
		media:               make(map[domain.MediaID]*domain.Media),
		mediaNames:          make(map[string]domain.MediaID),
		websiteNames:        make(map[string]domain.WebsiteID),
		targetLocations:     make(map[string]domain.MediaID),
		subscribers:         make(map[domain.SubscriberID]*domain.Subscriber),
		subscriberExternals: make(map[string]domain.SubscriberID),
	}
}

func (s *memStore) Close() error { return nil }

// snapshot round-trips through JSON so callers hold independent copies,
// exactly like a value decoded from disk.
func snapshot[T any](v *T) (*T, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &out, nil
}

func lowered(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *memStore) CreateWebsite(_ context.Context, site *domain.Website) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lowered(site.Name)
	if _, taken := s.websiteNames[key]; taken {
		return ErrWebsiteNameTaken
	}
	stored, err := snapshot(site)
	if err != nil {
		return err
	}
	s.websites[site.ID] = stored
	s.websiteNames[key] = site.ID
	return nil
}

func (s *memStore) WebsiteByID(_ context.Context, id domain.WebsiteID) (*domain.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.websites[id])
}

func (s *memStore) WebsiteByName(_ context.Context, name string) (*domain.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.websiteNames[lowered(name)]
	if !ok {
		return nil, nil
	}
	return snapshot(s.websites[id])
}

func (s *memStore) ListWebsites(_ context.Context) ([]*domain.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sites := make([]*domain.Website, 0, len(s.websites))
	for _, site := range s.websites {
		snap, err := snapshot(site)
		if err != nil {
			return nil, err
		}
		sites = append(sites, snap)
	}
	sort.Slice(sites, func(i, j int) bool {
		return strings.ToLower(sites[i].Name) < strings.ToLower(sites[j].Name)
	})
	return sites, nil
}

// peekLocations checks every target location before anything is written,
// preserving the all-or-nothing behavior of a rolled-back transaction.
func (s *memStore) peekLocations(mediaID domain.MediaID, targets []domain.ScrapeTarget) error {
	for _, t := range targets {
		key := string(locationKey(t.WebsiteID, t.URL))
		owner, taken := s.targetLocations[key]
		if !taken {
			continue
		}
		if owner == mediaID {
			return ErrTargetOnSameMedia
		}
		return ErrTargetOnOtherMedia
	}
	return nil
}

func (s *memStore) claimLocations(mediaID domain.MediaID, targets []domain.ScrapeTarget) {
	for _, t := range targets {
		s.targetLocations[string(locationKey(t.WebsiteID, t.URL))] = mediaID
	}
}

func (s *memStore) CreateMedia(_ context.Context, m *domain.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lowered(m.Name)
	if _, taken := s.mediaNames[key]; taken {
		return ErrMediaNameTaken
	}
	if err := s.peekLocations(m.ID, m.Targets); err != nil {
		return err
	}
	stored, err := snapshot(m)
	if err != nil {
		return err
	}
	s.claimLocations(m.ID, m.Targets)
	s.media[m.ID] = stored
	s.mediaNames[key] = m.ID
	return nil
}

func (s *memStore) MediaByID(_ context.Context, id domain.MediaID) (*domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.media[id])
}

func (s *memStore) MediaByName(_ context.Context, name string) (*domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.mediaNames[lowered(name)]
	if !ok {
		return nil, nil
	}
	return snapshot(s.media[id])
}

func (s *memStore) ListMedia(_ context.Context, offset, limit int) ([]*domain.Media, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.Media, 0, len(s.media))
	for _, m := range s.media {
		snap, err := snapshot(m)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, snap)
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return pageOf(all, offset, limit), len(all), nil
}

func (s *memStore) AttachTarget(_ context.Context, mediaID domain.MediaID, t domain.ScrapeTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.media[mediaID]
	if !ok {
		return fmt.Errorf("media %s not found", mediaID)
	}
	if err := s.peekLocations(mediaID, []domain.ScrapeTarget{t}); err != nil {
		return err
	}
	m, err := snapshot(stored)
	if err != nil {
		return err
	}
	if err := m.AttachTarget(t); err != nil {
		return err
	}
	s.claimLocations(mediaID, []domain.ScrapeTarget{t})
	s.media[mediaID] = m
	return nil
}

func (s *memStore) ApplyRelease(_ context.Context, mediaID domain.MediaID, rel domain.ReleaseDetails) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.media[mediaID]
	if !ok {
		return false, fmt.Errorf("media %s not found", mediaID)
	}
	m, err := snapshot(stored)
	if err != nil {
		return false, err
	}
	if !m.ApplyRelease(rel) {
		return false, nil
	}
	s.media[mediaID] = m
	return true, nil
}

func (s *memStore) AddSubscription(_ context.Context, externalID string, mediaID domain.MediaID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sub *domain.Subscriber
	if id, ok := s.subscriberExternals[lowered(externalID)]; ok {
		snap, err := snapshot(s.subscribers[id])
		if err != nil {
			return false, err
		}
		sub = snap
	} else {
		created, err := domain.NewSubscriber(externalID).Get()
		if err != nil {
			return false, err
		}
		sub = created
	}

	added := sub.Subscribe(mediaID)
	s.subscribers[sub.ID] = sub
	s.subscriberExternals[lowered(externalID)] = sub.ID
	return added, nil
}

func (s *memStore) RemoveSubscription(_ context.Context, externalID string, mediaID domain.MediaID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.subscriberExternals[lowered(externalID)]
	if !ok {
		return false, nil
	}
	sub, err := snapshot(s.subscribers[id])
	if err != nil {
		return false, err
	}
	if !sub.Unsubscribe(mediaID) {
		return false, nil
	}
	s.subscribers[id] = sub
	return true, nil
}

func (s *memStore) SubscriberByExternalID(_ context.Context, externalID string) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.subscriberExternals[lowered(externalID)]
	if !ok {
		return nil, nil
	}
	return snapshot(s.subscribers[id])
}

func (s *memStore) SubscribersOf(_ context.Context, mediaID domain.MediaID) ([]*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []*domain.Subscriber
	for _, sub := range s.subscribers {
		if !sub.IsSubscribed(mediaID) {
			continue
		}
		snap, err := snapshot(sub)
		if err != nil {
			return nil, err
		}
		subs = append(subs, snap)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ExternalID < subs[j].ExternalID })
	return subs, nil
}
