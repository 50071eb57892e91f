package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

const (
	bucketWebsites            = "websites"
	bucketWebsiteNames        = "website_names"
	bucketMedia               = "media"
	bucketMediaNames          = "media_names"
	bucketTargetLocations     = "target_locations"
	bucketSubscribers         = "subscribers"
	bucketSubscriberExternals = "subscriber_externals"
	bucketMediaSubscribers    = "media_subscribers"
)

var allBuckets = []string{
	bucketWebsites,
	bucketWebsiteNames,
	bucketMedia,
	bucketMediaNames,
	bucketTargetLocations,
	bucketSubscribers,
	bucketSubscriberExternals,
	bucketMediaSubscribers,
}

// boltStore implements Store backed by BoltDB. Entities are stored as
// JSON values; natural keys live in their own index buckets so lookups
// and uniqueness checks stay single-get.
type boltStore struct {
	db *bolt.DB
}

func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{db: db}, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// nameKey normalizes natural keys so uniqueness is case-insensitive.
func nameKey(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)))
}

// locationKey identifies a scraped (website, URL) pair globally.
func locationKey(siteID domain.WebsiteID, url string) []byte {
	return []byte(string(siteID) + "|" + strings.ToLower(strings.TrimSpace(url)))
}

func mediaSubscriberKey(mediaID domain.MediaID, subID domain.SubscriberID) []byte {
	return []byte(string(mediaID) + "|" + string(subID))
}

func putJSON(bk *bolt.Bucket, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	return bk.Put(key, raw)
}

func getJSON[T any](bk *bolt.Bucket, key []byte) (*T, error) {
	raw := bk.Get(key)
	if raw == nil {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return &v, nil
}

func (b *boltStore) CreateWebsite(_ context.Context, site *domain.Website) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket([]byte(bucketWebsiteNames))
		key := nameKey(site.Name)
		if names.Get(key) != nil {
			return ErrWebsiteNameTaken
		}
		if err := putJSON(tx.Bucket([]byte(bucketWebsites)), []byte(site.ID), site); err != nil {
			return err
		}
		return names.Put(key, []byte(site.ID))
	})
}

func (b *boltStore) WebsiteByID(_ context.Context, id domain.WebsiteID) (*domain.Website, error) {
	var site *domain.Website
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		site, err = getJSON[domain.Website](tx.Bucket([]byte(bucketWebsites)), []byte(id))
		return err
	})
	return site, err
}

func (b *boltStore) WebsiteByName(_ context.Context, name string) (*domain.Website, error) {
	var site *domain.Website
	err := b.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(bucketWebsiteNames)).Get(nameKey(name))
		if id == nil {
			return nil
		}
		var err error
		site, err = getJSON[domain.Website](tx.Bucket([]byte(bucketWebsites)), id)
		return err
	})
	return site, err
}

func (b *boltStore) ListWebsites(_ context.Context) ([]*domain.Website, error) {
	var sites []*domain.Website
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketWebsites)).ForEach(func(_, raw []byte) error {
			var site domain.Website
			if err := json.Unmarshal(raw, &site); err != nil {
				return fmt.Errorf("decode website: %w", err)
			}
			sites = append(sites, &site)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sites, func(i, j int) bool {
		return strings.ToLower(sites[i].Name) < strings.ToLower(sites[j].Name)
	})
	return sites, nil
}

// claimLocations registers every target location of m, failing on a
// location already claimed. Runs inside the caller's transaction.
func claimLocations(tx *bolt.Tx, m *domain.Media, targets []domain.ScrapeTarget) error {
	locations := tx.Bucket([]byte(bucketTargetLocations))
	for _, t := range targets {
		key := locationKey(t.WebsiteID, t.URL)
		if owner := locations.Get(key); owner != nil {
			if bytes.Equal(owner, []byte(m.ID)) {
				return ErrTargetOnSameMedia
			}
			return ErrTargetOnOtherMedia
		}
		if err := locations.Put(key, []byte(m.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *boltStore) CreateMedia(_ context.Context, m *domain.Media) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket([]byte(bucketMediaNames))
		key := nameKey(m.Name)
		if names.Get(key) != nil {
			return ErrMediaNameTaken
		}
		if err := claimLocations(tx, m, m.Targets); err != nil {
			return err
		}
		if err := putJSON(tx.Bucket([]byte(bucketMedia)), []byte(m.ID), m); err != nil {
			return err
		}
		return names.Put(key, []byte(m.ID))
	})
}

func (b *boltStore) MediaByID(_ context.Context, id domain.MediaID) (*domain.Media, error) {
	var m *domain.Media
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		m, err = getJSON[domain.Media](tx.Bucket([]byte(bucketMedia)), []byte(id))
		return err
	})
	return m, err
}

func (b *boltStore) MediaByName(_ context.Context, name string) (*domain.Media, error) {
	var m *domain.Media
	err := b.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(bucketMediaNames)).Get(nameKey(name))
		if id == nil {
			return nil
		}
		var err error
		m, err = getJSON[domain.Media](tx.Bucket([]byte(bucketMedia)), id)
		return err
	})
	return m, err
}

func (b *boltStore) ListMedia(_ context.Context, offset, limit int) ([]*domain.Media, int, error) {
	var all []*domain.Media
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketMedia)).ForEach(func(_, raw []byte) error {
			var m domain.Media
			if err := json.Unmarshal(raw, &m); err != nil {
				return fmt.Errorf("decode media: %w", err)
			}
			all = append(all, &m)
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return pageOf(all, offset, limit), len(all), nil
}

// pageOf slices a name-ordered listing. limit <= 0 means everything.
func pageOf[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (b *boltStore) AttachTarget(_ context.Context, mediaID domain.MediaID, t domain.ScrapeTarget) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		media := tx.Bucket([]byte(bucketMedia))
		m, err := getJSON[domain.Media](media, []byte(mediaID))
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("media %s not found", mediaID)
		}
		if err := claimLocations(tx, m, []domain.ScrapeTarget{t}); err != nil {
			return err
		}
		if err := m.AttachTarget(t); err != nil {
			return err
		}
		return putJSON(media, []byte(m.ID), m)
	})
}

func (b *boltStore) ApplyRelease(_ context.Context, mediaID domain.MediaID, rel domain.ReleaseDetails) (bool, error) {
	var updated bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		media := tx.Bucket([]byte(bucketMedia))
		m, err := getJSON[domain.Media](media, []byte(mediaID))
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("media %s not found", mediaID)
		}
		if updated = m.ApplyRelease(rel); !updated {
			return nil
		}
		return putJSON(media, []byte(m.ID), m)
	})
	return updated, err
}

func (b *boltStore) AddSubscription(_ context.Context, externalID string, mediaID domain.MediaID) (bool, error) {
	var added bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		subs := tx.Bucket([]byte(bucketSubscribers))
		externals := tx.Bucket([]byte(bucketSubscriberExternals))

		sub, err := subscriberByExternal(tx, externalID)
		if err != nil {
			return err
		}
		if sub == nil {
			created, err := domain.NewSubscriber(externalID).Get()
			if err != nil {
				return err
			}
			sub = created
			if err := externals.Put(nameKey(externalID), []byte(sub.ID)); err != nil {
				return err
			}
		}

		if added = sub.Subscribe(mediaID); added {
			index := tx.Bucket([]byte(bucketMediaSubscribers))
			if err := index.Put(mediaSubscriberKey(mediaID, sub.ID), []byte(sub.ID)); err != nil {
				return err
			}
		}
		return putJSON(subs, []byte(sub.ID), sub)
	})
	return added, err
}

func (b *boltStore) RemoveSubscription(_ context.Context, externalID string, mediaID domain.MediaID) (bool, error) {
	var removed bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		sub, err := subscriberByExternal(tx, externalID)
		if err != nil || sub == nil {
			return err
		}
		if removed = sub.Unsubscribe(mediaID); !removed {
			return nil
		}
		index := tx.Bucket([]byte(bucketMediaSubscribers))
		if err := index.Delete(mediaSubscriberKey(mediaID, sub.ID)); err != nil {
			return err
		}
		return putJSON(tx.Bucket([]byte(bucketSubscribers)), []byte(sub.ID), sub)
	})
	return removed, err
}

func (b *boltStore) SubscriberByExternalID(_ context.Context, externalID string) (*domain.Subscriber, error) {
	var sub *domain.Subscriber
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		sub, err = subscriberByExternal(tx, externalID)
		return err
	})
	return sub, err
}

func subscriberByExternal(tx *bolt.Tx, externalID string) (*domain.Subscriber, error) {
	id := tx.Bucket([]byte(bucketSubscriberExternals)).Get(nameKey(externalID))
	if id == nil {
		return nil, nil
	}
	return getJSON[domain.Subscriber](tx.Bucket([]byte(bucketSubscribers)), id)
}

func (b *boltStore) SubscribersOf(_ context.Context, mediaID domain.MediaID) ([]*domain.Subscriber, error) {
	var subs []*domain.Subscriber
	err := b.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket([]byte(bucketMediaSubscribers))
		bucket := tx.Bucket([]byte(bucketSubscribers))
		prefix := []byte(string(mediaID) + "|")

		c := index.Cursor()
		for k, id := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, id = c.Next() {
			sub, err := getJSON[domain.Subscriber](bucket, id)
			if err != nil {
				return err
			}
			if sub != nil {
				subs = append(subs, sub)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ExternalID < subs[j].ExternalID })
	return subs, nil
}
