// Package store persists the tracked catalog: websites, media with their
// scrape targets and latest releases, and subscribers. Every mutation runs
// as a single transaction so user-driven commands interleaved with a
// scrape cycle cannot corrupt the uniqueness invariants.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// Conflict sentinels surfaced by mutations. Services translate them into
// business failure codes; the store itself stays free of that phrasing.
var (
	ErrWebsiteNameTaken = errors.New("store: website name already taken")
	ErrMediaNameTaken   = errors.New("store: media name already taken")

	// A (website, URL) location may reference exactly one media. The two
	// sentinels tell a caller whether the claim came from the media it is
	// working on or from a different one.
	ErrTargetOnSameMedia  = errors.New("store: location already scraped for this media")
	ErrTargetOnOtherMedia = errors.New("store: location already scraped for another media")
)

// Store is the persistence collaborator shared by the orchestrator and the
// catalog services. Single-entity lookups return (nil, nil) when nothing
// matches; absence is not an error.
type Store interface {
	Close() error

	CreateWebsite(ctx context.Context, site *domain.Website) error
	WebsiteByID(ctx context.Context, id domain.WebsiteID) (*domain.Website, error)
	WebsiteByName(ctx context.Context, name string) (*domain.Website, error)
	ListWebsites(ctx context.Context) ([]*domain.Website, error)

	// CreateMedia persists a media together with its initial targets and
	// release, all-or-nothing.
	CreateMedia(ctx context.Context, m *domain.Media) error
	MediaByID(ctx context.Context, id domain.MediaID) (*domain.Media, error)
	MediaByName(ctx context.Context, name string) (*domain.Media, error)
	// ListMedia returns a name-ordered page and the total count. A limit
	// of zero or less returns everything.
	ListMedia(ctx context.Context, offset, limit int) ([]*domain.Media, int, error)

	// AttachTarget adds a target to an existing media after re-checking
	// the global (website, URL) uniqueness inside the transaction.
	AttachTarget(ctx context.Context, mediaID domain.MediaID, t domain.ScrapeTarget) error
	// ApplyRelease replaces the media's latest release when rel is
	// strictly newer and reports whether anything changed.
	ApplyRelease(ctx context.Context, mediaID domain.MediaID, rel domain.ReleaseDetails) (bool, error)

	// AddSubscription creates the subscriber on first use and reports
	// whether a new subscription was added.
	AddSubscription(ctx context.Context, externalID string, mediaID domain.MediaID) (bool, error)
	// RemoveSubscription reports whether a subscription was removed; a
	// missing subscriber or subscription is a no-op.
	RemoveSubscription(ctx context.Context, externalID string, mediaID domain.MediaID) (bool, error)
	SubscriberByExternalID(ctx context.Context, externalID string) (*domain.Subscriber, error)
	SubscribersOf(ctx context.Context, mediaID domain.MediaID) ([]*domain.Subscriber, error)
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	case "memory":
		return newMemStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}
