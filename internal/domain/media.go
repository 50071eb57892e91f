package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// MediaID identifies a tracked media.
type MediaID string

// Media is a tracked serialized work. It owns its scrape targets and the
// latest committed release; both change only through the methods below so
// the uniqueness and ordering invariants always hold.
type Media struct {
	ID            MediaID                   `json:"id"`
	Name          string                    `json:"name"`
	LatestRelease mo.Option[ReleaseDetails] `json:"latest_release"`
	Targets       []ScrapeTarget            `json:"targets"`
}

func NewMedia(name string) mo.Result[*Media] {
	name = strings.TrimSpace(name)
	return Create(Validate().
		NotBlank("media name", name),
		func() *Media {
			return &Media{
				ID:            MediaID(uuid.NewString()),
				Name:          name,
				LatestRelease: mo.None[ReleaseDetails](),
			}
		})
}

// AttachTarget adds a scrape target. A media holds at most one target per
// website; attaching the exact same (website, URL) pair again reports
// ScrapeTargetExists.
func (m *Media) AttachTarget(t ScrapeTarget) error {
	for _, existing := range m.Targets {
		if existing.WebsiteID != t.WebsiteID {
			continue
		}
		if strings.EqualFold(existing.URL, t.URL) {
			return ScrapeTargetExists("media %q already scrapes %s", m.Name, t.URL)
		}
		return InvariantViolation("media %q already has a scrape target on website %q", m.Name, t.WebsiteName)
	}
	m.Targets = append(m.Targets, t)
	return nil
}

// ApplyRelease replaces the latest release only when rel is strictly
// newer. It reports whether the media changed, so re-applying an equal or
// older marker is a visible no-op.
func (m *Media) ApplyRelease(rel ReleaseDetails) bool {
	if current, ok := m.LatestRelease.Get(); ok && !rel.Number.After(current.Number) {
		return false
	}
	m.LatestRelease = mo.Some(rel)
	return true
}

// TargetFor returns this media's target on the given website, if any.
func (m *Media) TargetFor(siteID WebsiteID) mo.Option[ScrapeTarget] {
	for _, t := range m.Targets {
		if t.WebsiteID == siteID {
			return mo.Some(t)
		}
	}
	return mo.None[ScrapeTarget]()
}
