package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// WebsiteID identifies a source website.
type WebsiteID string

// Website is an external source of releases. Websites come from the sites
// registry at startup and are immutable afterwards; their names are unique
// case-insensitively.
type Website struct {
	ID      WebsiteID `json:"id"`
	Name    string    `json:"name"`
	BaseURL string    `json:"base_url"`
}

func NewWebsite(name, baseURL string) mo.Result[*Website] {
	name = strings.TrimSpace(name)
	baseURL = strings.TrimSpace(baseURL)
	return Create(Validate().
		NotBlank("website name", name).
		NotBlank("website base url", baseURL).
		AbsoluteURL("website base url", baseURL),
		func() *Website {
			return &Website{
				ID:      WebsiteID(uuid.NewString()),
				Name:    name,
				BaseURL: strings.TrimSuffix(baseURL, "/"),
			}
		})
}

// PageURL derives the full URL of a page hosted on this website.
func (w *Website) PageURL(relativePath string) string {
	p := strings.TrimSpace(relativePath)
	if p == "" {
		return w.BaseURL
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return w.BaseURL + p
}
