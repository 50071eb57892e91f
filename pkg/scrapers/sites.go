// Package scrapers holds the per-website fetch-and-parse strategies and
// the file-driven site registry that binds them.
package scrapers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scraper kinds a site entry may declare.
const (
	KindCSS   = "css"
	KindXPath = "xpath"
)

// ScraperConfig tells a strategy where the latest release marker lives on
// a site's pages. Selector syntax depends on Kind.
type ScraperConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// Selector locates the latest-release node (newest first is assumed).
	Selector string `json:"selector" yaml:"selector"`
	// LinkAttr names the attribute carrying the release link, href by default.
	LinkAttr string `json:"link_attr" yaml:"link_attr"`
	// TitleSelector optionally locates the work's title for naming on
	// first scrape; og:title and <title> are the fallbacks.
	TitleSelector string            `json:"title_selector" yaml:"title_selector"`
	Headers       map[string]string `json:"headers" yaml:"headers"`
}

// Site is one entry of the sites registry file.
type Site struct {
	Name    string        `json:"name" yaml:"name"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Scraper ScraperConfig `json:"scraper" yaml:"scraper"`
}

type sitesFile struct {
	Sites []Site `json:"sites" yaml:"sites"`
}

// LoadSites reads, sanitizes and validates the sites registry file.
// Site names must be unique case-insensitively since they become the
// websites' natural keys.
func LoadSites(path string) ([]Site, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sites file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sites file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	reg, err := parseSitesFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(reg.Sites) == 0 {
		return nil, errors.New("sites file contains no site entries")
	}

	seen := make(map[string]struct{}, len(reg.Sites))
	for i := range reg.Sites {
		s := sanitizeSite(reg.Sites[i])
		if err := validateSite(s); err != nil {
			return nil, fmt.Errorf("site[%d]: %w", i, err)
		}
		key := strings.ToLower(s.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate site name %q", s.Name)
		}
		seen[key] = struct{}{}
		reg.Sites[i] = s
	}
	return reg.Sites, nil
}

type unmarshalFn func([]byte, any) error

func parseSitesFile(data []byte, ext string) (sitesFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg sitesFile
		if err := d.fn(data, &reg); err != nil {
			return sitesFile{}, fmt.Errorf("decode %s sites: %w", d.name, err)
		}
		return reg, nil
	}

	return sitesFile{}, errors.New("sites file format not recognized (expected YAML or JSON)")
}

func sanitizeSite(s Site) Site {
	s.Name = strings.TrimSpace(s.Name)
	s.BaseURL = strings.TrimSuffix(strings.TrimSpace(s.BaseURL), "/")
	s.Scraper.Kind = strings.ToLower(strings.TrimSpace(s.Scraper.Kind))
	s.Scraper.Selector = strings.TrimSpace(s.Scraper.Selector)
	s.Scraper.LinkAttr = strings.TrimSpace(s.Scraper.LinkAttr)
	s.Scraper.TitleSelector = strings.TrimSpace(s.Scraper.TitleSelector)
	if s.Scraper.LinkAttr == "" {
		s.Scraper.LinkAttr = "href"
	}
	if s.Scraper.Headers == nil {
		s.Scraper.Headers = map[string]string{}
	}
	return s
}

func validateSite(s Site) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL for site %q", s.Name)
	}
	if s.Scraper.Kind != KindCSS && s.Scraper.Kind != KindXPath {
		return fmt.Errorf("scraper.kind must be %q or %q for site %q", KindCSS, KindXPath, s.Name)
	}
	if s.Scraper.Selector == "" {
		return fmt.Errorf("scraper.selector is required for site %q", s.Name)
	}
	return nil
}

var headerNames = map[string]string{
	"user_agent":      "User-Agent",
	"accept":          "Accept",
	"accept_language": "Accept-Language",
	"cache_control":   "Cache-Control",
}

// RequestHeaders maps the snake_case header keys of a site entry onto
// canonical header names, skipping empty values and unknown keys.
func (s Site) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(s.Scraper.Headers))
	for key, val := range s.Scraper.Headers {
		name, ok := headerNames[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		if v := strings.TrimSpace(val); v != "" {
			headers[name] = v
		}
	}
	return headers
}
