package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// cssStrategy locates the latest release with goquery CSS selectors.
type cssStrategy struct {
	site   Site
	client HTTPClient
}

// NewCSSStrategy builds a strategy for the given site entry using CSS
// selectors (or the default HTTP client when none is provided).
func NewCSSStrategy(site Site, client HTTPClient) Strategy {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &cssStrategy{site: site, client: client}
}

func (s *cssStrategy) Kind() string { return KindCSS }

func (s *cssStrategy) FetchLatest(ctx context.Context, pageURL string) (domain.CandidateRelease, error) {
	body, err := fetchPage(ctx, s.client, pageURL, s.site.RequestHeaders())
	if err != nil {
		return domain.CandidateRelease{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.CandidateRelease{}, fmt.Errorf("parse html of %s: %w", pageURL, err)
	}

	node := doc.Find(s.site.Scraper.Selector).First()
	if node.Length() == 0 {
		return domain.CandidateRelease{}, fmt.Errorf("selector %q matched nothing on %s", s.site.Scraper.Selector, pageURL)
	}

	number, err := ParseReleaseNumber(node.Text())
	if err != nil {
		return domain.CandidateRelease{}, fmt.Errorf("latest release on %s: %w", pageURL, err)
	}

	href, _ := node.Attr(s.site.Scraper.LinkAttr)
	if href == "" {
		// The selector may point at a list item wrapping the anchor.
		href, _ = node.Find("a").First().Attr(s.site.Scraper.LinkAttr)
	}

	return domain.CandidateRelease{
		Number: number,
		URL:    resolveURL(pageURL, href),
		Title:  s.pageTitle(doc),
	}, nil
}

// pageTitle resolves the work's title: the configured selector first,
// then og:title, then the document title.
func (s *cssStrategy) pageTitle(doc *goquery.Document) string {
	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	var configured string
	if sel := s.site.Scraper.TitleSelector; sel != "" {
		configured = doc.Find(sel).First().Text()
	}
	return firstNonEmpty(
		configured,
		extract(`meta[property="og:title"]`),
		doc.Find("title").First().Text(),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
