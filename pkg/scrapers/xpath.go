package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// xpathStrategy locates the latest release with XPath expressions, for
// sites whose markup is easier to address structurally than by class.
type xpathStrategy struct {
	site   Site
	client HTTPClient
}

func NewXPathStrategy(site Site, client HTTPClient) Strategy {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &xpathStrategy{site: site, client: client}
}

func (s *xpathStrategy) Kind() string { return KindXPath }

func (s *xpathStrategy) FetchLatest(ctx context.Context, pageURL string) (domain.CandidateRelease, error) {
	body, err := fetchPage(ctx, s.client, pageURL, s.site.RequestHeaders())
	if err != nil {
		return domain.CandidateRelease{}, err
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return domain.CandidateRelease{}, fmt.Errorf("parse html of %s: %w", pageURL, err)
	}

	node, err := htmlquery.Query(doc, s.site.Scraper.Selector)
	if err != nil {
		return domain.CandidateRelease{}, fmt.Errorf("evaluate %q: %w", s.site.Scraper.Selector, err)
	}
	if node == nil {
		return domain.CandidateRelease{}, fmt.Errorf("expression %q matched nothing on %s", s.site.Scraper.Selector, pageURL)
	}

	number, err := ParseReleaseNumber(htmlquery.InnerText(node))
	if err != nil {
		return domain.CandidateRelease{}, fmt.Errorf("latest release on %s: %w", pageURL, err)
	}

	return domain.CandidateRelease{
		Number: number,
		URL:    resolveURL(pageURL, s.releaseLink(node)),
		Title:  s.pageTitle(doc),
	}, nil
}

// releaseLink pulls the link attribute off the matched node, falling back
// to the first anchor underneath it.
func (s *xpathStrategy) releaseLink(node *html.Node) string {
	if href := htmlquery.SelectAttr(node, s.site.Scraper.LinkAttr); href != "" {
		return href
	}
	anchor, err := htmlquery.Query(node, ".//a")
	if err != nil || anchor == nil {
		return ""
	}
	return htmlquery.SelectAttr(anchor, s.site.Scraper.LinkAttr)
}

func (s *xpathStrategy) pageTitle(doc *html.Node) string {
	extract := func(expr string) string {
		node, err := htmlquery.Query(doc, expr)
		if err != nil || node == nil {
			return ""
		}
		return strings.TrimSpace(htmlquery.InnerText(node))
	}

	var configured string
	if expr := s.site.Scraper.TitleSelector; expr != "" {
		configured = extract(expr)
	}
	return firstNonEmpty(
		configured,
		extract(`//meta[@property='og:title']/@content`),
		extract(`//title`),
	)
}
