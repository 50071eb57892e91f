package scrapers

import (
	"context"
	"errors"

	"github.com/rensai-hq/rensai-release-tracker/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Client interface.
type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient returns canned responses per URL to avoid network calls.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	err       error
	calls     []string
	headers   map[string]string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	f.calls = append(f.calls, url)
	f.headers = headers
	if f.err != nil {
		return nil, f.err
	}
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("no canned response")
	}
	return resp, nil
}

const mangaPageHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Solo Leveling - MangaSite</title>
  <meta property="og:title" content="Solo Leveling" />
</head>
<body>
  <h1 class="entry-title">Solo Leveling (Manhwa)</h1>
  <ul class="chapter-list">
    <li class="chapter"><a href="/solo-leveling/chapter-181">Chapter 181</a><span>Jan 3, 2026</span></li>
    <li class="chapter"><a href="/solo-leveling/chapter-180">Chapter 180</a><span>Dec 27, 2025</span></li>
  </ul>
</body>
</html>`

func cssSite(selector string) Site {
	return sanitizeSite(Site{
		Name:    "MangaSite",
		BaseURL: "https://mangasite.example",
		Scraper: ScraperConfig{Kind: KindCSS, Selector: selector},
	})
}

func xpathSite(expr string) Site {
	return sanitizeSite(Site{
		Name:    "XSite",
		BaseURL: "https://xsite.example",
		Scraper: ScraperConfig{Kind: KindXPath, Selector: expr},
	})
}
