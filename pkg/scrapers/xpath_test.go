package scrapers

import (
	"context"
	"strings"
	"testing"
)

func TestXPathStrategyFetchLatest(t *testing.T) {
	const pageURL = "https://xsite.example/series/solo-leveling"
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		pageURL: {body: []byte(mangaPageHTML), statusCode: 200},
	}}
	strategy := NewXPathStrategy(xpathSite(`//ul[@class='chapter-list']//a`), client)

	got, err := strategy.FetchLatest(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("FetchLatest failed: %v", err)
	}
	if got.Number.Major != 181 {
		t.Errorf("got major %d, want 181", got.Number.Major)
	}
	if got.URL != "https://xsite.example/solo-leveling/chapter-181" {
		t.Errorf("got url %q, want resolved chapter link", got.URL)
	}
	if got.Title != "Solo Leveling" {
		t.Errorf("got title %q, want og:title value", got.Title)
	}
}

func TestXPathStrategyFindsAnchorInsideMatch(t *testing.T) {
	const pageURL = "https://xsite.example/series/solo-leveling"
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		pageURL: {body: []byte(mangaPageHTML), statusCode: 200},
	}}
	strategy := NewXPathStrategy(xpathSite(`//li[@class='chapter']`), client)

	got, err := strategy.FetchLatest(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("FetchLatest failed: %v", err)
	}
	if got.URL != "https://xsite.example/solo-leveling/chapter-181" {
		t.Errorf("got url %q, want descendant anchor href", got.URL)
	}
}

func TestXPathStrategySelectorMiss(t *testing.T) {
	const pageURL = "https://xsite.example/series/solo-leveling"
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		pageURL: {body: []byte(mangaPageHTML), statusCode: 200},
	}}
	strategy := NewXPathStrategy(xpathSite(`//div[@id='missing']`), client)

	if _, err := strategy.FetchLatest(context.Background(), pageURL); err == nil {
		t.Fatal("expected error when expression matches nothing")
	} else if !strings.Contains(err.Error(), "matched nothing") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestXPathStrategyInvalidExpression(t *testing.T) {
	const pageURL = "https://xsite.example/series/solo-leveling"
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		pageURL: {body: []byte(mangaPageHTML), statusCode: 200},
	}}
	strategy := NewXPathStrategy(xpathSite(`//li[@class='chapter'`), client)

	if _, err := strategy.FetchLatest(context.Background(), pageURL); err == nil {
		t.Fatal("expected error for malformed expression")
	}
}

func TestXPathStrategyNon200Status(t *testing.T) {
	const pageURL = "https://xsite.example/series/solo-leveling"
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		pageURL: {body: []byte("maintenance"), statusCode: 503},
	}}
	strategy := NewXPathStrategy(xpathSite(`//ul[@class='chapter-list']//a`), client)

	if _, err := strategy.FetchLatest(context.Background(), pageURL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
