package catalog

import (
	"context"
	"testing"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/store"
)

type fixture struct {
	store store.Store
	svc   *Service
}

func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()
	st, err := store.NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &fixture{store: st, svc: NewService(st, pageSize, nil)}
}

func (f *fixture) addMedia(t *testing.T, name string, rel *domain.ReleaseDetails) *domain.Media {
	t.Helper()
	res := domain.NewMedia(name)
	if res.IsError() {
		t.Fatalf("NewMedia(%q) failed: %v", name, res.Error())
	}
	m := res.MustGet()
	if rel != nil {
		m.ApplyRelease(*rel)
	}
	if err := f.store.CreateMedia(context.Background(), m); err != nil {
		t.Fatalf("CreateMedia(%q) failed: %v", name, err)
	}
	return m
}

func (f *fixture) addWebsite(t *testing.T, name, baseURL string) *domain.Website {
	t.Helper()
	res := domain.NewWebsite(name, baseURL)
	if res.IsError() {
		t.Fatalf("NewWebsite(%q) failed: %v", name, res.Error())
	}
	site := res.MustGet()
	if err := f.store.CreateWebsite(context.Background(), site); err != nil {
		t.Fatalf("CreateWebsite(%q) failed: %v", name, err)
	}
	return site
}

func release(major, minor int, url string) *domain.ReleaseDetails {
	return &domain.ReleaseDetails{
		Number: domain.ReleaseNumber{Major: major, Minor: minor},
		URL:    url,
	}
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if !domain.HasCode(err, code) {
		t.Fatalf("got error %v with code %s, want %s", err, domain.CodeOf(err), code)
	}
}

func TestSubscribeCreatesSubscriberOnFirstContact(t *testing.T) {
	f := newFixture(t, 0)
	media := f.addMedia(t, "Solo Leveling", nil)

	ack, err := f.svc.HandleSubscribeMedia(context.Background(), SubscribeMedia{
		ExternalID: "discord:42", MediaName: "Solo Leveling",
	})
	if err != nil {
		t.Fatalf("HandleSubscribeMedia failed: %v", err)
	}
	if !ack.Created || ack.MediaID != media.ID || ack.MediaName != "Solo Leveling" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	sub, err := f.store.SubscriberByExternalID(context.Background(), "discord:42")
	if err != nil || sub == nil {
		t.Fatalf("subscriber not created: %v", err)
	}
	if len(sub.Subscriptions) != 1 || sub.Subscriptions[0].MediaID != media.ID {
		t.Fatalf("unexpected subscriptions: %+v", sub.Subscriptions)
	}
	if len(sub.Channels) != 2 {
		t.Errorf("new subscriber should carry the default channels, got %v", sub.Channels)
	}
}

func TestSubscribeTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	f.addMedia(t, "Solo Leveling", nil)

	req := SubscribeMedia{ExternalID: "discord:42", MediaName: "Solo Leveling"}
	if _, err := f.svc.HandleSubscribeMedia(context.Background(), req); err != nil {
		t.Fatalf("first subscribe failed: %v", err)
	}

	ack, err := f.svc.HandleSubscribeMedia(context.Background(), req)
	if err != nil {
		t.Fatalf("re-subscribe must succeed: %v", err)
	}
	if ack.Created {
		t.Fatal("re-subscribe must acknowledge without creating")
	}

	sub, err := f.store.SubscriberByExternalID(context.Background(), "discord:42")
	if err != nil || sub == nil {
		t.Fatalf("subscriber lookup failed: %v", err)
	}
	if len(sub.Subscriptions) != 1 {
		t.Fatalf("got %d subscriptions after double subscribe, want 1", len(sub.Subscriptions))
	}
}

func TestSubscribeUnknownMedia(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.HandleSubscribeMedia(context.Background(), SubscribeMedia{
		ExternalID: "discord:42", MediaName: "Ghost",
	})
	assertCode(t, err, domain.CodeNotFound)
}

func TestSubscribeBlankExternalID(t *testing.T) {
	f := newFixture(t, 0)
	f.addMedia(t, "Solo Leveling", nil)

	_, err := f.svc.HandleSubscribeMedia(context.Background(), SubscribeMedia{
		ExternalID: "   ", MediaName: "Solo Leveling",
	})
	assertCode(t, err, domain.CodeInvariantViolation)
}

func TestUnsubscribeRemovesAndRepeatsAsNoop(t *testing.T) {
	f := newFixture(t, 0)
	f.addMedia(t, "Solo Leveling", nil)

	if _, err := f.svc.HandleSubscribeMedia(context.Background(), SubscribeMedia{
		ExternalID: "discord:42", MediaName: "Solo Leveling",
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	req := UnsubscribeMedia{ExternalID: "discord:42", MediaName: "Solo Leveling"}
	ack, err := f.svc.HandleUnsubscribeMedia(context.Background(), req)
	if err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	if !ack.Removed {
		t.Fatal("standing subscription must report Removed")
	}

	// Unsubscribing again is acknowledged, not failed: the subscription
	// simply no longer exists.
	ack, err = f.svc.HandleUnsubscribeMedia(context.Background(), req)
	if err != nil {
		t.Fatalf("repeat unsubscribe must succeed: %v", err)
	}
	if ack.Removed {
		t.Fatal("repeat unsubscribe must report Removed=false")
	}
}

func TestUnsubscribeFromNeverFollowedMedia(t *testing.T) {
	f := newFixture(t, 0)
	f.addMedia(t, "Solo Leveling", nil)

	ack, err := f.svc.HandleUnsubscribeMedia(context.Background(), UnsubscribeMedia{
		ExternalID: "nobody:7", MediaName: "Solo Leveling",
	})
	if err != nil {
		t.Fatalf("unsubscribe without subscriber must succeed: %v", err)
	}
	if ack.Removed {
		t.Fatal("unknown subscriber cannot have removed anything")
	}
}

func TestUnsubscribeUnknownMedia(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.HandleUnsubscribeMedia(context.Background(), UnsubscribeMedia{
		ExternalID: "discord:42", MediaName: "Ghost",
	})
	assertCode(t, err, domain.CodeNotFound)
}

func TestMediaQueryReturnsDetails(t *testing.T) {
	f := newFixture(t, 0)
	site := f.addWebsite(t, "SiteA", "https://sitea.example")

	res := domain.NewMedia("Solo Leveling")
	if res.IsError() {
		t.Fatalf("NewMedia failed: %v", res.Error())
	}
	media := res.MustGet()
	tgt := domain.NewScrapeTarget(media.ID, site, "manga/solo-leveling")
	if tgt.IsError() {
		t.Fatalf("NewScrapeTarget failed: %v", tgt.Error())
	}
	if err := media.AttachTarget(tgt.MustGet()); err != nil {
		t.Fatalf("AttachTarget failed: %v", err)
	}
	media.ApplyRelease(*release(181, 5, "https://sitea.example/c/181-5"))
	if err := f.store.CreateMedia(context.Background(), media); err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}

	details, err := f.svc.HandleMediaQuery(context.Background(), MediaQuery{MediaID: media.ID})
	if err != nil {
		t.Fatalf("HandleMediaQuery failed: %v", err)
	}
	if details.Name != "Solo Leveling" {
		t.Errorf("got name %q", details.Name)
	}
	if details.LatestRelease == nil || details.LatestRelease.Label != "Chapter 181.5" {
		t.Errorf("unexpected latest release: %+v", details.LatestRelease)
	}
	if len(details.Targets) != 1 || details.Targets[0].WebsiteName != "SiteA" {
		t.Errorf("unexpected targets: %+v", details.Targets)
	}
}

func TestMediaQueryUnknownID(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.HandleMediaQuery(context.Background(), MediaQuery{MediaID: "missing"})
	assertCode(t, err, domain.CodeNotFound)
}

func TestMediaQueryBlankID(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.HandleMediaQuery(context.Background(), MediaQuery{MediaID: "  "})
	assertCode(t, err, domain.CodeInvariantViolation)
}

func TestAvailableMediaPagesNameOrdered(t *testing.T) {
	f := newFixture(t, 2)
	for _, name := range []string{"Tower of God", "Alpha", "Omniscient Reader", "Berserk", "Solo Leveling"} {
		f.addMedia(t, name, nil)
	}

	page, err := f.svc.HandleAvailableMediaQuery(context.Background(), AvailableMediaQuery{PageIndex: 0})
	if err != nil {
		t.Fatalf("HandleAvailableMediaQuery failed: %v", err)
	}
	if page.TotalCount != 5 || page.TotalPages != 3 || page.PageSize != 2 {
		t.Fatalf("unexpected page shape: %+v", page)
	}
	if len(page.Items) != 2 || page.Items[0].Name != "Alpha" || page.Items[1].Name != "Berserk" {
		t.Fatalf("first page not name-ordered: %+v", page.Items)
	}

	last, err := f.svc.HandleAvailableMediaQuery(context.Background(), AvailableMediaQuery{PageIndex: 2})
	if err != nil {
		t.Fatalf("last page failed: %v", err)
	}
	if len(last.Items) != 1 || last.Items[0].Name != "Tower of God" {
		t.Fatalf("unexpected last page: %+v", last.Items)
	}
}

func TestAvailableMediaExplicitPageSize(t *testing.T) {
	f := newFixture(t, 2)
	for _, name := range []string{"Alpha", "Berserk", "Gamma"} {
		f.addMedia(t, name, nil)
	}

	page, err := f.svc.HandleAvailableMediaQuery(context.Background(), AvailableMediaQuery{PageIndex: 0, PageSize: 10})
	if err != nil {
		t.Fatalf("HandleAvailableMediaQuery failed: %v", err)
	}
	if len(page.Items) != 3 || page.TotalPages != 1 {
		t.Fatalf("explicit page size ignored: %+v", page)
	}
}

func TestAvailableMediaNegativePageIndex(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.HandleAvailableMediaQuery(context.Background(), AvailableMediaQuery{PageIndex: -1})
	assertCode(t, err, domain.CodeInvariantViolation)
}

func TestMediaSubscriptionsUnknownSubscriberIsEmpty(t *testing.T) {
	f := newFixture(t, 0)

	view, err := f.svc.HandleMediaSubscriptionsQuery(context.Background(), MediaSubscriptionsQuery{ExternalID: "nobody:7"})
	if err != nil {
		t.Fatalf("unknown subscriber must not error: %v", err)
	}
	if view.ExternalID != "nobody:7" || len(view.Items) != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestMediaSubscriptionsListsFollowedMedia(t *testing.T) {
	f := newFixture(t, 0)
	f.addMedia(t, "Solo Leveling", release(181, 0, "https://sitea.example/c/181"))
	f.addMedia(t, "Omniscient Reader", nil)

	for _, name := range []string{"Solo Leveling", "Omniscient Reader"} {
		if _, err := f.svc.HandleSubscribeMedia(context.Background(), SubscribeMedia{
			ExternalID: "discord:42", MediaName: name,
		}); err != nil {
			t.Fatalf("subscribe to %q failed: %v", name, err)
		}
	}

	view, err := f.svc.HandleMediaSubscriptionsQuery(context.Background(), MediaSubscriptionsQuery{ExternalID: "discord:42"})
	if err != nil {
		t.Fatalf("HandleMediaSubscriptionsQuery failed: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(view.Items))
	}

	byName := map[string]SubscriptionView{}
	for _, item := range view.Items {
		byName[item.MediaName] = item
	}
	solo, ok := byName["Solo Leveling"]
	if !ok || solo.LatestRelease == nil || solo.LatestRelease.Label != "Chapter 181" {
		t.Errorf("unexpected Solo Leveling view: %+v", solo)
	}
	reader, ok := byName["Omniscient Reader"]
	if !ok || reader.LatestRelease != nil {
		t.Errorf("media without releases must render none: %+v", reader)
	}
}

func TestAvailableWebsitesListsRegistered(t *testing.T) {
	f := newFixture(t, 0)
	f.addWebsite(t, "SiteA", "https://sitea.example")
	f.addWebsite(t, "SiteB", "https://siteb.example")

	view, err := f.svc.HandleAvailableWebsitesQuery(context.Background(), AvailableWebsitesQuery{})
	if err != nil {
		t.Fatalf("HandleAvailableWebsitesQuery failed: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("got %d websites, want 2", len(view.Items))
	}
	for _, item := range view.Items {
		if item.WebsiteID == "" || item.BaseURL == "" {
			t.Errorf("incomplete website view: %+v", item)
		}
	}
}
