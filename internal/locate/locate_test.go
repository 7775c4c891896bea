package locate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/nao1215/logocluster/internal/fetch"
)

// fakeFetcher serves canned pages and assets keyed by URL.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	assets  map[string]string
	visited []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, rawURL string) (*fetch.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited = append(f.visited, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &fetch.NetworkError{URL: rawURL, Err: errors.New("connection refused")}
	}
	return &fetch.Payload{URL: rawURL, Body: []byte(body), ContentType: "text/html; charset=utf-8"}, nil
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL, _ string) (*fetch.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.assets[rawURL]
	if !ok {
		return nil, &fetch.NetworkError{URL: rawURL, StatusCode: 404}
	}
	return &fetch.Payload{URL: rawURL, Body: []byte(body), ContentType: "application/manifest+json"}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func urlsOf(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.URL
	}
	return out
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want int
	}{
		{"https://www.a.com/logo.svg", 90},
		{"https://www.a.com/img/logo-512x512.png", 110},
		{"https://www.a.com/brand.jpeg", 50},
		{"https://www.a.com/hero.webp", 32},
		{"https://www.a.com/anim.gif", 10},
		{"https://www.a.com/old.bmp", 5},
		{"https://www.a.com/favicon.ico", -90},
		{"https://www.a.com/favicon-256.png", 25},
		{"https://www.a.com/apple-touch-icon-180x180.png", 63},
		{"https://www.a.com/apple-touch-icon-152x152.png", 61},
		{"https://www.a.com/apple-touch-icon-120x120.png", 59},
		{"https://www.a.com/icon-192.png", 63},
		{"https://www.a.com/LOGO.PNG", 85},
		{"https://www.a.com/page", 0},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := Score(tt.url); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRank_DedupesByQueryStrippedURL(t *testing.T) {
	t.Parallel()

	ranked := Rank([]Candidate{
		{Source: SourceMeta, URL: "https://site.com/assets/logo-512x512.png?v=2"},
		{Source: SourceLinkIcon, URL: "https://site.com/assets/logo-512x512.png?v=9"},
	})

	want := []Candidate{{Source: SourceMeta, URL: "https://site.com/assets/logo-512x512.png"}}
	if !reflect.DeepEqual(ranked, want) {
		t.Errorf("expected %v, got %v", want, ranked)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := [][]Candidate{
		nil,
		{
			{Source: SourceMeta, URL: "https://site.com/logo.png?v=1"},
			{Source: SourceLinkIcon, URL: "https://site.com/logo.png?v=2#top"},
			{Source: SourceFavicon, URL: "https://site.com/favicon.ico"},
			{Source: SourceHeaderImg, URL: "https://site.com/my logo.png?"},
			{Source: SourceHeaderImg, URL: ""},
		},
		{
			{Source: SourceAppleProbe, URL: "https://www.site.com/apple-touch-icon.png"},
			{Source: SourceAppleProbe, URL: "https://www.site.com/apple-touch-icon.png"},
		},
	}
	for i, in := range inputs {
		once := Dedupe(in)
		twice := Dedupe(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("input %d: expected %v, got %v", i, once, twice)
		}
		if ranked := Rank(Rank(in)); !reflect.DeepEqual(ranked, Rank(in)) {
			t.Errorf("input %d: expected ranking to be stable, got %v", i, ranked)
		}
	}
}

func TestRank_StableForEqualScores(t *testing.T) {
	t.Parallel()

	ranked := Rank([]Candidate{
		{Source: SourceHeaderImg, URL: "https://a.com/first.png"},
		{Source: SourceHeaderImg, URL: "https://a.com/logo.svg"},
		{Source: SourceHeaderImg, URL: "https://a.com/second.png"},
		{Source: SourceHeaderImg, URL: "https://a.com/third.png#frag"},
	})

	want := []string{
		"https://a.com/logo.svg",
		"https://a.com/first.png",
		"https://a.com/second.png",
		"https://a.com/third.png",
	}
	if got := urlsOf(ranked); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "https://www.example.com/"},
		{in: "  Example.COM  ", want: "https://www.example.com/"},
		{in: "http://example.com/about?x=1", want: "https://www.example.com/"},
		{in: "https://www.example.com", want: "https://www.example.com/"},
		{in: "example.com:8443", want: "https://www.example.com:8443/"},
		{in: "httpbin.org", want: "https://www.httpbin.org/"},
		{in: "", wantErr: true},
		{in: "https://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeRoot(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSite) {
					t.Errorf("expected ErrInvalidSite, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.String())
			}
		})
	}
}

func TestMarkupVariants(t *testing.T) {
	t.Parallel()

	root, err := NormalizeRoot("example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"https://www.example.com/",
		"https://example.com/",
		"http://www.example.com/",
		"http://example.com/",
	}
	if got := MarkupVariants(root); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSiteVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{
			in:   "example.com",
			want: []string{"https://example.com", "https://www.example.com", "http://example.com", "http://www.example.com"},
		},
		{
			in:   "www.example.com",
			want: []string{"https://example.com", "https://www.example.com", "http://example.com", "http://www.example.com"},
		},
		{
			in:   "https://www.example.com/shop",
			want: []string{"https://www.example.com/shop", "https://example.com/shop"},
		},
		{
			in:   "http://example.com",
			want: []string{"http://example.com", "http://www.example.com"},
		},
		{in: "   ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := SiteVariants(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

const landingPage = `<!DOCTYPE html>
<html>
<head>
  <link rel="stylesheet" href="/main.css">
  <link rel="SHORTCUT ICON" href="/favicon.ico?v=3">
  <link rel="apple-touch-icon" sizes="180x180" href="/icons/apple.png">
  <link rel="mask-icon" href="/icons/mask.svg" color="#000">
  <link rel="manifest" href="/static/site.webmanifest">
  <meta property="og:image" content="https://cdn.example.com/share.jpg">
  <meta name="twitter:image" content="/twitter-card.png">
  <meta name="description" content="not an image">
</head>
<body>
  <header><a href="/"><img src="/img/header-mark.png"></a></header>
  <div class="site-branding"><img src="/img/wordmark.gif"></div>
  <img src="/img/Company-Logo.svg" alt="Company logo">
  <img id="brandImage" src="/img/brand-id.webp">
  <img src="/img/hero.jpg" alt="Hero">
  <img src="data:image/png;base64,AAAA" class="logo">
</body>
</html>`

func TestParseMarkup(t *testing.T) {
	t.Parallel()

	m, err := ParseMarkup([]byte(landingPage), "text/html", "https://www.example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Candidate{
		{SourceLinkIcon, "https://www.example.com/favicon.ico?v=3"},
		{SourceLinkIcon, "https://www.example.com/icons/apple.png"},
		{SourceLinkIcon, "https://www.example.com/icons/mask.svg"},
		{SourceMeta, "https://cdn.example.com/share.jpg"},
		{SourceMeta, "https://www.example.com/twitter-card.png"},
		{SourceHeaderImg, "https://www.example.com/img/header-mark.png"},
		{SourceHeaderImg, "https://www.example.com/img/wordmark.gif"},
		{SourceHeaderImg, "https://www.example.com/img/Company-Logo.svg"},
		{SourceHeaderImg, "https://www.example.com/img/brand-id.webp"},
	}
	if !reflect.DeepEqual(m.Candidates, want) {
		t.Errorf("expected candidates\n%v\ngot\n%v", want, m.Candidates)
	}

	wantManifests := []string{"https://www.example.com/static/site.webmanifest"}
	if !reflect.DeepEqual(m.Manifests, wantManifests) {
		t.Errorf("expected manifests %v, got %v", wantManifests, m.Manifests)
	}
}

func TestParseMarkup_BaseHref(t *testing.T) {
	t.Parallel()

	page := `<html><head><base href="https://static.example.net/v2/"><link rel="icon" href="icon.png"></head></html>`
	m, err := ParseMarkup([]byte(page), "", "https://www.example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Candidates) != 1 || m.Candidates[0].URL != "https://static.example.net/v2/icon.png" {
		t.Errorf("expected icon resolved against base href, got %v", m.Candidates)
	}
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	body := `{"name":"x","icons":[{"src":"android-192.png","sizes":"192x192"},{"src":"/abs/512.png"},{"src":""}]}`
	icons, err := ParseManifest([]byte(body), "https://www.example.com/static/site.webmanifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"https://www.example.com/static/android-192.png",
		"https://www.example.com/abs/512.png",
	}
	if got := urlsOf(icons); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for _, c := range icons {
		if c.Source != SourceManifest {
			t.Errorf("expected manifest source, got %s", c.Source)
		}
	}

	if _, err := ParseManifest([]byte("not json"), "https://www.example.com/m.json"); err == nil {
		t.Error("expected error for malformed manifest")
	}
}

func TestLocator_UnreachableSiteYieldsBlindProbes(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	got := NewLocator(f, WithLogger(quietLogger())).FindAll(context.Background(), "unreachable.test")

	want := []Candidate{
		{SourceAppleProbe, "https://www.unreachable.test/apple-touch-icon-180x180.png"},
		{SourceAppleProbe, "https://www.unreachable.test/apple-touch-icon-152x152.png"},
		{SourceAppleProbe, "https://www.unreachable.test/apple-touch-icon-120x120.png"},
		{SourceAppleProbe, "https://www.unreachable.test/apple-touch-icon.png"},
		{SourceAppleProbe, "https://www.unreachable.test/apple-touch-icon-precomposed.png"},
		{SourceFavicon, "https://www.unreachable.test/favicon.ico"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected\n%v\ngot\n%v", want, got)
	}

	wantVisited := []string{
		"https://www.unreachable.test/",
		"https://unreachable.test/",
		"http://www.unreachable.test/",
		"http://unreachable.test/",
	}
	if !reflect.DeepEqual(f.visited, wantVisited) {
		t.Errorf("expected variants %v, got %v", wantVisited, f.visited)
	}
}

func TestLocator_FallsBackToBareHost(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		pages: map[string]string{
			"https://example.com/": `<html><head><link rel="manifest" href="/m.json"></head>` +
				`<body><img class="navbar-logo" src="/logo.svg?x=1"></body></html>`,
		},
		assets: map[string]string{
			"https://example.com/m.json": `{"icons":[{"src":"/icons/icon-512.png"}]}`,
		},
	}
	got := NewLocator(f, WithLogger(quietLogger())).FindAll(context.Background(), "example.com")

	if len(got) < 2 {
		t.Fatalf("expected markup candidates, got %v", got)
	}
	if got[0] != (Candidate{SourceHeaderImg, "https://example.com/logo.svg"}) {
		t.Errorf("expected logo.svg first, got %v", got[0])
	}
	if got[1] != (Candidate{SourceManifest, "https://example.com/icons/icon-512.png"}) {
		t.Errorf("expected manifest icon second, got %v", got[1])
	}
	last := got[len(got)-1]
	if last.Source != SourceFavicon {
		t.Errorf("expected favicon probe last, got %v", last)
	}
	if len(f.visited) != 2 {
		t.Errorf("expected to stop after the second variant, visited %v", f.visited)
	}
}

func TestLocator_InvalidSite(t *testing.T) {
	t.Parallel()

	if got := NewLocator(&fakeFetcher{}, WithLogger(quietLogger())).FindAll(context.Background(), ""); len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}
