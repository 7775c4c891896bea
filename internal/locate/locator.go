package locate

import (
	"context"
	"log/slog"

	"github.com/nao1215/logocluster/internal/fetch"
)

// Fetcher is the subset of *fetch.Fetcher used by the Locator.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetch.Payload, error)
	Fetch(ctx context.Context, rawURL, referer string) (*fetch.Payload, error)
}

// Locator finds candidate logo URLs for a site.
type Locator struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		l.logger = logger
	}
}

// NewLocator creates a Locator that downloads pages with fetcher.
func NewLocator(fetcher Fetcher, opts ...Option) *Locator {
	l := &Locator{fetcher: fetcher}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// FindAll returns the ranked candidates for siteURL. Fetch and parse
// failures are logged and absorbed: when no landing page can be read only
// the blind probes are returned. The result is empty only when siteURL has
// no usable host.
func (l *Locator) FindAll(ctx context.Context, siteURL string) []Candidate {
	root, err := NormalizeRoot(siteURL)
	if err != nil {
		l.logger.Debug("cannot normalize site", "site", siteURL, "error", err)
		return nil
	}

	var found []Candidate
	for _, variant := range MarkupVariants(root) {
		if ctx.Err() != nil {
			break
		}
		markup, ok := l.readMarkup(ctx, variant)
		if !ok {
			continue
		}
		found = append(found, markup.Candidates...)
		for _, manifestURL := range markup.Manifests {
			found = append(found, l.manifestIcons(ctx, manifestURL, fetch.Origin(variant))...)
		}
		break
	}

	found = append(found, BlindProbes(root)...)
	ranked := Rank(found)
	l.logger.Debug("located logo candidates", "site", siteURL, "count", len(ranked))
	return ranked
}

func (l *Locator) readMarkup(ctx context.Context, pageURL string) (*Markup, bool) {
	page, err := l.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		l.logger.Debug("landing page unavailable", "url", pageURL, "error", err)
		return nil, false
	}
	markup, err := ParseMarkup(page.Body, page.ContentType, page.URL)
	if err != nil {
		l.logger.Debug("landing page unparseable", "url", pageURL, "error", err)
		return nil, false
	}
	return markup, true
}

func (l *Locator) manifestIcons(ctx context.Context, manifestURL, referer string) []Candidate {
	payload, err := l.fetcher.Fetch(ctx, manifestURL, referer)
	if err != nil {
		l.logger.Debug("manifest unavailable", "url", manifestURL, "error", err)
		return nil
	}
	icons, err := ParseManifest(payload.Body, manifestURL)
	if err != nil {
		l.logger.Debug("manifest unparseable", "url", manifestURL, "error", err)
		return nil
	}
	return icons
}
