package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultUserAgent mimics a desktop Chrome browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// DefaultMaxBodySize caps response bodies at 10 MiB.
	DefaultMaxBodySize = 10 << 20

	// DefaultBackoff is the unit of the linear retry backoff.
	DefaultBackoff = 100 * time.Millisecond

	// DefaultPageTimeout bounds a landing page request.
	DefaultPageTimeout = 20 * time.Second

	acceptImage     = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	acceptPage      = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptWarmUp    = "text/html,*/*;q=0.8"
	acceptLanguage  = "en-US,en;q=0.9"
	pageReferer     = "https://www.google.com/"
	warmUpBodyLimit = 256 << 10
)

// Request kinds reported to an Observer.
const (
	KindImage  = "image"
	KindPage   = "page"
	KindWarmUp = "warmup"
)

// Observer receives the outcome of every HTTP request.
type Observer interface {
	ObserveRequest(kind string, status int, err error, elapsed time.Duration)
}

// Payload is a fetched resource.
type Payload struct {
	// URL is the final URL after redirects.
	URL string

	// Body holds the response bytes.
	Body []byte

	// ContentType is the lowercased Content-Type header, possibly empty.
	ContentType string
}

// Fetcher performs browser-like GET requests.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	limiter     *HostLimiter
	maxBodySize int64
	backoff     time.Duration
	pageTimeout time.Duration
	logger      *slog.Logger
	observer    Observer

	// warmed records origins whose landing page has been visited.
	warmed  sync.Map
	warmups singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLimiter sets the per-host rate limiter.
func WithLimiter(limiter *HostLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = limiter
	}
}

// WithMaxBodySize caps response bodies. Non-positive values keep the default.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithBackoff sets the unit of the linear retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) {
		f.backoff = d
	}
}

// WithPageTimeout bounds landing page requests.
func WithPageTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.pageTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithObserver registers an Observer for request metrics.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) {
		f.observer = o
	}
}

// New creates a Fetcher. Without WithClient it uses NewHTTPClient with
// 15s connect and 30s read timeouts.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		backoff:     DefaultBackoff,
		pageTimeout: DefaultPageTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = NewHTTPClient(ClientOptions{ConnectTimeout: 15 * time.Second, Timeout: 30 * time.Second})
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch downloads rawURL as an image request sent with the given referer.
// The referer's origin is visited first, once per Fetcher, with errors
// ignored.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, referer string) (*Payload, error) {
	f.warmUp(ctx, referer)

	headers := http.Header{}
	headers.Set("Accept", acceptImage)
	headers.Set("Accept-Language", acceptLanguage)
	if referer != "" {
		headers.Set("Referer", referer)
	}
	return f.get(ctx, KindImage, rawURL, headers)
}

// FetchWithRetry calls Fetch up to maxAttempts times, sleeping
// backoff*attempt between attempts.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL, referer string, maxAttempts int) (*Payload, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := f.Fetch(ctx, rawURL, referer)
		if err == nil {
			return p, nil
		}
		last = err
		f.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, f.backoff*time.Duration(attempt)); err != nil {
			last = err
			break
		}
	}
	return nil, &RetryExhaustedError{URL: rawURL, Attempts: maxAttempts, Last: last}
}

// FetchPage downloads an HTML landing page with navigation headers.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (*Payload, error) {
	if f.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.pageTimeout)
		defer cancel()
	}

	headers := http.Header{}
	headers.Set("Accept", acceptPage)
	headers.Set("Accept-Language", acceptLanguage)
	headers.Set("Upgrade-Insecure-Requests", "1")
	headers.Set("Sec-Fetch-Mode", "navigate")
	headers.Set("Sec-Fetch-Dest", "document")
	headers.Set("Sec-Fetch-Site", "none")
	headers.Set("Sec-Fetch-User", "?1")
	headers.Set("Referer", pageReferer)
	return f.get(ctx, KindPage, rawURL, headers)
}

// warmUp visits the origin of referer once per Fetcher. Concurrent callers
// for the same origin wait for the in-flight visit.
func (f *Fetcher) warmUp(ctx context.Context, referer string) {
	origin := Origin(referer)
	if origin == "" {
		return
	}
	if _, ok := f.warmed.Load(origin); ok {
		return
	}
	_, _, _ = f.warmups.Do(origin, func() (any, error) {
		if _, ok := f.warmed.Load(origin); ok {
			return nil, nil
		}
		f.visitOrigin(ctx, origin)
		f.warmed.Store(origin, struct{}{})
		return nil, nil
	})
}

func (f *Fetcher) visitOrigin(ctx context.Context, origin string) {
	headers := http.Header{}
	headers.Set("Accept", acceptWarmUp)
	req, err := f.newRequest(ctx, origin, headers)
	if err != nil {
		return
	}
	if err := f.limiter.Wait(ctx, req.URL.Host); err != nil {
		return
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.observe(KindWarmUp, 0, err, start)
		f.logger.Debug("warm-up request failed", "origin", origin, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, warmUpBodyLimit)) //nolint:errcheck
	f.observe(KindWarmUp, resp.StatusCode, nil, start)
}

func (f *Fetcher) get(ctx context.Context, kind, rawURL string, headers http.Header) (*Payload, error) {
	req, err := f.newRequest(ctx, rawURL, headers)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	if err := f.limiter.Wait(ctx, req.URL.Host); err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.observe(kind, 0, err, start)
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, warmUpBodyLimit)) //nolint:errcheck
		netErr := &NetworkError{URL: rawURL, StatusCode: resp.StatusCode}
		f.observe(kind, resp.StatusCode, netErr, start)
		return nil, netErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		netErr := &NetworkError{URL: rawURL, Err: err}
		f.observe(kind, resp.StatusCode, netErr, start)
		return nil, netErr
	}
	if int64(len(body)) > f.maxBodySize {
		netErr := &NetworkError{URL: rawURL, Err: fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBodySize)}
		f.observe(kind, resp.StatusCode, netErr, start)
		return nil, netErr
	}
	f.observe(kind, resp.StatusCode, nil, start)

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Payload{
		URL:         finalURL,
		Body:        body,
		ContentType: strings.ToLower(resp.Header.Get("Content-Type")),
	}, nil
}

func (f *Fetcher) newRequest(ctx context.Context, rawURL string, headers http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if req.URL.Host == "" {
		return nil, fmt.Errorf("missing host in %q", rawURL)
	}
	for key, values := range headers {
		req.Header[key] = values
	}
	req.Header.Set("User-Agent", f.userAgent)
	return req, nil
}

func (f *Fetcher) observe(kind string, status int, err error, start time.Time) {
	if f.observer != nil {
		f.observer.ObserveRequest(kind, status, err, time.Since(start))
	}
}

// Origin returns scheme://host/ for rawURL, or an empty string when rawURL
// has no scheme or host.
func Origin(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.StatusCode == status
}
