package fetch

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// maxRedirects caps the redirect chain followed by the client.
const maxRedirects = 10

// HostOverrides supplies extra request headers for a host.
type HostOverrides interface {
	// HostHeaders returns the cookie string and headers to add to every
	// request sent to host. Both may be empty.
	HostHeaders(host string) (cookie string, headers map[string]string)
}

// ClientOptions configures NewHTTPClient.
type ClientOptions struct {
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration

	// Timeout bounds waiting for response headers and, together with
	// ConnectTimeout, the whole request.
	Timeout time.Duration

	// Overrides adds per-host cookies and headers. May be nil.
	Overrides HostOverrides
}

// NewHTTPClient creates the shared HTTP client. It keeps cookies across
// requests, follows up to ten redirects and honours proxy settings from
// the environment.
func NewHTTPClient(opts ClientOptions) *http.Client {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.Timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	if opts.Overrides != nil {
		transport = &headerInjectingTransport{base: transport, overrides: opts.Overrides}
	}

	// cookiejar.New only fails with invalid options.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck

	return &http.Client{
		Transport: transport,
		Timeout:   opts.ConnectTimeout + opts.Timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// headerInjectingTransport adds the configured cookie and headers for the
// request host to every outgoing request, redirects included.
type headerInjectingTransport struct {
	base      http.RoundTripper
	overrides HostOverrides
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cookie, headers := t.overrides.HostHeaders(req.URL.Hostname())
	if cookie == "" && len(headers) == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+cookie)
		} else {
			clone.Header.Set("Cookie", cookie)
		}
	}
	for key, value := range headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
