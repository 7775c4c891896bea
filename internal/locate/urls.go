package locate

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidSite is returned when a site string has no usable host.
var ErrInvalidSite = errors.New("invalid site")

const wwwPrefix = "www."

var blindProbes = []struct {
	path   string
	source Source
}{
	{"/apple-touch-icon.png", SourceAppleProbe},
	{"/apple-touch-icon-precomposed.png", SourceAppleProbe},
	{"/apple-touch-icon-180x180.png", SourceAppleProbe},
	{"/apple-touch-icon-152x152.png", SourceAppleProbe},
	{"/apple-touch-icon-120x120.png", SourceAppleProbe},
	{"/favicon.ico", SourceFavicon},
}

// NormalizeRoot returns the canonical root for site: https scheme, a www.
// host and path "/". Ports are kept.
func NormalizeRoot(site string) (*url.URL, error) {
	s := strings.TrimSpace(site)
	if s == "" {
		return nil, ErrInvalidSite
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidSite, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.ContainsAny(host, " /") {
		return nil, ErrInvalidSite
	}
	if !strings.HasPrefix(host, wwwPrefix) {
		host = wwwPrefix + host
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	return &url.URL{Scheme: "https", Host: host, Path: "/"}, nil
}

// MarkupVariants returns the URLs tried for the landing page, in order:
// the normalized root, its non-www form, and the http forms of both.
func MarkupVariants(root *url.URL) []string {
	bare := withHost(root, strings.TrimPrefix(root.Host, wwwPrefix))
	candidates := []*url.URL{
		root,
		bare,
		withScheme(root, "http"),
		withScheme(bare, "http"),
	}
	return uniqueStrings(candidates)
}

// SiteVariants returns the site URLs tried for a raw input domain. A bare
// domain yields https and http, each with and without www. A URL yields
// itself and its www-toggled form.
func SiteVariants(domain string) []string {
	d := strings.TrimSpace(domain)
	if d == "" {
		return nil
	}
	if !strings.Contains(d, "://") {
		bare := strings.TrimPrefix(d, wwwPrefix)
		return dedupeStrings([]string{
			"https://" + bare,
			"https://" + wwwPrefix + bare,
			"http://" + bare,
			"http://" + wwwPrefix + bare,
		})
	}
	u, err := url.Parse(d)
	if err != nil || u.Host == "" {
		return []string{d}
	}
	toggled := wwwPrefix + u.Host
	if strings.HasPrefix(u.Host, wwwPrefix) {
		toggled = strings.TrimPrefix(u.Host, wwwPrefix)
	}
	return dedupeStrings([]string{d, withHost(u, toggled).String()})
}

// BlindProbes returns the unverified apple-touch-icon and favicon guesses
// for root.
func BlindProbes(root *url.URL) []Candidate {
	out := make([]Candidate, 0, len(blindProbes))
	for _, p := range blindProbes {
		u := *root
		u.Path = p.path
		u.RawQuery = ""
		u.Fragment = ""
		out = append(out, Candidate{Source: p.source, URL: u.String()})
	}
	return out
}

// resolve returns ref resolved against base as an absolute http(s) URL,
// or an empty string.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Host == "" {
		return ""
	}
	return abs.String()
}

func withHost(u *url.URL, host string) *url.URL {
	c := *u
	c.Host = host
	return &c
}

func withScheme(u *url.URL, scheme string) *url.URL {
	c := *u
	c.Scheme = scheme
	return &c
}

func uniqueStrings(urls []*url.URL) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, u.String())
	}
	return dedupeStrings(out)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
