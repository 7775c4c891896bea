package locate

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Markup holds what was extracted from a landing page.
type Markup struct {
	// Candidates are the markup-derived candidates in source-group order.
	Candidates []Candidate

	// Manifests are the absolute URLs of linked web app manifests.
	Manifests []string
}

var metaImageKeys = map[string]bool{
	"og:image":            true,
	"twitter:image":       true,
	"og:image:secure_url": true,
}

// ParseMarkup extracts candidates from an HTML document fetched from
// pageURL. The body is decoded using the charset declared in contentType
// or sniffed from the document.
func ParseMarkup(body []byte, contentType, pageURL string) (*Markup, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b := resolve(base, href); b != "" {
			if u, err := url.Parse(b); err == nil {
				base = u
			}
		}
	}

	m := &Markup{}
	add := func(source Source, ref string) {
		if abs := resolve(base, ref); abs != "" {
			m.Candidates = append(m.Candidates, Candidate{Source: source, URL: abs})
		}
	}

	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		if isIconRel(s.AttrOr("rel", "")) {
			add(SourceLinkIcon, s.AttrOr("href", ""))
		}
	})

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		property := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		if metaImageKeys[property] || metaImageKeys[name] {
			add(SourceMeta, s.AttrOr("content", ""))
		}
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if isBrandingImage(s) {
			add(SourceHeaderImg, s.AttrOr("src", ""))
		}
	})

	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		if hasToken(s.AttrOr("rel", ""), "manifest") {
			if abs := resolve(base, s.AttrOr("href", "")); abs != "" {
				m.Manifests = append(m.Manifests, abs)
			}
		}
	})

	return m, nil
}

// isIconRel matches icon, shortcut icon, mask-icon and apple-touch-icon
// relations in any letter case.
func isIconRel(rel string) bool {
	return strings.Contains(strings.ToLower(rel), "icon")
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}
	return false
}

func mentionsBrand(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "logo") || strings.Contains(s, "brand")
}

// isBrandingImage reports whether an img looks like a site logo: its alt,
// class or id mentions a logo or brand, or it sits inside a header, a nav
// or an element whose class mentions one.
func isBrandingImage(img *goquery.Selection) bool {
	if mentionsBrand(img.AttrOr("alt", "")) ||
		mentionsBrand(img.AttrOr("class", "")) ||
		mentionsBrand(img.AttrOr("id", "")) {
		return true
	}
	for n := img.Get(0).Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if n.Data == "header" || n.Data == "nav" {
			return true
		}
		for _, a := range n.Attr {
			if a.Key == "class" && mentionsBrand(a.Val) {
				return true
			}
		}
	}
	return false
}
