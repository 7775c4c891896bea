package locate

import (
	"net/url"
	"slices"
	"strings"
)

// Source records where a candidate URL was found.
type Source string

const (
	SourceLinkIcon   Source = "rel-icon"
	SourceMeta       Source = "meta"
	SourceHeaderImg  Source = "header-img"
	SourceManifest   Source = "manifest"
	SourceAppleProbe Source = "apple-touch-probe"
	SourceFavicon    Source = "favicon"
)

// Candidate is a URL that may point at a site's logo.
type Candidate struct {
	Source Source `json:"source"`
	URL    string `json:"url"`
}

type bonus struct {
	needle string
	score  int
}

// Only the first matching extension and size hint count.
var (
	extensionBonus = []bonus{
		{".svg", 50},
		{".png", 45},
		{".jpg", 35},
		{".jpeg", 35},
		{".webp", 32},
		{".gif", 10},
		{".bmp", 5},
		{".ico", -50},
	}
	sizeBonus = []bonus{
		{"512", 25},
		{"256", 20},
		{"192", 18},
		{"180x180", 18},
		{"152x152", 16},
		{"120x120", 14},
	}
)

// Score rates how likely rawURL is to be a usable logo.
func Score(rawURL string) int {
	s := strings.ToLower(rawURL)
	score := 0
	for _, b := range extensionBonus {
		if strings.HasSuffix(s, b.needle) {
			score += b.score
			break
		}
	}
	if strings.Contains(s, "logo") {
		score += 40
	}
	if strings.Contains(s, "brand") {
		score += 15
	}
	for _, b := range sizeBonus {
		if strings.Contains(s, b.needle) {
			score += b.score
			break
		}
	}
	if strings.Contains(s, "favicon") {
		score -= 40
	}
	return score
}

// StripQuery returns rawURL without query string and fragment. Unparseable
// input is returned unchanged.
func StripQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Dedupe keeps the first candidate for each query-stripped URL. The kept
// candidate carries the stripped URL.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := StripQuery(c.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Candidate{Source: c.Source, URL: key})
	}
	return out
}

// Rank deduplicates candidates and sorts them by descending Score,
// keeping insertion order for equal scores.
func Rank(candidates []Candidate) []Candidate {
	out := Dedupe(candidates)
	slices.SortStableFunc(out, func(a, b Candidate) int {
		return Score(b.URL) - Score(a.URL)
	})
	return out
}
