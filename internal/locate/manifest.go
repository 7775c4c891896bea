package locate

import (
	"encoding/json"
	"fmt"
	"net/url"
)

type webManifest struct {
	Icons []struct {
		Src string `json:"src"`
	} `json:"icons"`
}

// ParseManifest returns the icons of a web app manifest resolved against
// the manifest's own URL.
func ParseManifest(body []byte, manifestURL string) ([]Candidate, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL %q: %w", manifestURL, err)
	}
	var m webManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	out := make([]Candidate, 0, len(m.Icons))
	for _, icon := range m.Icons {
		if abs := resolve(base, icon.Src); abs != "" {
			out = append(out, Candidate{Source: SourceManifest, URL: abs})
		}
	}
	return out, nil
}
