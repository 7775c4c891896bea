package model

import (
	"strings"

	"github.com/nao1215/logocluster/internal/phash"
)

// LogoItem is a successfully hashed logo ready for clustering.
type LogoItem struct {
	Domain  string     `json:"domain"`
	LogoURL string     `json:"logo_url"`
	Hash    phash.Hash `json:"-"`
}

// Group is a set of domains whose logos are near duplicates.
type Group struct {
	// ID is the dense 1-based position of the group in the output.
	ID int `json:"group_id"`

	// Members are ordered by domain, case-insensitively.
	Members []LogoItem `json:"members"`
}

// Size returns the number of member domains.
func (g Group) Size() int {
	return len(g.Members)
}

// Domains returns the member domains in output order.
func (g Group) Domains() []string {
	domains := make([]string, len(g.Members))
	for i, m := range g.Members {
		domains[i] = m.Domain
	}
	return domains
}

// WebsitesSeparator joins member domains in the group output.
const WebsitesSeparator = " | "

// Websites returns the member domains joined by WebsitesSeparator.
func (g Group) Websites() string {
	return strings.Join(g.Domains(), WebsitesSeparator)
}
