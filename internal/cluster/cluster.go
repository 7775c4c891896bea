package cluster

import (
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/phash"
)

const (
	// DefaultThreshold is the largest Hamming distance treated as a match.
	DefaultThreshold = 8

	// DefaultPrefixBits is the number of leading hash bits used as a bucket key.
	DefaultPrefixBits = 12

	// DefaultPrefixRadius is the largest key distance between buckets
	// that are compared with each other.
	DefaultPrefixRadius = 2
)

// Clusterer groups logo items by perceptual similarity.
type Clusterer struct {
	threshold    int
	prefixBits   int
	prefixRadius int
	logger       *slog.Logger
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithThreshold sets the largest Hamming distance treated as a match.
func WithThreshold(threshold int) Option {
	return func(c *Clusterer) {
		c.threshold = threshold
	}
}

// WithPrefixBits sets the number of leading bits used as the bucket key.
func WithPrefixBits(bits int) Option {
	return func(c *Clusterer) {
		c.prefixBits = bits
	}
}

// WithPrefixRadius sets the largest key distance between compared buckets.
func WithPrefixRadius(radius int) Option {
	return func(c *Clusterer) {
		c.prefixRadius = radius
	}
}

// WithLogger sets the logger for clustering statistics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) {
		c.logger = logger
	}
}

// New creates a Clusterer with the default threshold and bucketing.
func New(opts ...Option) *Clusterer {
	c := &Clusterer{
		threshold:    DefaultThreshold,
		prefixBits:   DefaultPrefixBits,
		prefixRadius: DefaultPrefixRadius,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Result is the output of a clustering pass.
type Result struct {
	// Groups holds every component with at least two members, largest first.
	Groups []model.Group

	// Comparisons counts the hash pairs whose distance was computed.
	Comparisons int64

	// Unions counts the merges that joined two distinct components.
	Unions int64
}

// Cluster groups items whose hashes are within the threshold, directly or
// through a chain of matches. Items with an invalid hash are ignored. The
// result does not depend on the order of items.
func (c *Clusterer) Cluster(items []model.LogoItem) Result {
	fold := cases.Fold()
	keyOf := func(item model.LogoItem) string {
		return fold.String(item.Domain)
	}

	valid := make([]model.LogoItem, 0, len(items))
	for _, item := range items {
		if item.Hash.Valid() {
			valid = append(valid, item)
		}
	}
	slices.SortStableFunc(valid, func(a, b model.LogoItem) int {
		return compareItems(keyOf(a), keyOf(b), a, b)
	})

	buckets := make(map[uint64][]int)
	for i, item := range valid {
		key := item.Hash.Prefix(c.prefixBits)
		buckets[key] = append(buckets[key], i)
	}
	keys := make([]uint64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	uf := newUnionFind(len(valid))
	var res Result
	link := func(i, j int) {
		res.Comparisons++
		if phash.Distance(valid[i].Hash, valid[j].Hash) <= c.threshold && uf.union(i, j) {
			res.Unions++
		}
	}

	for _, k := range keys {
		members := buckets[k]
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				link(members[a], members[b])
			}
		}
	}

	if c.prefixRadius > 0 {
		for x := 0; x < len(keys); x++ {
			for y := x + 1; y < len(keys); y++ {
				if phash.PrefixDistance(keys[x], keys[y]) > c.prefixRadius {
					continue
				}
				for _, i := range buckets[keys[x]] {
					for _, j := range buckets[keys[y]] {
						link(i, j)
					}
				}
			}
		}
	}

	components := make(map[int][]model.LogoItem)
	for i := range valid {
		root := uf.find(i)
		components[root] = append(components[root], valid[i])
	}

	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		res.Groups = append(res.Groups, model.Group{Members: members})
	}
	slices.SortFunc(res.Groups, func(a, b model.Group) int {
		if a.Size() != b.Size() {
			return b.Size() - a.Size()
		}
		return compareItems(keyOf(a.Members[0]), keyOf(b.Members[0]), a.Members[0], b.Members[0])
	})
	for i := range res.Groups {
		res.Groups[i].ID = i + 1
	}

	c.logger.Debug("clustered logos",
		"items", len(valid),
		"buckets", len(keys),
		"comparisons", res.Comparisons,
		"unions", res.Unions,
		"groups", len(res.Groups),
	)
	return res
}

// compareItems orders items by folded domain, falling back to the raw
// domain and logo URL so that the order is total.
func compareItems(foldedA, foldedB string, a, b model.LogoItem) int {
	if c := strings.Compare(foldedA, foldedB); c != 0 {
		return c
	}
	if c := strings.Compare(a.Domain, b.Domain); c != 0 {
		return c
	}
	return strings.Compare(a.LogoURL, b.LogoURL)
}
