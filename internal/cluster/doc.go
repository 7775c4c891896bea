// Package cluster groups near-duplicate logos by perceptual hash.
//
// Items are bucketed by the top bits of their hash. Every pair inside a
// bucket is compared, and so is every pair across two buckets whose keys
// differ in at most a few bits. Pairs within the distance threshold are
// merged with a union-find, and each connected component of two or more
// items becomes a Group.
//
// Two hashes within the threshold whose keys are further apart than the
// bucket radius are never compared. This trades a small amount of recall
// for a large reduction in comparisons.
package cluster
