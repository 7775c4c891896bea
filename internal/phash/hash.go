package phash

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

// MaxDistance is the distance reported when either operand is invalid.
const MaxDistance = math.MaxInt

// Hash is a 64-bit perceptual hash. The zero value is Invalid.
type Hash struct {
	bits  uint64
	valid bool
}

// Invalid is the hash of an image that could not be processed.
var Invalid = Hash{}

// FromUint64 wraps raw hash bits in a valid Hash.
func FromUint64(v uint64) Hash {
	return Hash{bits: v, valid: true}
}

// Valid reports whether h holds a computed hash.
func (h Hash) Valid() bool {
	return h.valid
}

// Uint64 returns the raw hash bits. It returns 0 for Invalid.
func (h Hash) Uint64() uint64 {
	return h.bits
}

// Prefix returns the top n bits of the hash, used as a bucket key.
func (h Hash) Prefix(n int) uint64 {
	if n <= 0 {
		return 0
	}
	if n >= 64 {
		return h.bits
	}
	return h.bits >> (64 - n) & (1<<n - 1)
}

// String returns the hash as 16 lowercase hex digits, or an empty string
// for Invalid.
func (h Hash) String() string {
	if !h.valid {
		return ""
	}
	return fmt.Sprintf("%016x", h.bits)
}

// Parse decodes the representation produced by String. An empty string
// parses to Invalid.
func Parse(s string) (Hash, error) {
	if s == "" {
		return Invalid, nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Invalid, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return FromUint64(v), nil
}

// Distance returns the number of differing bits between a and b, or
// MaxDistance when either hash is invalid.
func Distance(a, b Hash) int {
	if !a.valid || !b.valid {
		return MaxDistance
	}
	return bits.OnesCount64(a.bits ^ b.bits)
}

// PrefixDistance returns the Hamming distance between two bucket keys.
func PrefixDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
