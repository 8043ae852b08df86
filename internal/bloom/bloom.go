// Package bloom provides a fixed-size probabilistic set used for duplicate
// detection and known-identifier lookups.
//
// A Filter never reports a false negative for a key that was added. The
// false-positive rate depends on the ratio between the number of distinct
// keys and the configured size; it is an accepted approximation.
package bloom

import (
	"math/bits"

	"github.com/zeebo/xxh3"
)

// DefaultSizeMB is the default filter size in MiB.
const DefaultSizeMB = 128

// minBits keeps tiny filters usable in tests.
const minBits = 64

// sliceBits is the width of each of the three hash slices taken from the
// 128-bit digest.
const sliceBits = 42

const sliceMask = 1<<sliceBits - 1

// Filter is a flat bit vector with three derived bit positions per key.
// It supports insertion and membership tests only.
type Filter struct {
	words []uint64
	nbits uint64
}

// New allocates a filter of sizeMB MiB. Values below 1 allocate the
// minimum size.
func New(sizeMB int) *Filter {
	n := uint64(minBits)
	if sizeMB > 0 {
		n = uint64(sizeMB) << 23 // MiB -> bits
	}
	return NewBits(n)
}

// NewBits allocates a filter with exactly nbits bits, rounded up to a
// multiple of 64.
func NewBits(nbits uint64) *Filter {
	if nbits < minBits {
		nbits = minBits
	}
	words := (nbits + 63) / 64
	return &Filter{
		words: make([]uint64, words),
		nbits: words * 64,
	}
}

// Bits returns the number of bits in the filter.
func (f *Filter) Bits() uint64 {
	return f.nbits
}

// positions slices one xxh3-128 digest into three bit indices.
func (f *Filter) positions(h xxh3.Uint128) [3]uint64 {
	a := h.Lo & sliceMask
	b := (h.Lo>>sliceBits | h.Hi<<(64-sliceBits)) & sliceMask
	c := (h.Hi >> (2*sliceBits - 64)) & sliceMask
	return [3]uint64{a % f.nbits, b % f.nbits, c % f.nbits}
}

func (f *Filter) set(pos [3]uint64) {
	for _, p := range pos {
		f.words[p>>6] |= 1 << (p & 63)
	}
}

func (f *Filter) test(pos [3]uint64) bool {
	for _, p := range pos {
		if f.words[p>>6]&(1<<(p&63)) == 0 {
			return false
		}
	}
	return true
}

// Add inserts key.
func (f *Filter) Add(key []byte) {
	f.set(f.positions(xxh3.Hash128(key)))
}

// AddString inserts key.
func (f *Filter) AddString(key string) {
	f.set(f.positions(xxh3.HashString128(key)))
}

// MayContain reports whether key may have been added.
func (f *Filter) MayContain(key []byte) bool {
	return f.test(f.positions(xxh3.Hash128(key)))
}

// MayContainString reports whether key may have been added.
func (f *Filter) MayContainString(key string) bool {
	return f.test(f.positions(xxh3.HashString128(key)))
}

// TestAndAdd reports whether key may already be present and then inserts
// it, hashing once.
func (f *Filter) TestAndAdd(key []byte) bool {
	pos := f.positions(xxh3.Hash128(key))
	seen := f.test(pos)
	f.set(pos)
	return seen
}

// FillRatio returns the fraction of bits set.
func (f *Filter) FillRatio() float64 {
	var set int
	for _, w := range f.words {
		set += bits.OnesCount64(w)
	}
	return float64(set) / float64(f.nbits)
}
