// Package mask implements the fixed 128-bit bitmap that indexes one trie level.
//
// A Mask is a plain comparable value made of two 64-bit words:
//
//	[ 64:127 ] [ 0:63 ]
//	<   hi   > <  lo  >
//
// Bit i addresses slot i of a block. All run walking in the store is built on
// two primitives: LowestSet (index of the lowest set bit) and RunLength (length
// of the run of set bits starting at an index). A run covering all 128 bits is
// handled by explicit full-width branches in Prefix and Span, never by shifting
// a one past the word width.
package mask

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/hideo55/go-popcount"

	"github.com/hupe1980/slotstore/core"
)

// Width is the number of bits in a Mask.
const Width = core.Width

const wordBits = 64

// Mask is a 128-bit bitmap.
type Mask struct {
	lo uint64
	hi uint64
}

var (
	// Empty has no bit set.
	Empty = Mask{}
	// Full has all 128 bits set.
	Full = Mask{lo: ^uint64(0), hi: ^uint64(0)}
)

func checkIndex(i uint) {
	if i >= Width {
		panic(fmt.Errorf("%w: index %d out of bounds for presence mask", core.ErrSlotOutOfRange, i))
	}
}

// Bit returns a mask with only bit i set. It panics if i >= Width.
func Bit(i uint) Mask {
	checkIndex(i)
	if i < wordBits {
		return Mask{lo: 1 << i}
	}
	return Mask{hi: 1 << (i - wordBits)}
}

// Of returns a mask with the given bits set.
func Of(idx ...uint) Mask {
	var m Mask
	for _, i := range idx {
		m = m.Or(Bit(i))
	}
	return m
}

// FromWords builds a mask from its low (bits 0-63) and high (bits 64-127) words.
func FromWords(lo, hi uint64) Mask {
	return Mask{lo: lo, hi: hi}
}

// Words returns the low and high words of m.
func (m Mask) Words() (lo, hi uint64) {
	return m.lo, m.hi
}

// Prefix returns a mask with the lowest n bits set.
func Prefix(n uint) Mask {
	switch {
	case n == 0:
		return Empty
	case n >= Width:
		// (1<<128)-1 is not expressible; the full width is its own case.
		return Full
	case n >= wordBits:
		return Mask{lo: ^uint64(0), hi: 1<<(n-wordBits) - 1}
	default:
		return Mask{lo: 1<<n - 1}
	}
}

// Span returns a mask with run consecutive bits set starting at start.
// A run of Width bits is the all-ones mask.
func Span(start, run uint) Mask {
	if run == 0 {
		return Empty
	}
	if run >= Width {
		return Full
	}
	checkIndex(start)
	return Prefix(run).Shl(start)
}

// Union returns the bitwise OR of all masks.
func Union(ms ...Mask) Mask {
	var u Mask
	for _, m := range ms {
		u = u.Or(m)
	}
	return u
}

// And returns m & o.
func (m Mask) And(o Mask) Mask { return Mask{lo: m.lo & o.lo, hi: m.hi & o.hi} }

// Or returns m | o.
func (m Mask) Or(o Mask) Mask { return Mask{lo: m.lo | o.lo, hi: m.hi | o.hi} }

// AndNot returns m &^ o.
func (m Mask) AndNot(o Mask) Mask { return Mask{lo: m.lo &^ o.lo, hi: m.hi &^ o.hi} }

// Xor returns m ^ o.
func (m Mask) Xor(o Mask) Mask { return Mask{lo: m.lo ^ o.lo, hi: m.hi ^ o.hi} }

// Not returns the complement of m.
func (m Mask) Not() Mask { return Mask{lo: ^m.lo, hi: ^m.hi} }

// IsZero reports whether no bit is set.
func (m Mask) IsZero() bool { return m.lo|m.hi == 0 }

// Has reports whether bit i is set. It panics if i >= Width.
func (m Mask) Has(i uint) bool {
	return !m.And(Bit(i)).IsZero()
}

// Intersects reports whether m and o share at least one bit.
func (m Mask) Intersects(o Mask) bool {
	return !m.And(o).IsZero()
}

// Shl shifts m left by n bits. Bits shifted past 127 are lost.
func (m Mask) Shl(n uint) Mask {
	switch {
	case n == 0:
		return m
	case n >= Width:
		return Empty
	case n >= wordBits:
		return Mask{hi: m.lo << (n - wordBits)}
	default:
		return Mask{lo: m.lo << n, hi: m.hi<<n | m.lo>>(wordBits-n)}
	}
}

// Shr shifts m right by n bits.
func (m Mask) Shr(n uint) Mask {
	switch {
	case n == 0:
		return m
	case n >= Width:
		return Empty
	case n >= wordBits:
		return Mask{lo: m.hi >> (n - wordBits)}
	default:
		return Mask{lo: m.lo>>n | m.hi<<(wordBits-n), hi: m.hi >> n}
	}
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	return int(popcount.Count(m.lo) + popcount.Count(m.hi))
}

// LowestSet returns the index of the lowest set bit, or Width if m is empty.
func (m Mask) LowestSet() uint {
	if m.lo != 0 {
		return uint(bits.TrailingZeros64(m.lo))
	}
	if m.hi != 0 {
		return wordBits + uint(bits.TrailingZeros64(m.hi))
	}
	return Width
}

// HighestSet returns the index of the highest set bit, or Width if m is empty.
func (m Mask) HighestSet() uint {
	if m.hi != 0 {
		return wordBits + uint(bits.Len64(m.hi)) - 1
	}
	if m.lo != 0 {
		return uint(bits.Len64(m.lo)) - 1
	}
	return Width
}

// RunLength returns the number of consecutive set bits starting at start.
// It is 0 when bit start is clear and Width when m is Full and start is 0.
func (m Mask) RunLength(start uint) uint {
	if start >= Width {
		return 0
	}
	// Shr fills the top with zeros, so the complement always has a set bit
	// unless the whole shifted mask is ones.
	return m.Shr(start).Not().LowestSet()
}

// Rank returns the number of set bits strictly below index i (0 <= i <= Width).
func (m Mask) Rank(i uint) int {
	return m.And(Prefix(i)).Count()
}

// Select returns the mask of the lowest n set bits of m.
func (m Mask) Select(n int) Mask {
	if n <= 0 {
		return Empty
	}
	loCount := int(popcount.Count(m.lo))
	if n <= loCount {
		return Mask{lo: selectWord(m.lo, n)}
	}
	return Mask{lo: m.lo, hi: selectWord(m.hi, n-loCount)}
}

func selectWord(w uint64, n int) uint64 {
	var out uint64
	for ; n > 0 && w != 0; n-- {
		low := w & -w
		out |= low
		w &^= low
	}
	return out
}

// Runs iterates the maximal runs of set bits as (start, length) pairs in
// ascending order.
func (m Mask) Runs() iter.Seq2[uint, uint] {
	return func(yield func(start, run uint) bool) {
		for w := m; !w.IsZero(); {
			start := w.LowestSet()
			run := w.RunLength(start)
			w = w.AndNot(Span(start, run))
			if !yield(start, run) {
				return
			}
		}
	}
}

// Ones iterates the indices of the set bits in ascending order.
func (m Mask) Ones() iter.Seq[uint] {
	return func(yield func(uint) bool) {
		for w := m.lo; w != 0; w &= w - 1 {
			if !yield(uint(bits.TrailingZeros64(w))) {
				return
			}
		}
		for w := m.hi; w != 0; w &= w - 1 {
			if !yield(wordBits + uint(bits.TrailingZeros64(w))) {
				return
			}
		}
	}
}

// String returns m as 32 hex digits, most significant first.
func (m Mask) String() string {
	return fmt.Sprintf("%016x%016x", m.hi, m.lo)
}
