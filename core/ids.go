package core

import (
	"errors"
	"fmt"
)

const (
	// Width is the fan-out of one trie level: the number of slots a block addresses.
	Width = 128

	// Depth is the number of trie levels a packed store is composed of.
	Depth = 3

	// Capacity is the number of IDs addressable by a Depth-level trie (128^3).
	Capacity = Width * Width * Width

	levelBits = 7 // log2(Width)
	levelMask = Width - 1
)

// ErrSlotOutOfRange is the panic cause for a slot index outside [0, Width).
var ErrSlotOutOfRange = errors.New("slot index out of range")

// ID is a full logical address: the concatenation of per-level slots.
// It is strictly below Capacity.
type ID uint32

// MaxID is the largest valid ID.
const MaxID = ID(Capacity - 1)

// Split returns the per-level slots of id, root level first.
func Split(id ID) (hi, mid, lo uint) {
	if id > MaxID {
		panic(fmt.Errorf("%w: id %d exceeds capacity %d", ErrSlotOutOfRange, id, Capacity))
	}
	v := uint(id)
	return v >> (2 * levelBits), (v >> levelBits) & levelMask, v & levelMask
}

// Join is the inverse of Split.
func Join(hi, mid, lo uint) ID {
	if hi >= Width || mid >= Width || lo >= Width {
		panic(fmt.Errorf("%w: (%d, %d, %d)", ErrSlotOutOfRange, hi, mid, lo))
	}
	return ID(hi<<(2*levelBits) | mid<<levelBits | lo)
}

// Tick is a monotonic change marker stamped on blocks when they are mutated.
type Tick uint64

// Next returns the tick following t.
func (t Tick) Next() Tick { return t + 1 }

// After reports whether t is strictly newer than other.
func (t Tick) After(other Tick) bool { return t > other }
