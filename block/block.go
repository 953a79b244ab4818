// Package block implements the bitmap-indexed blocks a store is built from.
//
// Every block carries a presence mask and an absence (tombstone) mask over its
// 128 slots. SetAll, SkipAll and ClearAll are the only ways to change the pair
// and each keeps them disjoint:
//
//	SetAll(m):   presence |= m   absence &^= m
//	SkipAll(m):  presence &^= m  absence |= m
//	ClearAll(m): presence &^= m  absence &^= m
//
// Leaves hold values: Fixed maps slot i to array position i, Packed stores
// values densely in slot order. FixedNode and PackedNode own child blocks and
// roll their masks up with Recompute. Callers recompute bottom-up after leaf
// mutations; nothing propagates automatically.
package block

import (
	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/core"
	"github.com/hupe1980/slotstore/mask"
)

// Releaser is implemented by values that hold resources. A block calls
// Release once for every present value it destroys.
type Releaser interface {
	Release()
}

// Child is a block that can be owned by an interior node.
type Child interface {
	Presence() mask.Mask
	Rollup() mask.Mask
	Release()
}

// FixedHeader is the header of addressable blocks.
type FixedHeader struct {
	// Absence marks descendant subtrees known to be entirely excluded.
	Absence mask.Mask
}

// PackedHeader is the header of packed blocks.
type PackedHeader struct {
	// Capacity is the initial capacity requested for the payload.
	Capacity int
}

// Block is the state shared by every block kind.
type Block[H any] struct {
	presence  mask.Mask
	absence   mask.Mask
	changedAt core.Tick
	alloc     *arena.Arena

	Header H
}

// Has reports whether slot i is present. It panics if i is out of range.
func (b *Block[H]) Has(i uint) bool { return b.presence.Has(i) }

// HasAny reports whether any slot of m is present.
func (b *Block[H]) HasAny(m mask.Mask) bool { return b.presence.Intersects(m) }

// SetAll marks the slots of m present.
func (b *Block[H]) SetAll(m mask.Mask) {
	b.presence = b.presence.Or(m)
	b.absence = b.absence.AndNot(m)
}

// SkipAll marks the slots of m absent without releasing their storage.
func (b *Block[H]) SkipAll(m mask.Mask) {
	b.presence = b.presence.AndNot(m)
	b.absence = b.absence.Or(m)
}

// ClearAll resets the slots of m to neither present nor absent.
func (b *Block[H]) ClearAll(m mask.Mask) {
	b.presence = b.presence.AndNot(m)
	b.absence = b.absence.AndNot(m)
}

// assign replaces the presence mask and drops absence bits it now covers.
func (b *Block[H]) assign(p mask.Mask) {
	b.presence = p
	b.absence = b.absence.AndNot(p)
}

// Count returns the number of present slots.
func (b *Block[H]) Count() int { return b.presence.Count() }

// Presence returns the presence mask.
func (b *Block[H]) Presence() mask.Mask { return b.presence }

// Absence returns the absence mask.
func (b *Block[H]) Absence() mask.Mask { return b.absence }

// ChangedAt returns the tick of the last recorded change.
func (b *Block[H]) ChangedAt() core.Tick { return b.changedAt }

// MarkChanged records t as the last change tick.
func (b *Block[H]) MarkChanged(t core.Tick) { b.changedAt = t }

// Alloc returns the arena the block was allocated from. Nil means the heap.
func (b *Block[H]) Alloc() *arena.Arena { return b.alloc }

// releaseValues calls the release hook of every value in vs and zeroes them.
func releaseValues[T any](vs []T) {
	for k := range vs {
		if r, ok := any(&vs[k]).(Releaser); ok {
			r.Release()
		} else if r, ok := any(vs[k]).(Releaser); ok {
			r.Release()
		}
	}
	clear(vs)
}
