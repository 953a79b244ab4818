// Package store provides the per-type component stores.
//
// Addressable stores keep values at their slot index in a single fixed leaf.
// Packed stores compose packed blocks into a three-level trie that addresses
// core.Capacity IDs. Both are driven entirely by mask arithmetic: discovering
// what is stored never scans absent slots.
//
// Stores are not safe for concurrent use. The registry serializes access
// through borrow-checked cells.
package store

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/block"
	"github.com/hupe1980/slotstore/core"
	"github.com/hupe1980/slotstore/mask"
	"github.com/hupe1980/slotstore/view"
)

// Addressable is a flat store of up to mask.Width values addressed by slot.
type Addressable[T any] struct {
	root  *block.Fixed[T]
	alloc *arena.Arena
	clock core.Tick
}

// NewAddressable creates an empty addressable store. A nil arena allocates on
// the heap.
func NewAddressable[T any](a *arena.Arena) *Addressable[T] {
	return &Addressable[T]{
		root:  block.NewFixed[T](a),
		alloc: a,
	}
}

// Root returns the root block.
func (s *Addressable[T]) Root() *block.Fixed[T] { return s.root }

// Clock returns the tick of the last mutation.
func (s *Addressable[T]) Clock() core.Tick { return s.clock }

func (s *Addressable[T]) touch() {
	s.clock = s.clock.Next()
	s.root.MarkChanged(s.clock)
}

// Insert stores v at slot i and publishes it.
func (s *Addressable[T]) Insert(i uint, v T) {
	s.root.Put(i, v)
	s.touch()
}

// Get returns the value at slot i if present.
func (s *Addressable[T]) Get(i uint) (T, bool) { return s.root.Get(i) }

// Ptr returns a pointer to the value at slot i, or nil if it is not present.
func (s *Addressable[T]) Ptr(i uint) *T { return s.root.Ptr(i) }

// Has reports whether slot i is present.
func (s *Addressable[T]) Has(i uint) bool { return s.root.Has(i) }

// Take removes and returns the value at slot i.
func (s *Addressable[T]) Take(i uint) (T, bool) {
	v, ok := s.root.Take(i)
	if ok {
		s.touch()
	}
	return v, ok
}

// Skip tombstones the slots of m.
func (s *Addressable[T]) Skip(m mask.Mask) {
	s.root.SkipAll(m)
	s.touch()
}

// Clear resets the slots of m to neither present nor absent.
func (s *Addressable[T]) Clear(m mask.Mask) {
	s.root.ClearAll(m)
	s.touch()
}

// Exclude records m in the roll-up absence mask. Excluded slots stay present
// but are hidden from ViewsLive.
func (s *Addressable[T]) Exclude(m mask.Mask) {
	s.root.Header.Absence = s.root.Header.Absence.Or(m)
	s.touch()
}

// Len returns the number of present values.
func (s *Addressable[T]) Len() int { return s.root.Count() }

// Presence returns the presence mask of the root.
func (s *Addressable[T]) Presence() mask.Mask { return s.root.Presence() }

// Views returns the runs of present slots.
func (s *Addressable[T]) Views() view.Runs[T] { return s.root.Views() }

// ViewsLive returns the runs of present slots that are not excluded.
func (s *Addressable[T]) ViewsLive() view.Runs[T] { return s.root.ViewsLive() }

// ViewsMut returns writable runs of present slots. The store clock is not
// advanced by edits made through the views.
func (s *Addressable[T]) ViewsMut() view.RunsMut[T] { return s.root.ViewsMut() }

// Bitmap exports the present slots as a roaring bitmap.
func (s *Addressable[T]) Bitmap() *roaring.Bitmap {
	rb := roaring.New()
	addRuns(rb, 0, s.root.Presence())
	return rb
}

// FilterMask returns the slots of rb that fall inside the store's range.
func (s *Addressable[T]) FilterMask(rb *roaring.Bitmap) mask.Mask {
	return FilterMask(rb, 0)
}

// Release destroys every present value and resets the store.
func (s *Addressable[T]) Release() {
	s.root.Release()
	s.touch()
}

// Alloc returns the arena the store allocates from.
func (s *Addressable[T]) Alloc() *arena.Arena { return s.alloc }

// FilterMask returns the IDs of rb in [base, base+mask.Width) as a mask
// relative to base.
func FilterMask(rb *roaring.Bitmap, base core.ID) mask.Mask {
	var m mask.Mask
	if rb == nil || rb.IsEmpty() {
		return m
	}

	it := rb.Iterator()
	it.AdvanceIfNeeded(uint32(base))
	for it.HasNext() {
		v := it.Next()
		if v >= uint32(base)+mask.Width {
			break
		}
		m = m.Or(mask.Bit(uint(v - uint32(base))))
	}
	return m
}

func addRuns(rb *roaring.Bitmap, base core.ID, m mask.Mask) {
	for start, run := range m.Runs() {
		lo := uint64(base) + uint64(start)
		rb.AddRange(lo, lo+uint64(run))
	}
}
