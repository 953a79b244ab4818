// Package view exposes runs of set bits as windows over a block's backing slice.
//
// Nothing in this package copies values. A View aliases the storage of the
// block it came from and stays valid until that block is mutated through a
// path that moves storage (packed Insert, Remove or Compact).
package view

import (
	"iter"

	"github.com/hupe1980/slotstore/mask"
)

// View is a read-only window over one run of slots.
type View[T any] struct {
	start uint
	data  []T
}

// Start returns the logical slot index of the first value.
func (v View[T]) Start() uint { return v.start }

// Len returns the number of values in the run.
func (v View[T]) Len() int { return len(v.data) }

// Slice returns the backing values. Callers must not modify them through a
// read-only view.
func (v View[T]) Slice() []T { return v.data }

// At returns the k-th value of the run.
func (v View[T]) At(k int) T { return v.data[k] }

// Mask returns the slots covered by the view.
func (v View[T]) Mask() mask.Mask { return mask.Span(v.start, uint(len(v.data))) }

// All iterates (slot, value) pairs of the run.
func (v View[T]) All() iter.Seq2[uint, T] {
	return func(yield func(uint, T) bool) {
		for k, x := range v.data {
			if !yield(v.start+uint(k), x) {
				return
			}
		}
	}
}

// Mutator is implemented by blocks that accept bulk presence edits.
type Mutator interface {
	SetAll(m mask.Mask)
	SkipAll(m mask.Mask)
	ClearAll(m mask.Mask)
}

// MutView is a writable window over one run. It remembers the run's mask and
// its owning block so presence edits can be committed for the whole run.
type MutView[T any] struct {
	View[T]
	owner Mutator
}

// Slice returns the backing values for in-place mutation.
func (v MutView[T]) Slice() []T { return v.data }

// Ptr returns a pointer to the k-th value of the run.
func (v MutView[T]) Ptr(k int) *T { return &v.data[k] }

// ReadOnly returns the read-only view over the same run.
func (v MutView[T]) ReadOnly() View[T] { return v.View }

// SetAll publishes every slot of the run.
func (v MutView[T]) SetAll() { v.owner.SetAll(v.Mask()) }

// SkipAll tombstones every slot of the run.
func (v MutView[T]) SkipAll() { v.owner.SkipAll(v.Mask()) }

// ClearAll resets every slot of the run to neither present nor absent.
func (v MutView[T]) ClearAll() { v.owner.ClearAll(v.Mask()) }
