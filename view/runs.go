package view

import (
	"iter"

	"github.com/hupe1980/slotstore/mask"
)

// source maps logical runs onto a backing slice.
//
// An addressable source indexes data by slot. A packed source indexes data by
// the rank of the slot among the stored slots, so each source advances its own
// physical cursor regardless of how other sources are compacted.
type source[T any] struct {
	data   []T
	stored mask.Mask
	packed bool
}

func (s source[T]) window(start, run uint) View[T] {
	off := int(start)
	if s.packed {
		off = s.stored.Rank(start)
	}
	return View[T]{start: start, data: s.data[off : off+int(run) : off+int(run)]}
}

// Runs is a lazy, restartable sequence of views over the maximal runs of a
// mask. The zero value yields nothing.
type Runs[T any] struct {
	src source[T]
	m   mask.Mask
}

// NewRuns returns the runs of m over an addressable slice where slot i lives at
// data[i]. data must cover every set bit of m.
func NewRuns[T any](data []T, m mask.Mask) Runs[T] {
	return Runs[T]{src: source[T]{data: data}, m: m}
}

// NewPackedRuns returns the runs of m over a packed slice where slot i lives at
// data[stored.Rank(i)]. Bits of m outside stored are ignored.
func NewPackedRuns[T any](data []T, m, stored mask.Mask) Runs[T] {
	return Runs[T]{
		src: source[T]{data: data, stored: stored, packed: true},
		m:   m.And(stored),
	}
}

// And refines the runs with an additional mask.
func (r Runs[T]) And(m mask.Mask) Runs[T] {
	r.m = r.m.And(m)
	return r
}

// Mask returns the working mask.
func (r Runs[T]) Mask() mask.Mask { return r.m }

// Count returns the number of slots the runs cover.
func (r Runs[T]) Count() int { return r.m.Count() }

// All iterates the views in ascending slot order.
func (r Runs[T]) All() iter.Seq[View[T]] {
	return func(yield func(View[T]) bool) {
		for start, run := range r.m.Runs() {
			if !yield(r.src.window(start, run)) {
				return
			}
		}
	}
}

// Values iterates (slot, value) pairs across all runs.
func (r Runs[T]) Values() iter.Seq2[uint, T] {
	return func(yield func(uint, T) bool) {
		for v := range r.All() {
			for i, x := range v.All() {
				if !yield(i, x) {
					return
				}
			}
		}
	}
}

// RunsMut is the writable counterpart of Runs.
type RunsMut[T any] struct {
	Runs[T]
	owner Mutator
}

// NewRunsMut returns writable runs of m over an addressable slice.
func NewRunsMut[T any](data []T, m mask.Mask, owner Mutator) RunsMut[T] {
	return RunsMut[T]{Runs: NewRuns(data, m), owner: owner}
}

// NewPackedRunsMut returns writable runs of m over a packed slice.
func NewPackedRunsMut[T any](data []T, m, stored mask.Mask, owner Mutator) RunsMut[T] {
	return RunsMut[T]{Runs: NewPackedRuns(data, m, stored), owner: owner}
}

// And refines the runs with an additional mask.
func (r RunsMut[T]) And(m mask.Mask) RunsMut[T] {
	r.Runs = r.Runs.And(m)
	return r
}

// All iterates the writable views in ascending slot order. Presence edits made
// through a view do not affect the runs still to be yielded.
func (r RunsMut[T]) All() iter.Seq[MutView[T]] {
	return func(yield func(MutView[T]) bool) {
		for start, run := range r.m.Runs() {
			if !yield(MutView[T]{View: r.src.window(start, run), owner: r.owner}) {
				return
			}
		}
	}
}
