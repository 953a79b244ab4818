package view

import (
	"iter"

	"github.com/hupe1980/slotstore/mask"
)

// Intersection co-iterates two run sources over the AND of their masks. Each
// yielded pair covers the same logical slots and indexes its own side's
// backing slice.
type Intersection[A, B any] struct {
	a source[A]
	b source[B]
	m mask.Mask
}

// Intersect returns the intersection of a and b.
func Intersect[A, B any](a Runs[A], b Runs[B]) Intersection[A, B] {
	return Intersection[A, B]{a: a.src, b: b.src, m: a.m.And(b.m)}
}

// And refines the intersection. Passing mask.Union of further presence masks
// keeps only slots present in at least one of them.
func (x Intersection[A, B]) And(m mask.Mask) Intersection[A, B] {
	x.m = x.m.And(m)
	return x
}

// AndNot drops the slots of m from the intersection.
func (x Intersection[A, B]) AndNot(m mask.Mask) Intersection[A, B] {
	x.m = x.m.AndNot(m)
	return x
}

// Mask returns the working mask.
func (x Intersection[A, B]) Mask() mask.Mask { return x.m }

// Count returns the number of slots in the intersection.
func (x Intersection[A, B]) Count() int { return x.m.Count() }

// All iterates paired views in ascending slot order.
func (x Intersection[A, B]) All() iter.Seq2[View[A], View[B]] {
	return func(yield func(View[A], View[B]) bool) {
		for start, run := range x.m.Runs() {
			if !yield(x.a.window(start, run), x.b.window(start, run)) {
				return
			}
		}
	}
}

// IntersectionMut pairs a writable source with a read-only one.
type IntersectionMut[A, B any] struct {
	Intersection[A, B]
	owner Mutator
}

// IntersectMut returns the intersection of a writable source a and b.
func IntersectMut[A, B any](a RunsMut[A], b Runs[B]) IntersectionMut[A, B] {
	return IntersectionMut[A, B]{Intersection: Intersect(a.Runs, b), owner: a.owner}
}

// And refines the intersection.
func (x IntersectionMut[A, B]) And(m mask.Mask) IntersectionMut[A, B] {
	x.Intersection = x.Intersection.And(m)
	return x
}

// All iterates paired views in ascending slot order.
func (x IntersectionMut[A, B]) All() iter.Seq2[MutView[A], View[B]] {
	return func(yield func(MutView[A], View[B]) bool) {
		for start, run := range x.m.Runs() {
			a := MutView[A]{View: x.a.window(start, run), owner: x.owner}
			if !yield(a, x.b.window(start, run)) {
				return
			}
		}
	}
}
