package store

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/block"
	"github.com/hupe1980/slotstore/core"
	"github.com/hupe1980/slotstore/mask"
	"github.com/hupe1980/slotstore/view"
)

// DefaultLeafCapacity is the initial value capacity of a packed leaf.
const DefaultLeafCapacity = 16

// Packed is a three-level trie of packed blocks addressing core.Capacity IDs.
//
// Interior nodes own their children densely; a path is created on first
// insert and pruned when its leaf becomes empty.
type Packed[T any] struct {
	root    *block.PackedNode[*block.PackedNode[*block.Packed[T]]]
	alloc   *arena.Arena
	leafCap int
	clock   core.Tick
}

// NewPacked creates an empty packed store. leafCapacity <= 0 selects
// DefaultLeafCapacity.
func NewPacked[T any](a *arena.Arena, leafCapacity int) *Packed[T] {
	if leafCapacity <= 0 {
		leafCapacity = DefaultLeafCapacity
	}
	return &Packed[T]{
		root:    block.NewPackedNode[*block.PackedNode[*block.Packed[T]]](a),
		alloc:   a,
		leafCap: leafCapacity,
	}
}

// Clock returns the tick of the last mutation.
func (s *Packed[T]) Clock() core.Tick { return s.clock }

// Alloc returns the arena the store allocates from.
func (s *Packed[T]) Alloc() *arena.Arena { return s.alloc }

func (s *Packed[T]) tick() core.Tick {
	s.clock = s.clock.Next()
	return s.clock
}

func (s *Packed[T]) newMid(a *arena.Arena) *block.PackedNode[*block.Packed[T]] {
	return block.NewPackedNode[*block.Packed[T]](a)
}

func (s *Packed[T]) newLeaf(a *arena.Arena) *block.Packed[T] {
	return block.NewPacked[T](a, s.leafCap)
}

func (s *Packed[T]) lookup(id core.ID) (*block.Packed[T], uint) {
	hi, m, lo := core.Split(id)
	n, ok := s.root.Child(hi)
	if !ok {
		return nil, lo
	}
	l, ok := n.Child(m)
	if !ok {
		return nil, lo
	}
	return l, lo
}

// refresh recomputes the interior nodes above a touched leaf bottom-up.
func (s *Packed[T]) refresh(n *block.PackedNode[*block.Packed[T]], t core.Tick) {
	n.Recompute(n.Owned())
	n.MarkChanged(t)
	s.root.Recompute(s.root.Owned())
	s.root.MarkChanged(t)
}

// Insert stores v under id and publishes it.
func (s *Packed[T]) Insert(id core.ID, v T) {
	hi, m, lo := core.Split(id)
	n := s.root.ChildOrInit(hi, s.newMid)
	l := n.ChildOrInit(m, s.newLeaf)
	l.Insert(lo, v)

	t := s.tick()
	l.MarkChanged(t)
	s.refresh(n, t)
}

// Get returns the value stored under id if present.
func (s *Packed[T]) Get(id core.ID) (T, bool) {
	l, lo := s.lookup(id)
	if l == nil {
		var zero T
		return zero, false
	}
	return l.Get(lo)
}

// Ptr returns a pointer to the value stored under id, or nil.
func (s *Packed[T]) Ptr(id core.ID) *T {
	l, lo := s.lookup(id)
	if l == nil {
		return nil
	}
	return l.Ptr(lo)
}

// Has reports whether id is present.
func (s *Packed[T]) Has(id core.ID) bool {
	l, lo := s.lookup(id)
	return l != nil && l.Has(lo)
}

// Remove drops id from storage and returns its value if it was present.
// Empty leaves and interior nodes are pruned.
func (s *Packed[T]) Remove(id core.ID) (T, bool) {
	hi, m, lo := core.Split(id)
	n, ok := s.root.Child(hi)
	if !ok {
		var zero T
		return zero, false
	}
	l, ok := n.Child(m)
	if !ok {
		var zero T
		return zero, false
	}

	v, ok := l.Remove(lo)
	t := s.tick()
	l.MarkChanged(t)
	if l.Len() == 0 {
		n.Detach(m)
		if n.Len() == 0 {
			s.root.Detach(hi)
		}
	}
	s.refresh(n, t)
	return v, ok
}

// Leaf returns the leaf holding id, or nil.
func (s *Packed[T]) Leaf(id core.ID) *block.Packed[T] {
	l, _ := s.lookup(id)
	return l
}

// LeafPresence returns the presence mask of the leaf holding id.
func (s *Packed[T]) LeafPresence(id core.ID) mask.Mask {
	if l := s.Leaf(id); l != nil {
		return l.Presence()
	}
	return mask.Empty
}

// Skip tombstones id without releasing its storage and recomputes the
// interior nodes above it.
func (s *Packed[T]) Skip(id core.ID) {
	hi, m, lo := core.Split(id)
	n, ok := s.root.Child(hi)
	if !ok {
		return
	}
	l, ok := n.Child(m)
	if !ok {
		return
	}

	l.SkipAll(mask.Bit(lo))
	t := s.tick()
	l.MarkChanged(t)
	s.refresh(n, t)
}

// Len returns the number of present values.
func (s *Packed[T]) Len() int {
	var n int
	for _, l := range s.Leaves() {
		n += l.Count()
	}
	return n
}

// Leaves iterates the leaves in ascending ID order, each with the ID of its
// slot 0.
func (s *Packed[T]) Leaves() iter.Seq2[core.ID, *block.Packed[T]] {
	return func(yield func(core.ID, *block.Packed[T]) bool) {
		for hi, n := range s.root.Children() {
			for m, l := range n.Children() {
				if !yield(core.Join(hi, m, 0), l) {
					return
				}
			}
		}
	}
}

// Values iterates (id, value) pairs of present values in ascending ID order.
func (s *Packed[T]) Values() iter.Seq2[core.ID, T] {
	return func(yield func(core.ID, T) bool) {
		for base, l := range s.Leaves() {
			for i, v := range l.Views().Values() {
				if !yield(base+core.ID(i), v) {
					return
				}
			}
		}
	}
}

// Bitmap exports the present IDs as a roaring bitmap.
func (s *Packed[T]) Bitmap() *roaring.Bitmap {
	rb := roaring.New()
	for base, l := range s.Leaves() {
		addRuns(rb, base, l.Presence())
	}
	return rb
}

// Compact reclaims the storage of tombstoned values and returns how many were
// dropped.
func (s *Packed[T]) Compact() int {
	var dropped int
	for _, l := range s.Leaves() {
		dropped += l.Compact()
	}
	if dropped > 0 {
		s.tick()
	}
	return dropped
}

// Release destroys every present value and resets the store.
func (s *Packed[T]) Release() {
	s.root.Release()
	s.tick()
}

// IntersectPacked walks the leaves owned by both stores and yields the
// intersection of each leaf pair with the ID of the leaves' slot 0.
func IntersectPacked[A, B any](a *Packed[A], b *Packed[B]) iter.Seq2[core.ID, view.Intersection[A, B]] {
	return func(yield func(core.ID, view.Intersection[A, B]) bool) {
		for hi := range a.root.Owned().And(b.root.Owned()).Ones() {
			na, _ := a.root.Child(hi)
			nb, _ := b.root.Child(hi)
			for m := range na.Owned().And(nb.Owned()).Ones() {
				la, _ := na.Child(m)
				lb, _ := nb.Child(m)
				x := view.Intersect(la.Views(), lb.Views())
				if x.Mask().IsZero() {
					continue
				}
				if !yield(core.Join(hi, m, 0), x) {
					return
				}
			}
		}
	}
}
