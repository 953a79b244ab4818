package block

import (
	"iter"
	"slices"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/mask"
)

// FixedNode is an addressable interior node: child i lives at position i.
// The node exclusively owns its children and releases them with itself.
type FixedNode[C Child] struct {
	Block[FixedHeader]
	owned    mask.Mask
	children [mask.Width]C
}

// NewFixedNode allocates an empty addressable interior node from a.
func NewFixedNode[C Child](a *arena.Arena) *FixedNode[C] {
	n := arena.Alloc[FixedNode[C]](a)
	n.alloc = a
	return n
}

// Attach makes c the child at slot i. A previous child at i is released.
func (n *FixedNode[C]) Attach(i uint, c C) {
	bit := mask.Bit(i)
	if n.owned.Intersects(bit) {
		n.children[i].Release()
	}
	n.children[i] = c
	n.owned = n.owned.Or(bit)
}

// Child returns the child at slot i.
func (n *FixedNode[C]) Child(i uint) (C, bool) {
	if !n.owned.Has(i) {
		var zero C
		return zero, false
	}
	return n.children[i], true
}

// ChildOrInit returns the child at slot i, attaching init(arena) first if
// there is none.
func (n *FixedNode[C]) ChildOrInit(i uint, init func(*arena.Arena) C) C {
	if c, ok := n.Child(i); ok {
		return c
	}
	c := init(n.alloc)
	n.Attach(i, c)
	return c
}

// Detach gives up ownership of the child at slot i and clears its bits.
func (n *FixedNode[C]) Detach(i uint) (C, bool) {
	c, ok := n.Child(i)
	if ok {
		var zero C
		n.children[i] = zero
		n.owned = n.owned.AndNot(mask.Bit(i))
		n.ClearAll(mask.Bit(i))
	}
	return c, ok
}

// Owned returns the mask of slots holding a child.
func (n *FixedNode[C]) Owned() mask.Mask { return n.owned }

// Len returns the number of children.
func (n *FixedNode[C]) Len() int { return n.owned.Count() }

// Children iterates (slot, child) pairs in ascending slot order.
func (n *FixedNode[C]) Children() iter.Seq2[uint, C] {
	return func(yield func(uint, C) bool) {
		for i := range n.owned.Ones() {
			if !yield(i, n.children[i]) {
				return
			}
		}
	}
}

// Recompute rolls the masks of the children selected by refresh up into the
// node: the roll-up absence becomes the OR of their roll-ups and presence the
// OR of their presence, minus that roll-up.
func (n *FixedNode[C]) Recompute(refresh mask.Mask) {
	var selected, skip mask.Mask
	for i := range refresh.And(n.owned).Ones() {
		c := n.children[i]
		selected = selected.Or(c.Presence())
		skip = skip.Or(c.Rollup())
	}
	n.Header.Absence = skip
	n.assign(selected.AndNot(skip))
}

// Rollup returns the roll-up absence mask.
func (n *FixedNode[C]) Rollup() mask.Mask { return n.Header.Absence }

// Release releases every owned child and resets the node.
func (n *FixedNode[C]) Release() {
	var zero C
	for i := range n.owned.Ones() {
		n.children[i].Release()
		n.children[i] = zero
	}
	n.owned = mask.Empty
	n.ClearAll(mask.Full)
	n.Header.Absence = mask.Empty
}

// PackedNode is a packed interior node: children are stored densely in slot
// order, the child of slot i at the rank of i among the owned slots.
type PackedNode[C Child] struct {
	Block[PackedHeader]
	owned    mask.Mask
	children []C
}

// NewPackedNode allocates an empty packed interior node from a.
func NewPackedNode[C Child](a *arena.Arena) *PackedNode[C] {
	n := arena.Alloc[PackedNode[C]](a)
	n.alloc = a
	return n
}

// Attach makes c the child at slot i. A previous child at i is released.
func (n *PackedNode[C]) Attach(i uint, c C) {
	bit := mask.Bit(i)
	k := n.owned.Rank(i)
	if n.owned.Intersects(bit) {
		n.children[k].Release()
		n.children[k] = c
		return
	}
	n.children = arena.Insert(n.alloc, n.children, k, c)
	n.owned = n.owned.Or(bit)
}

// Child returns the child at slot i.
func (n *PackedNode[C]) Child(i uint) (C, bool) {
	if !n.owned.Has(i) {
		var zero C
		return zero, false
	}
	return n.children[n.owned.Rank(i)], true
}

// ChildOrInit returns the child at slot i, attaching init(arena) first if
// there is none.
func (n *PackedNode[C]) ChildOrInit(i uint, init func(*arena.Arena) C) C {
	if c, ok := n.Child(i); ok {
		return c
	}
	c := init(n.alloc)
	n.Attach(i, c)
	return c
}

// Detach gives up ownership of the child at slot i and clears its bits.
func (n *PackedNode[C]) Detach(i uint) (C, bool) {
	c, ok := n.Child(i)
	if ok {
		k := n.owned.Rank(i)
		n.children = slices.Delete(n.children, k, k+1)
		n.owned = n.owned.AndNot(mask.Bit(i))
		n.ClearAll(mask.Bit(i))
	}
	return c, ok
}

// Owned returns the mask of slots holding a child.
func (n *PackedNode[C]) Owned() mask.Mask { return n.owned }

// Len returns the number of children.
func (n *PackedNode[C]) Len() int { return len(n.children) }

// Children iterates (slot, child) pairs in ascending slot order.
func (n *PackedNode[C]) Children() iter.Seq2[uint, C] {
	return func(yield func(uint, C) bool) {
		k := 0
		for i := range n.owned.Ones() {
			if !yield(i, n.children[k]) {
				return
			}
			k++
		}
	}
}

// Recompute sets presence to the OR of the presence of the children selected
// by refresh. Slots of refresh without a child are ignored.
func (n *PackedNode[C]) Recompute(refresh mask.Mask) {
	var selected mask.Mask
	k := 0
	for i := range n.owned.Ones() {
		if refresh.Has(i) {
			selected = selected.Or(n.children[k].Presence())
		}
		k++
	}
	n.assign(selected)
}

// Rollup returns the empty mask; packed nodes do not track roll-up absence.
func (n *PackedNode[C]) Rollup() mask.Mask { return mask.Empty }

// Release releases every owned child and resets the node.
func (n *PackedNode[C]) Release() {
	for _, c := range n.children {
		c.Release()
	}
	clear(n.children)
	n.children = n.children[:0]
	n.owned = mask.Empty
	n.ClearAll(mask.Full)
}
