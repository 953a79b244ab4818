package block

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/mask"
)

func TestFixedNode_Recompute(t *testing.T) {
	faker := gofakeit.New(99)
	n := NewFixedNode[*Fixed[int]](arena.New())

	var (
		presence [mask.Width]mask.Mask
		rollup   [mask.Width]mask.Mask
	)
	for i := range uint(mask.Width) {
		leaf := n.ChildOrInit(i, NewFixed[int])
		p := mask.FromWords(faker.Uint64(), faker.Uint64())
		leaf.SetAll(p)
		presence[i] = p
		if i%3 == 0 {
			r := mask.FromWords(faker.Uint64()&faker.Uint64(), 0)
			leaf.Header.Absence = r
			rollup[i] = r
		}
	}

	refresh := mask.FromWords(faker.Uint64(), faker.Uint64())
	n.Recompute(refresh)

	var wantSelected, wantSkip mask.Mask
	for i := range refresh.Ones() {
		wantSelected = wantSelected.Or(presence[i])
		wantSkip = wantSkip.Or(rollup[i])
	}
	assert.Equal(t, wantSkip, n.Rollup())
	assert.Equal(t, wantSelected.AndNot(wantSkip), n.Presence())
	assert.True(t, n.Presence().And(n.Absence()).IsZero())
}

func TestFixedNode_RecomputePlain(t *testing.T) {
	n := NewFixedNode[*Fixed[int]](nil)
	a := n.ChildOrInit(0, NewFixed[int])
	b := n.ChildOrInit(5, NewFixed[int])
	a.SetAll(mask.Of(1, 2))
	b.SetAll(mask.Of(2, 90))

	n.Recompute(n.Owned())
	assert.Equal(t, mask.Of(1, 2, 90), n.Presence())

	n.Recompute(mask.Bit(5))
	assert.Equal(t, mask.Of(2, 90), n.Presence())

	n.Recompute(mask.Empty)
	assert.Equal(t, mask.Empty, n.Presence())
}

func TestFixedNode_Ownership(t *testing.T) {
	var released int
	n := NewFixedNode[*Fixed[counted]](nil)

	leaf := n.ChildOrInit(4, NewFixed[counted])
	leaf.Put(1, counted{released: &released})
	assert.Same(t, leaf, n.ChildOrInit(4, NewFixed[counted]))
	assert.Equal(t, 1, n.Len())
	assert.Equal(t, mask.Of(4), n.Owned())

	// replacing a child releases the old one
	repl := NewFixed[counted](nil)
	repl.Put(2, counted{released: &released})
	n.Attach(4, repl)
	assert.Equal(t, 1, released)

	other := n.ChildOrInit(9, NewFixed[counted])
	other.Put(0, counted{released: &released})
	n.Recompute(n.Owned())
	require.True(t, n.Has(2))

	got, ok := n.Detach(9)
	require.True(t, ok)
	assert.Same(t, other, got)
	_, ok = n.Child(9)
	assert.False(t, ok)

	n.Release()
	assert.Equal(t, 2, released, "detached child is not released by its old parent")
	assert.Equal(t, 0, n.Len())
	assert.Equal(t, mask.Empty, n.Presence())

	other.Release()
	assert.Equal(t, 3, released)
}

func TestFixedNode_Nested(t *testing.T) {
	var released int
	root := NewFixedNode[*FixedNode[*Fixed[counted]]](nil)
	mid := root.ChildOrInit(1, NewFixedNode[*Fixed[counted]])
	leaf := mid.ChildOrInit(2, NewFixed[counted])
	leaf.Put(3, counted{released: &released})
	leaf.Put(7, counted{released: &released})

	mid.Recompute(mid.Owned())
	root.Recompute(root.Owned())
	assert.Equal(t, mask.Of(3, 7), root.Presence())

	root.Release()
	assert.Equal(t, 2, released)
}

func TestPackedNode(t *testing.T) {
	n := NewPackedNode[*Packed[int]](nil)

	c9 := n.ChildOrInit(9, func(a *arena.Arena) *Packed[int] { return NewPacked[int](a, 0) })
	c2 := n.ChildOrInit(2, func(a *arena.Arena) *Packed[int] { return NewPacked[int](a, 0) })
	c9.Insert(1, 1)
	c2.Insert(0, 0)
	c2.Insert(5, 5)

	got, ok := n.Child(9)
	require.True(t, ok)
	assert.Same(t, c9, got)
	assert.Equal(t, 2, n.Len())

	var slots []uint
	for i := range n.Children() {
		slots = append(slots, i)
	}
	assert.Equal(t, []uint{2, 9}, slots)

	n.Recompute(n.Owned())
	assert.Equal(t, mask.Of(0, 1, 5), n.Presence())
	assert.Equal(t, mask.Empty, n.Rollup())

	_, ok = n.Detach(2)
	require.True(t, ok)
	got, ok = n.Child(9)
	require.True(t, ok)
	assert.Same(t, c9, got)

	n.Recompute(n.Owned())
	assert.Equal(t, mask.Of(1), n.Presence())

	n.Recompute(mask.Bit(2))
	assert.Equal(t, mask.Empty, n.Presence())
}

func TestPackedNode_RecomputeSingleChild(t *testing.T) {
	n := NewPackedNode[*Packed[int]](nil)
	c := n.ChildOrInit(0, func(a *arena.Arena) *Packed[int] { return NewPacked[int](a, 0) })
	c.Insert(3, 3)
	c.Insert(40, 40)

	n.Recompute(mask.Full)
	assert.Equal(t, mask.Of(3, 40), n.Presence())
}

func TestPackedNode_RecomputeAggregation(t *testing.T) {
	faker := gofakeit.New(7)
	n := NewPackedNode[*Packed[int]](nil)

	var presence [mask.Width]mask.Mask
	for _, i := range []uint{1, 9, 64, 100, 127} {
		c := n.ChildOrInit(i, func(a *arena.Arena) *Packed[int] { return NewPacked[int](a, 0) })
		for range 6 {
			slot := uint(faker.Number(0, mask.Width-1))
			c.Insert(slot, int(slot))
			presence[i] = presence[i].Or(mask.Bit(slot))
		}
	}

	refresh := mask.Of(1, 64, 127, 50)
	n.Recompute(refresh)

	want := mask.Union(presence[1], presence[64], presence[127])
	assert.Equal(t, want, n.Presence())
}

func TestPackedNode_FullWidth(t *testing.T) {
	n := NewPackedNode[*Packed[int]](nil)
	for i := range uint(mask.Width) {
		c := n.ChildOrInit(i, func(a *arena.Arena) *Packed[int] { return NewPacked[int](a, 0) })
		c.Insert(i, int(i))
	}

	n.Recompute(mask.Full)
	assert.Equal(t, mask.Full, n.Presence())
}

func TestPackedNode_Release(t *testing.T) {
	var released int
	n := NewPackedNode[*Packed[counted]](nil)
	for _, i := range []uint{3, 1, 2} {
		c := NewPacked[counted](nil, 0)
		c.Insert(i, counted{released: &released})
		n.Attach(i, c)
	}

	n.Release()
	assert.Equal(t, 3, released)
	assert.Equal(t, 0, n.Len())
	assert.Equal(t, mask.Empty, n.Owned())
}
