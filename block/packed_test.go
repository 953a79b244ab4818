package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/mask"
)

func packedValues[T any](p *Packed[T]) map[uint]T {
	out := map[uint]T{}
	for i, v := range p.Views().Values() {
		out[i] = v
	}
	return out
}

func TestPacked_Insert(t *testing.T) {
	p := NewPacked[string](arena.New(), 4)

	// out of order inserts land in slot order
	p.Insert(9, "nine")
	p.Insert(2, "two")
	p.Insert(5, "five")
	p.Insert(2, "TWO")

	assert.Equal(t, []string{"TWO", "five", "nine"}, p.Values())
	assert.Equal(t, mask.Of(2, 5, 9), p.Stored())
	assert.Equal(t, mask.Of(2, 5, 9), p.Presence())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 4, p.Header.Capacity)

	v, ok := p.Get(5)
	require.True(t, ok)
	assert.Equal(t, "five", v)

	_, ok = p.Get(6)
	assert.False(t, ok)
	assert.Nil(t, p.Ptr(6))
}

func TestPacked_Tombstones(t *testing.T) {
	p := NewPacked[int](nil, 0)
	for _, i := range []uint{1, 2, 3, 4, 70} {
		p.Insert(i, int(i)*10)
	}

	p.SkipAll(mask.Of(2, 70))
	assert.Equal(t, 5, p.Len(), "tombstones keep their storage")
	assert.Equal(t, map[uint]int{1: 10, 3: 30, 4: 40}, packedValues(p))

	_, ok := p.Get(2)
	assert.False(t, ok)

	// publishing a stored slot again restores it
	p.SetAll(mask.Of(2, 100))
	assert.Equal(t, mask.Of(1, 2, 3, 4), p.Presence())
	assert.Equal(t, mask.Of(70), p.Absence())
	assert.False(t, p.Has(100), "unstored slots cannot be published")

	assert.Equal(t, 1, p.Compact())
	assert.Equal(t, []int{10, 20, 30, 40}, p.Values())
	assert.Equal(t, mask.Of(1, 2, 3, 4), p.Stored())
	assert.Equal(t, 0, p.Compact())
}

func TestPacked_Remove(t *testing.T) {
	p := NewPacked[int](nil, 0)
	for _, i := range []uint{0, 5, 6} {
		p.Insert(i, int(i))
	}

	v, ok := p.Remove(5)
	require.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, []int{0, 6}, p.Values())
	assert.Equal(t, map[uint]int{0: 0, 6: 6}, packedValues(p))

	p.SkipAll(mask.Bit(6))
	_, ok = p.Remove(6)
	assert.False(t, ok, "tombstoned value is dropped, not returned")
	assert.Equal(t, mask.Empty, p.Absence())

	_, ok = p.Remove(99)
	assert.False(t, ok)
	assert.Equal(t, 1, p.Len())
}

func TestPacked_Release(t *testing.T) {
	var released int
	p := NewPacked[counted](nil, 8)
	p.Insert(3, counted{id: 3, released: &released})
	p.Insert(7, counted{id: 7, released: &released})
	p.Insert(8, counted{id: 8, released: &released})
	p.SkipAll(mask.Bit(8))

	p.Release()

	assert.Equal(t, 2, released)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, mask.Empty, p.Stored())
	assert.Equal(t, mask.Empty, p.Presence())
}

func TestPacked_InsertOverwriteReleases(t *testing.T) {
	var released int
	p := NewPacked[counted](nil, 0)
	p.Insert(3, counted{id: 1, released: &released})
	p.Insert(3, counted{id: 2, released: &released})
	assert.Equal(t, 1, released)

	// a tombstoned value was given up already
	p.SkipAll(mask.Bit(3))
	p.Insert(3, counted{id: 3, released: &released})
	assert.Equal(t, 1, released)

	v, ok := p.Get(3)
	require.True(t, ok)
	assert.Equal(t, 3, v.id)
	assert.Equal(t, 1, p.Len())
}

func TestPacked_SetAllIgnoresUnstored(t *testing.T) {
	p := NewPacked[int](nil, 0)
	p.Insert(2, 2)
	p.SkipAll(mask.Of(0, 2))

	p.SetAll(mask.Of(0, 2))
	assert.Equal(t, mask.Of(2), p.Presence())
	assert.Equal(t, mask.Empty, p.Absence())
}

func TestPacked_ViewsMut(t *testing.T) {
	p := NewPacked[int](nil, 0)
	for i := range uint(6) {
		p.Insert(i*2, int(i))
	}

	for v := range p.ViewsMut().And(mask.Of(4, 6)).All() {
		for k := range v.Len() {
			*v.Ptr(k) *= 100
		}
		v.SkipAll()
	}

	assert.Equal(t, []int{0, 1, 200, 300, 4, 5}, p.Values())
	assert.Equal(t, mask.Of(4, 6), p.Absence())
	assert.Equal(t, mask.Of(0, 2, 8, 10), p.Presence())
}
