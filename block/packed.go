package block

import (
	"slices"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/mask"
	"github.com/hupe1980/slotstore/view"
)

// Packed is a dense leaf. Values are stored contiguously in slot order: the
// value of slot i sits at the rank of i among the stored slots.
//
// Presence is always a subset of the stored slots. SkipAll and ClearAll leave
// storage in place; Compact drops stored values that are no longer present.
type Packed[T any] struct {
	Block[PackedHeader]
	stored mask.Mask
	values []T
}

// NewPacked allocates an empty packed leaf from a with room for capacity
// values.
func NewPacked[T any](a *arena.Arena, capacity int) *Packed[T] {
	p := arena.Alloc[Packed[T]](a)
	p.alloc = a
	p.Header.Capacity = capacity
	if capacity > 0 {
		p.values = arena.MakeSlice[T](a, 0, min(capacity, mask.Width))
	}
	return p
}

// Insert stores v for slot i and publishes it. A stored slot is overwritten in
// place, releasing the previous value if it was present; a new slot is
// inserted at its rank.
func (p *Packed[T]) Insert(i uint, v T) {
	bit := mask.Bit(i)
	k := p.stored.Rank(i)
	if p.stored.Intersects(bit) {
		if p.presence.Intersects(bit) {
			releaseValues(p.values[k : k+1])
		}
		p.values[k] = v
	} else {
		p.values = arena.Insert(p.alloc, p.values, k, v)
		p.stored = p.stored.Or(bit)
	}
	p.Block.SetAll(bit)
}

// SetAll publishes the stored slots of m and clears the absence bits of all
// of m. Bits of m that hold no stored value are ignored for presence, so a
// slot can only be published after Insert. Storage is never moved.
func (p *Packed[T]) SetAll(m mask.Mask) {
	p.Block.SetAll(m.And(p.stored))
	p.absence = p.absence.AndNot(m)
}

// Get returns the value of slot i if it is present.
func (p *Packed[T]) Get(i uint) (T, bool) {
	if !p.Has(i) {
		var zero T
		return zero, false
	}
	return p.values[p.stored.Rank(i)], true
}

// Ptr returns a pointer to the value of slot i, or nil if it is not present.
func (p *Packed[T]) Ptr(i uint) *T {
	if !p.Has(i) {
		return nil
	}
	return &p.values[p.stored.Rank(i)]
}

// Remove drops slot i from storage and returns its value if it was present.
// Later values shift down by one.
func (p *Packed[T]) Remove(i uint) (T, bool) {
	var zero T
	bit := mask.Bit(i)
	if !p.stored.Intersects(bit) {
		p.ClearAll(bit)
		return zero, false
	}

	k := p.stored.Rank(i)
	v, present := p.values[k], p.Has(i)
	p.values = slices.Delete(p.values, k, k+1)
	p.stored = p.stored.AndNot(bit)
	p.ClearAll(bit)

	if !present {
		return zero, false
	}
	return v, true
}

// Stored returns the mask of slots that occupy storage.
func (p *Packed[T]) Stored() mask.Mask { return p.stored }

// Len returns the number of stored values, tombstones included.
func (p *Packed[T]) Len() int { return len(p.values) }

// Values returns the backing slice in slot order.
func (p *Packed[T]) Values() []T { return p.values }

// Compact drops stored values whose slots are no longer present and returns
// how many were dropped.
func (p *Packed[T]) Compact() int {
	dead := p.stored.AndNot(p.presence)
	if dead.IsZero() {
		return 0
	}

	n, k := 0, 0
	for i := range p.stored.Ones() {
		if p.presence.Has(i) {
			p.values[n] = p.values[k]
			n++
		}
		k++
	}
	clear(p.values[n:])
	p.values = p.values[:n]
	p.stored = p.presence
	return dead.Count()
}

// Rollup returns the empty mask; packed blocks do not track roll-up absence.
func (p *Packed[T]) Rollup() mask.Mask { return mask.Empty }

// Release destroys every present value exactly once and resets the block.
func (p *Packed[T]) Release() {
	for v := range p.Views().All() {
		releaseValues(v.Slice())
	}
	clear(p.values)
	p.values = p.values[:0]
	p.stored = mask.Empty
	p.ClearAll(mask.Full)
}

// Views returns the runs of present slots.
func (p *Packed[T]) Views() view.Runs[T] {
	return view.NewPackedRuns(p.values, p.presence, p.stored)
}

// ViewsMut returns writable runs of present slots.
func (p *Packed[T]) ViewsMut() view.RunsMut[T] {
	return view.NewPackedRunsMut(p.values, p.presence, p.stored, p)
}
