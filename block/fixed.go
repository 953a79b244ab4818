package block

import (
	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/mask"
	"github.com/hupe1980/slotstore/view"
)

// Fixed is an addressable leaf: slot i lives at array position i.
//
// The presence mask is the only record of which slots hold a live value.
// Reads through Get, Ptr and the views never expose an unpublished slot.
type Fixed[T any] struct {
	Block[FixedHeader]
	slots [mask.Width]T
}

// NewFixed allocates an empty addressable leaf from a.
func NewFixed[T any](a *arena.Arena) *Fixed[T] {
	f := arena.Alloc[Fixed[T]](a)
	f.alloc = a
	return f
}

// Write stores v in slot i without publishing it. The slot becomes readable
// once it is published with SetAll. A present value being overwritten is
// released first; the slot keeps its presence bit.
func (f *Fixed[T]) Write(i uint, v T) {
	if f.presence.Has(i) {
		releaseValues(f.slots[i : i+1])
	}
	f.slots[i] = v
}

// Put stores v in slot i and publishes it.
func (f *Fixed[T]) Put(i uint, v T) {
	f.Write(i, v)
	f.SetAll(mask.Bit(i))
}

// Get returns the value in slot i if it is present.
func (f *Fixed[T]) Get(i uint) (T, bool) {
	if !f.Has(i) {
		var zero T
		return zero, false
	}
	return f.slots[i], true
}

// Ptr returns a pointer to the value in slot i, or nil if it is not present.
func (f *Fixed[T]) Ptr(i uint) *T {
	if !f.Has(i) {
		return nil
	}
	return &f.slots[i]
}

// Take moves the value out of slot i and clears the slot. The release hook is
// not called; ownership passes to the caller.
func (f *Fixed[T]) Take(i uint) (T, bool) {
	v, ok := f.Get(i)
	if ok {
		var zero T
		f.slots[i] = zero
		f.ClearAll(mask.Bit(i))
	}
	return v, ok
}

// Rollup returns the roll-up absence mask.
func (f *Fixed[T]) Rollup() mask.Mask { return f.Header.Absence }

// Release destroys every present value exactly once and resets the block.
// Values are walked as maximal runs of the presence mask.
func (f *Fixed[T]) Release() {
	for start, run := range f.presence.Runs() {
		releaseValues(f.slots[start : start+run])
	}
	f.ClearAll(mask.Full)
	f.Header.Absence = mask.Empty
}

// Views returns the runs of present slots.
func (f *Fixed[T]) Views() view.Runs[T] {
	return view.NewRuns(f.slots[:], f.presence)
}

// ViewsLive returns the runs of present slots not excluded by the roll-up
// absence mask.
func (f *Fixed[T]) ViewsLive() view.Runs[T] {
	return view.NewRuns(f.slots[:], f.presence.AndNot(f.Header.Absence))
}

// ViewsMut returns writable runs of present slots.
func (f *Fixed[T]) ViewsMut() view.RunsMut[T] {
	return view.NewRunsMut(f.slots[:], f.presence, f)
}
