package slotstore

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const exclusive = -1

// Cell guards a store with a runtime-checked borrow discipline: any number of
// shared borrows, or exactly one exclusive borrow.
//
// Borrows are not reentrant. A goroutine holding a shared borrow that asks for
// an exclusive one conflicts with itself.
type Cell[S any] struct {
	_ cpu.CacheLinePad
	// state counts shared borrows, or is -1 while borrowed exclusively.
	state atomic.Int32
	_     cpu.CacheLinePad

	name   string
	value  S
	report func(*BorrowError)
}

// NewCell creates a cell holding value. name identifies the cell in errors.
func NewCell[S any](name string, value S) *Cell[S] {
	return &Cell[S]{name: name, value: value}
}

// Name returns the name of the cell.
func (c *Cell[S]) Name() string { return c.name }

// State returns the number of shared borrows, or -1 while borrowed
// exclusively.
func (c *Cell[S]) State() int32 { return c.state.Load() }

func (c *Cell[S]) conflict(want Access, state int32) *BorrowError {
	err := &BorrowError{Store: c.name, Want: want, State: state}
	if c.report != nil {
		c.report(err)
	}
	return err
}

// TryBorrow acquires a shared borrow. The returned release function is safe
// to call more than once.
func (c *Cell[S]) TryBorrow() (S, func(), error) {
	for {
		s := c.state.Load()
		if s == exclusive {
			var zero S
			return zero, func() {}, c.conflict(Shared, s)
		}
		if c.state.CompareAndSwap(s, s+1) {
			return c.value, sync.OnceFunc(func() { c.state.Add(-1) }), nil
		}
	}
}

// TryBorrowMut acquires an exclusive borrow.
func (c *Cell[S]) TryBorrowMut() (S, func(), error) {
	for {
		s := c.state.Load()
		if s != 0 {
			var zero S
			return zero, func() {}, c.conflict(Exclusive, s)
		}
		if c.state.CompareAndSwap(0, exclusive) {
			return c.value, sync.OnceFunc(func() { c.state.Store(0) }), nil
		}
	}
}

// Borrow acquires a shared borrow. It panics with a *BorrowError if the cell
// is borrowed exclusively.
func (c *Cell[S]) Borrow() (S, func()) {
	v, release, err := c.TryBorrow()
	if err != nil {
		panic(err)
	}
	return v, release
}

// BorrowMut acquires an exclusive borrow. It panics with a *BorrowError if
// the cell is borrowed at all.
func (c *Cell[S]) BorrowMut() (S, func()) {
	v, release, err := c.TryBorrowMut()
	if err != nil {
		panic(err)
	}
	return v, release
}

// With runs fn under a shared borrow.
func (c *Cell[S]) With(fn func(S) error) error {
	v, release := c.Borrow()
	defer release()
	return fn(v)
}

// WithMut runs fn under an exclusive borrow.
func (c *Cell[S]) WithMut(fn func(S) error) error {
	v, release := c.BorrowMut()
	defer release()
	return fn(v)
}
