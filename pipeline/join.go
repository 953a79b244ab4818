package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/slotstore"
	"github.com/hupe1980/slotstore/core"
	"github.com/hupe1980/slotstore/store"
	"github.com/hupe1980/slotstore/view"
)

// Builder configures a stage before it is built.
type Builder struct {
	decl
	filters []Filter
	make    func(d decl, filters []Filter) Stage
}

func newBuilder(name string, reads, writes []string, mk func(decl, []Filter) Stage) *Builder {
	return &Builder{
		decl: decl{name: name, reads: reads, writes: writes},
		make: mk,
	}
}

// Named sets the stage name.
func (b *Builder) Named(name string) *Builder {
	b.name = name
	return b
}

// Before declares stages this stage must run before.
func (b *Builder) Before(names ...string) *Builder {
	b.before = append(b.before, names...)
	return b
}

// After declares stages this stage must run after.
func (b *Builder) After(names ...string) *Builder {
	b.after = append(b.after, names...)
	return b
}

// AnyOf keeps only slots present in at least one of the filters.
func (b *Builder) AnyOf(filters ...Filter) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

// Build returns the stage.
func (b *Builder) Build() Stage {
	d := b.decl
	d.reads = append(append([]string(nil), b.reads...), filterStores(b.filters)...)
	return b.make(d, append([]Filter(nil), b.filters...))
}

type visits struct {
	n atomic.Int64
}

// Visited implements Visitor.
func (v *visits) Visited() int { return int(v.n.Load()) }

// Join builds a stage that calls fn once per run of slots present in both the
// addressable store for A and the one for B. Both stores are borrowed shared.
func Join[A, B any](reg *slotstore.Registry, fn func(a view.View[A], b view.View[B])) *Builder {
	ca := slotstore.Addressable[A](reg)
	cb := slotstore.Addressable[B](reg)

	return newBuilder(
		fmt.Sprintf("join(%s, %s)", ca.Name(), cb.Name()),
		[]string{ca.Name(), cb.Name()}, nil,
		func(d decl, filters []Filter) Stage {
			return &joinStage[A, B]{decl: d, a: ca, b: cb, filters: filters, fn: fn}
		},
	)
}

type joinStage[A, B any] struct {
	decl
	visits
	a       *slotstore.Cell[*store.Addressable[A]]
	b       *slotstore.Cell[*store.Addressable[B]]
	filters []Filter
	fn      func(view.View[A], view.View[B])
}

func (s *joinStage[A, B]) Run(context.Context) error {
	a, ra := s.a.Borrow()
	defer ra()
	b, rb := s.b.Borrow()
	defer rb()

	x := view.Intersect(a.Views(), b.Views())
	if m, ok := anyOf(s.filters, 0); ok {
		x = x.And(m)
	}
	s.n.Store(int64(x.Count()))

	for va, vb := range x.All() {
		s.fn(va, vb)
	}
	return nil
}

// JoinMut is like Join but borrows the store for A exclusively and hands fn a
// writable view of it.
func JoinMut[A, B any](reg *slotstore.Registry, fn func(a view.MutView[A], b view.View[B])) *Builder {
	ca := slotstore.Addressable[A](reg)
	cb := slotstore.Addressable[B](reg)

	return newBuilder(
		fmt.Sprintf("join_mut(%s, %s)", ca.Name(), cb.Name()),
		[]string{cb.Name()}, []string{ca.Name()},
		func(d decl, filters []Filter) Stage {
			return &joinMutStage[A, B]{decl: d, a: ca, b: cb, filters: filters, fn: fn}
		},
	)
}

type joinMutStage[A, B any] struct {
	decl
	visits
	a       *slotstore.Cell[*store.Addressable[A]]
	b       *slotstore.Cell[*store.Addressable[B]]
	filters []Filter
	fn      func(view.MutView[A], view.View[B])
}

func (s *joinMutStage[A, B]) Run(context.Context) error {
	a, ra := s.a.BorrowMut()
	defer ra()
	b, rb := s.b.Borrow()
	defer rb()

	x := view.IntersectMut(a.ViewsMut(), b.Views())
	if m, ok := anyOf(s.filters, 0); ok {
		x = x.And(m)
	}
	s.n.Store(int64(x.Count()))

	for va, vb := range x.All() {
		s.fn(va, vb)
	}
	return nil
}

// JoinPacked builds a stage over the packed stores for A and B. fn receives
// the ID of slot 0 of the leaf each pair of views belongs to.
func JoinPacked[A, B any](reg *slotstore.Registry, fn func(base core.ID, a view.View[A], b view.View[B])) *Builder {
	ca := slotstore.Packed[A](reg)
	cb := slotstore.Packed[B](reg)

	return newBuilder(
		fmt.Sprintf("join_packed(%s, %s)", ca.Name(), cb.Name()),
		[]string{ca.Name(), cb.Name()}, nil,
		func(d decl, filters []Filter) Stage {
			return &packedJoinStage[A, B]{decl: d, a: ca, b: cb, filters: filters, fn: fn}
		},
	)
}

type packedJoinStage[A, B any] struct {
	decl
	visits
	a       *slotstore.Cell[*store.Packed[A]]
	b       *slotstore.Cell[*store.Packed[B]]
	filters []Filter
	fn      func(core.ID, view.View[A], view.View[B])
}

func (s *packedJoinStage[A, B]) Run(ctx context.Context) error {
	a, ra := s.a.Borrow()
	defer ra()
	b, rb := s.b.Borrow()
	defer rb()

	var visited int
	for base, x := range store.IntersectPacked(a, b) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m, ok := anyOf(s.filters, base); ok {
			x = x.And(m)
		}
		visited += x.Count()
		for va, vb := range x.All() {
			s.fn(base, va, vb)
		}
	}
	s.n.Store(int64(visited))
	return nil
}
