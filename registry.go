package slotstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/store"
)

const (
	kindAddressable = "addressable"
	kindPacked      = "packed"
)

type storeKey struct {
	kind string
	typ  reflect.Type
}

type entry struct {
	cell    any
	name    string
	release func() error
}

// Registry holds one store per value type and kind. Stores are created on
// first request and handed out behind borrow-checked cells.
//
// Registry methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	opts    options
	arena   *arena.Arena
	owns    bool
	entries map[storeKey]*entry
	order   []*entry
	closed  bool
}

// New creates an empty Registry. Unless WithArena is given, the registry
// creates an arena that every store shares and frees it on Close.
func New(optFns ...Option) *Registry {
	o := applyOptions(optFns)

	r := &Registry{
		opts:    o,
		entries: make(map[storeKey]*entry),
	}
	if o.arenaSet {
		r.arena = o.arena
	} else {
		r.arena = arena.New(arena.WithChunkSize(o.arenaChunkSize))
		r.owns = true
	}
	return r
}

// Arena returns the arena shared by the registry's stores.
func (r *Registry) Arena() *arena.Arena { return r.arena }

// Logger returns the registry logger.
func (r *Registry) Logger() *Logger { return r.opts.logger }

// Metrics returns the registry metrics collector.
func (r *Registry) Metrics() MetricsCollector { return r.opts.metricsCollector }

// Len returns the number of stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Names returns the store names in creation order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.order))
	for i, e := range r.order {
		names[i] = e.name
	}
	return names
}

func (r *Registry) reportConflict(err *BorrowError) {
	r.opts.logger.LogBorrowConflict(context.Background(), err)
	r.opts.metricsCollector.RecordBorrowConflict(err.Store, err.Want)
}

// Addressable returns the addressable store for T, creating it if absent.
func Addressable[T any](r *Registry) *Cell[*store.Addressable[T]] {
	return lookup[T](r, kindAddressable, func() *store.Addressable[T] {
		return store.NewAddressable[T](r.arena)
	})
}

// Packed returns the packed store for T, creating it if absent.
func Packed[T any](r *Registry) *Cell[*store.Packed[T]] {
	return lookup[T](r, kindPacked, func() *store.Packed[T] {
		return store.NewPacked[T](r.arena, r.opts.leafCapacity)
	})
}

type releasable interface {
	Release()
}

func lookup[T any, S releasable](r *Registry, kind string, create func() S) *Cell[S] {
	key := storeKey{kind: kind, typ: reflect.TypeFor[T]()}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		panic(ErrClosed)
	}
	if e, ok := r.entries[key]; ok {
		return e.cell.(*Cell[S])
	}

	name := fmt.Sprintf("%s[%s]", kind, key.typ)
	cell := NewCell(name, create())
	cell.report = r.reportConflict

	e := &entry{
		cell: cell,
		name: name,
		release: func() error {
			s, release, err := cell.TryBorrowMut()
			if err != nil {
				return err
			}
			defer release()
			s.Release()
			return nil
		},
	}
	r.entries[key] = e
	r.order = append(r.order, e)

	r.opts.logger.LogStoreCreated(context.Background(), name, kind)
	r.opts.metricsCollector.RecordStoreCreated(kind)
	return cell
}

// Close releases every store and frees the arena the registry created.
// Stores that are still borrowed are skipped and reported in the returned
// error. Close is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, e := range r.order {
		if err := e.release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", e.name, err))
		}
	}
	if r.owns && len(errs) == 0 {
		r.arena.Free()
	}

	err := errors.Join(errs...)
	r.opts.logger.LogClose(context.Background(), len(r.order), err)
	return err
}
