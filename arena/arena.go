// Package arena provides the allocator capability shared by every block of a trie.
//
// # Allocation Model
//
// An Arena hands out memory from large typed chunks: values of one type are
// carved from a []T chunk, so the garbage collector still sees (and scans) them
// as ordinary Go memory. Blocks of one trie are allocated together and end up
// adjacent, which keeps interior nodes and their leaves cache friendly.
//
// A nil *Arena is valid everywhere and means "allocate on the Go heap".
//
// # Concurrency Model
//
// Arena is a lightweight, copyable capability (*Arena). Allocation is safe from
// multiple goroutines. Reset and Free must not run concurrently with
// allocations.
//
// # Lifetime
//
// Values never dangle: Reset and Free only stop the arena from handing out the
// old chunks. Memory is reclaimed once the owners of the values drop them.
package arena

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"
)

var (
	// ErrClosed is the panic cause for allocating from a freed arena.
	ErrClosed = errors.New("arena: closed")
)

const (
	// DefaultChunkSize is the default size of a chunk (64 KiB).
	DefaultChunkSize = 64 * 1024
	// MaxChunkSize caps the chunk size (64 MiB).
	MaxChunkSize = 64 * 1024 * 1024
)

// Stats tracks arena memory usage metrics.
//
//   - BytesReserved: bytes held by chunks created since the last Reset/Free
//   - BytesUsed: bytes handed out to callers
//   - ActiveChunks: number of chunks currently held
//   - ChunksAllocated: total chunks ever created
//   - LargeAllocs: allocations bigger than a chunk (served directly)
//   - TotalAllocs: cumulative allocation count
type Stats struct {
	ChunksAllocated uint64
	BytesReserved   uint64
	BytesUsed       uint64
	ActiveChunks    uint64
	LargeAllocs     uint64
	TotalAllocs     uint64
}

type atomicStats struct {
	ChunksAllocated atomic.Uint64
	BytesReserved   atomic.Uint64
	BytesUsed       atomic.Uint64
	ActiveChunks    atomic.Uint64
	LargeAllocs     atomic.Uint64
	TotalAllocs     atomic.Uint64
}

// slab is the current chunk for one element type.
type slab[T any] struct {
	buf []T
	off int
}

// Arena is a chunked, typed memory arena.
type Arena struct {
	chunkSize  int
	mu         sync.Mutex
	slabs      map[reflect.Type]any // *slab[T] per element type
	stats      atomicStats
	generation atomic.Uint32
	closed     atomic.Bool
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithChunkSize sets the chunk size in bytes. Values <= 0 select
// DefaultChunkSize; values above MaxChunkSize are capped.
func WithChunkSize(size int) Option {
	return func(a *Arena) {
		a.chunkSize = size
	}
}

// New creates a new Arena.
func New(opts ...Option) *Arena {
	a := &Arena{
		chunkSize: DefaultChunkSize,
		slabs:     make(map[reflect.Type]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.chunkSize <= 0 {
		a.chunkSize = DefaultChunkSize
	}
	if a.chunkSize > MaxChunkSize {
		a.chunkSize = MaxChunkSize
	}

	// Initialize generation to 1 so 0 is invalid
	a.generation.Store(1)

	return a
}

// Generation returns the current generation of the arena. It changes on every
// Reset and Free.
func (a *Arena) Generation() uint32 {
	if a == nil {
		return 0
	}
	return a.generation.Load()
}

// ChunkSize returns the configured chunk size in bytes.
func (a *Arena) ChunkSize() int {
	if a == nil {
		return 0
	}
	return a.chunkSize
}

// Alloc returns a pointer to a new zero value of T.
func Alloc[T any](a *Arena) *T {
	if a == nil {
		return new(T)
	}
	s := MakeSlice[T](a, 1, 1)
	return &s[0]
}

// MakeSlice returns a zeroed slice of T with the given length and capacity.
// The slice's capacity is exact, so appending past it never overwrites a
// neighbouring allocation.
func MakeSlice[T any](a *Arena, length, capacity int) []T {
	if capacity < length {
		capacity = length
	}
	if a == nil {
		return make([]T, length, capacity)
	}
	if capacity == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed.Load() {
		panic(ErrClosed)
	}

	var (
		zero     T
		elemSize = int(unsafe.Sizeof(zero))
		bytes    = uint64(max(elemSize, 1) * capacity)
	)

	a.stats.TotalAllocs.Add(1)
	a.stats.BytesUsed.Add(bytes)

	perChunk := a.chunkSize / max(elemSize, 1)
	if capacity > perChunk/2 {
		// Too big to share a chunk: serve it directly.
		a.stats.LargeAllocs.Add(1)
		return make([]T, length, capacity)
	}

	s := slabFor[T](a)
	if s.buf == nil || s.off+capacity > len(s.buf) {
		s.buf = make([]T, perChunk)
		s.off = 0
		a.stats.ChunksAllocated.Add(1)
		a.stats.ActiveChunks.Add(1)
		a.stats.BytesReserved.Add(uint64(max(elemSize, 1) * perChunk))
	}

	out := s.buf[s.off : s.off+length : s.off+capacity]
	s.off += capacity
	return out
}

// Append appends values to s, growing it through the arena.
func Append[T any](a *Arena, s []T, vs ...T) []T {
	need := len(s) + len(vs)
	if need > cap(s) {
		grown := MakeSlice[T](a, len(s), growCap(cap(s), need))
		copy(grown, s)
		s = grown
	}
	return append(s, vs...)
}

// Insert inserts v at index i of s, growing it through the arena.
func Insert[T any](a *Arena, s []T, i int, v T) []T {
	if i < 0 || i > len(s) {
		panic(fmt.Sprintf("arena: insert index %d out of range [0:%d]", i, len(s)))
	}
	var zero T
	s = Append(a, s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func growCap(old, need int) int {
	c := max(old*2, 4)
	for c < need {
		c *= 2
	}
	return c
}

func slabFor[T any](a *Arena) *slab[T] {
	key := reflect.TypeFor[T]()
	if s, ok := a.slabs[key]; ok {
		return s.(*slab[T])
	}
	s := &slab[T]{}
	a.slabs[key] = s
	return s
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	if a == nil {
		return Stats{}
	}
	return Stats{
		ChunksAllocated: a.stats.ChunksAllocated.Load(),
		BytesReserved:   a.stats.BytesReserved.Load(),
		BytesUsed:       a.stats.BytesUsed.Load(),
		ActiveChunks:    a.stats.ActiveChunks.Load(),
		LargeAllocs:     a.stats.LargeAllocs.Load(),
		TotalAllocs:     a.stats.TotalAllocs.Load(),
	}
}

// Reset drops every chunk so that new allocations start from fresh chunks.
//
// IMPORTANT:
//  1. Do NOT call Reset concurrently with allocations
//  2. Values allocated before Reset stay valid for as long as they are owned
func (a *Arena) Reset() {
	if a == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.generation.Add(1)
	clear(a.slabs)

	a.stats.ActiveChunks.Store(0)
	a.stats.BytesReserved.Store(0)
	a.stats.BytesUsed.Store(0)
}

// Free releases all chunks and closes the arena. Allocating from a freed arena
// panics with ErrClosed.
func (a *Arena) Free() {
	if a == nil {
		return
	}

	a.Reset()
	a.closed.Store(true)
}

// Closed reports whether Free was called.
func (a *Arena) Closed() bool {
	return a != nil && a.closed.Load()
}

// Usage returns the memory usage percentage of reserved chunks.
func (a *Arena) Usage() float64 {
	stats := a.Stats()
	if stats.BytesReserved == 0 {
		return 0
	}
	return float64(stats.BytesUsed) / float64(stats.BytesReserved) * 100
}

func (a *Arena) String() string {
	if a == nil {
		return "Arena{heap}"
	}
	stats := a.Stats()
	return fmt.Sprintf(
		"Arena{chunks: %d, reserved: %.2f KB, used: %.2f KB, usage: %.1f%%, allocs: %d, large: %d}",
		stats.ActiveChunks,
		float64(stats.BytesReserved)/1024,
		float64(stats.BytesUsed)/1024,
		a.Usage(),
		stats.TotalAllocs,
		stats.LargeAllocs,
	)
}
