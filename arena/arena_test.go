package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	A, B uint64
}

func TestArena_New(t *testing.T) {
	t.Run("default chunk size", func(t *testing.T) {
		a := New()
		defer a.Free()

		assert.Equal(t, DefaultChunkSize, a.ChunkSize())
		assert.Equal(t, uint32(1), a.Generation())
	})

	t.Run("custom chunk size", func(t *testing.T) {
		a := New(WithChunkSize(4096))
		defer a.Free()

		assert.Equal(t, 4096, a.ChunkSize())
	})

	t.Run("capped chunk size", func(t *testing.T) {
		a := New(WithChunkSize(MaxChunkSize * 2))
		defer a.Free()

		assert.Equal(t, MaxChunkSize, a.ChunkSize())
	})

	t.Run("non-positive chunk size", func(t *testing.T) {
		a := New(WithChunkSize(-1))
		defer a.Free()

		assert.Equal(t, DefaultChunkSize, a.ChunkSize())
	})
}

func TestAlloc(t *testing.T) {
	t.Run("arena", func(t *testing.T) {
		a := New(WithChunkSize(1024))
		defer a.Free()

		p := Alloc[pair](a)
		require.NotNil(t, p)
		assert.Equal(t, pair{}, *p)

		q := Alloc[pair](a)
		p.A = 42
		assert.Equal(t, uint64(0), q.A, "allocations must not alias")

		stats := a.Stats()
		assert.Equal(t, uint64(2), stats.TotalAllocs)
		assert.Equal(t, uint64(1), stats.ChunksAllocated)
		assert.Equal(t, uint64(32), stats.BytesUsed)
	})

	t.Run("heap", func(t *testing.T) {
		var a *Arena
		p := Alloc[pair](a)
		require.NotNil(t, p)
		assert.Equal(t, Stats{}, a.Stats())
		assert.Equal(t, "Arena{heap}", a.String())
	})
}

func TestMakeSlice(t *testing.T) {
	t.Run("exact capacity", func(t *testing.T) {
		a := New(WithChunkSize(1024))
		defer a.Free()

		s1 := MakeSlice[int64](a, 2, 4)
		s2 := MakeSlice[int64](a, 4, 4)
		assert.Len(t, s1, 2)
		assert.Equal(t, 4, cap(s1))

		s1 = append(s1, 1, 2)
		s1 = append(s1, 3) // beyond capacity: must not clobber s2
		assert.Equal(t, []int64{0, 0, 0, 0}, s2)
		assert.Equal(t, []int64{0, 0, 1, 2, 3}, s1)
	})

	t.Run("zero capacity", func(t *testing.T) {
		a := New()
		defer a.Free()

		assert.Nil(t, MakeSlice[int](a, 0, 0))
	})

	t.Run("large allocation bypasses chunks", func(t *testing.T) {
		a := New(WithChunkSize(1024))
		defer a.Free()

		s := MakeSlice[byte](a, 4096, 4096)
		assert.Len(t, s, 4096)
		stats := a.Stats()
		assert.Equal(t, uint64(1), stats.LargeAllocs)
		assert.Equal(t, uint64(0), stats.ChunksAllocated)
	})

	t.Run("new chunk when full", func(t *testing.T) {
		a := New(WithChunkSize(128)) // 16 int64 per chunk
		defer a.Free()

		for range 5 {
			MakeSlice[int64](a, 4, 4)
		}
		assert.Equal(t, uint64(2), a.Stats().ChunksAllocated)
	})

	t.Run("types use separate chunks", func(t *testing.T) {
		a := New(WithChunkSize(1024))
		defer a.Free()

		MakeSlice[int32](a, 1, 1)
		MakeSlice[string](a, 1, 1)
		assert.Equal(t, uint64(2), a.Stats().ActiveChunks)
	})
}

func TestAppendInsert(t *testing.T) {
	for _, a := range []*Arena{nil, New(WithChunkSize(256))} {
		t.Run(a.String(), func(t *testing.T) {
			defer a.Free()

			var s []int
			s = Append(a, s, 1, 2, 3)
			assert.Equal(t, []int{1, 2, 3}, s)

			s = Insert(a, s, 0, 0)
			s = Insert(a, s, 4, 4)
			s = Insert(a, s, 2, 9)
			assert.Equal(t, []int{0, 1, 9, 2, 3, 4}, s)

			assert.Panics(t, func() { Insert(a, s, 7, 1) })
		})
	}
}

func TestArena_Reset(t *testing.T) {
	a := New(WithChunkSize(1024))
	defer a.Free()

	p := Alloc[pair](a)
	p.A = 7
	gen := a.Generation()

	a.Reset()

	assert.Equal(t, gen+1, a.Generation())
	assert.Equal(t, uint64(0), a.Stats().ActiveChunks)
	assert.Equal(t, uint64(7), p.A, "values survive reset")

	q := Alloc[pair](a)
	assert.NotSame(t, p, q)
	assert.Equal(t, pair{}, *q)
}

func TestArena_Free(t *testing.T) {
	a := New()
	a.Free()

	assert.True(t, a.Closed())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), ErrClosed)
	}()
	Alloc[int](a)
}

func TestArena_Concurrent(t *testing.T) {
	a := New(WithChunkSize(4096))
	defer a.Free()

	const (
		workers = 8
		perG    = 200
	)

	var wg sync.WaitGroup
	results := make([][]*pair, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perG {
				p := Alloc[pair](a)
				p.A, p.B = uint64(w), uint64(i)
				results[w] = append(results[w], p)
			}
		}()
	}
	wg.Wait()

	for w, ps := range results {
		for i, p := range ps {
			require.Equal(t, pair{uint64(w), uint64(i)}, *p)
		}
	}
	assert.Equal(t, uint64(workers*perG), a.Stats().TotalAllocs)
}

func TestArena_String(t *testing.T) {
	a := New()
	defer a.Free()

	Alloc[int](a)
	assert.Contains(t, a.String(), "allocs: 1")
}
