package slotstore

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/core"
	"github.com/hupe1980/slotstore/store"
	"github.com/hupe1980/slotstore/testutil"
)

type position struct{ X, Y float64 }

type velocity struct{ DX, DY float64 }

func TestRegistry_SameCellPerType(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	r := New(WithMetricsCollector(metrics))
	defer r.Close()

	p1 := Addressable[position](r)
	p2 := Addressable[position](r)
	v := Addressable[velocity](r)
	pp := Packed[position](r)

	assert.Same(t, p1, p2)
	assert.NotEqual(t, p1.Name(), v.Name())
	assert.Equal(t, "addressable[slotstore.position]", p1.Name())
	assert.Equal(t, "packed[slotstore.position]", pp.Name())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{p1.Name(), v.Name(), pp.Name()}, r.Names())
	assert.Equal(t, int64(3), metrics.GetStats().StoresCreated)
}

func TestRegistry_StoresShareArena(t *testing.T) {
	r := New(WithArenaChunkSize(8192), WithLeafCapacity(4))
	defer r.Close()

	require.NotNil(t, r.Arena())
	assert.Equal(t, 8192, r.Arena().ChunkSize())

	err := Packed[int](r).WithMut(func(s *store.Packed[int]) error {
		assert.Same(t, r.Arena(), s.Alloc())
		s.Insert(core.Join(1, 1, 1), 1)
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, r.Arena().Stats().TotalAllocs)
}

func TestRegistry_Heap(t *testing.T) {
	r := New(WithArena(nil))
	assert.Nil(t, r.Arena())

	err := Addressable[int](r).WithMut(func(s *store.Addressable[int]) error {
		assert.Nil(t, s.Alloc())
		s.Insert(1, 1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestRegistry_Close(t *testing.T) {
	tr := testutil.NewTracker()
	r := New()

	require.NoError(t, Addressable[testutil.Tracked](r).WithMut(func(s *store.Addressable[testutil.Tracked]) error {
		s.Insert(3, tr.Value(3))
		s.Insert(7, tr.Value(7))
		return nil
	}))
	require.NoError(t, Packed[testutil.Tracked](r).WithMut(func(s *store.Packed[testutil.Tracked]) error {
		s.Insert(core.MaxID, tr.Value(1))
		return nil
	}))

	require.NoError(t, r.Close())
	assert.Equal(t, 3, tr.Released())
	assert.True(t, r.Arena().Closed())

	require.NoError(t, r.Close(), "close is idempotent")
	assert.PanicsWithValue(t, ErrClosed, func() { Addressable[int](r) })
}

func TestRegistry_CloseWhileBorrowed(t *testing.T) {
	var buf bytes.Buffer
	metrics := &BasicMetricsCollector{}
	r := New(
		WithLogger(NewLogger(slog.NewTextHandler(&buf, nil))),
		WithMetricsCollector(metrics),
	)

	cell := Addressable[int](r)
	_, release := cell.Borrow()
	defer release()

	err := r.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBorrowConflict)
	assert.False(t, r.Arena().Closed(), "arena stays alive while a store is borrowed")
	assert.Equal(t, int64(1), metrics.GetStats().BorrowConflicts)
	assert.Contains(t, buf.String(), "borrow conflict")
}

func TestRegistry_WithArena(t *testing.T) {
	a := arena.New()
	defer a.Free()

	r := New(WithArena(a))
	Addressable[int](r)
	require.NoError(t, r.Close())

	assert.False(t, a.Closed(), "registry does not free a borrowed arena")
}
