package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hupe1980/slotstore/mask"
)

// RNG wraps a seeded faker. It is thread-safe.
type RNG struct {
	faker *gofakeit.Faker
	seed  int64
	mu    sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		faker: gofakeit.New(seed),
		seed:  seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faker = gofakeit.New(r.seed)
}

// Uint64 returns a pseudo-random 64-bit value.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faker.Uint64()
}

// Intn returns a pseudo-random number in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faker.Number(0, n-1)
}

// Mask returns a mask with uniformly random bits.
func (r *RNG) Mask() mask.Mask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mask.FromWords(r.faker.Uint64(), r.faker.Uint64())
}

// SparseMask returns a mask with roughly one bit in eight set.
func (r *RNG) SparseMask() mask.Mask {
	r.mu.Lock()
	defer r.mu.Unlock()
	lo := r.faker.Uint64() & r.faker.Uint64() & r.faker.Uint64()
	hi := r.faker.Uint64() & r.faker.Uint64() & r.faker.Uint64()
	return mask.FromWords(lo, hi)
}

// RunMask returns a mask holding one run of 1 to mask.Width bits.
func (r *RNG) RunMask() mask.Mask {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := uint(r.faker.Number(0, mask.Width-1))
	run := uint(r.faker.Number(1, mask.Width))
	return mask.Span(start, run)
}

// Slots returns n distinct random slot indices in [0, mask.Width).
func (r *RNG) Slots(n int) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, mask.Width)
	perm := make([]uint, mask.Width)
	for i := range perm {
		perm[i] = uint(i)
	}
	r.faker.ShuffleAnySlice(perm)
	return perm[:n]
}

// Label returns a stable string for an index, handy as a test payload.
func Label[I ~uint | ~uint32 | ~uint64 | ~int](i I) string {
	return fmt.Sprintf("v%d", uint64(i))
}

// Tracker counts releases of the values it hands out.
type Tracker struct {
	released atomic.Int64
}

// NewTracker creates a Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Value returns a tracked value carrying id.
func (t *Tracker) Value(id int) Tracked {
	return Tracked{ID: id, tracker: t}
}

// Released returns the number of releases observed.
func (t *Tracker) Released() int {
	return int(t.released.Load())
}

// Tracked is a value whose Release is counted by its Tracker. The zero value
// is untracked.
type Tracked struct {
	ID      int
	tracker *Tracker
}

// Release records the release with the tracker.
func (v *Tracked) Release() {
	if v.tracker != nil {
		v.tracker.released.Add(1)
	}
}
