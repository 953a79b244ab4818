// Package slotstore provides a bitmap-indexed columnar component store.
//
// Values of one type live in a store addressed by slot. Every block of a store
// carries a 128-bit presence mask, so discovering which slots hold a value, or
// which slots two stores have in common, is mask arithmetic that never touches
// absent slots.
//
// # Quick Start
//
//	reg := slotstore.New()
//	defer reg.Close()
//
//	pos := slotstore.Addressable[Position](reg)
//	vel := slotstore.Addressable[Velocity](reg)
//
//	pos.WithMut(func(s *store.Addressable[Position]) error {
//	    s.Insert(3, Position{})
//	    return nil
//	})
//
// # Co-iterating Stores
//
// view.Intersect pairs the runs of two stores. Each pair covers the same slots
// and indexes each store's own backing slice:
//
//	for p, v := range view.Intersect(ps.Views(), vs.Views()).All() {
//	    for k := range p.Len() {
//	        // p.At(k) and v.At(k) belong to the same slot
//	    }
//	}
//
// The pipeline package wraps this loop into stages that borrow the stores from
// a Registry.
//
// # Borrowing
//
// A Registry hands out one Cell per store. Any number of shared borrows may be
// held at once; an exclusive borrow excludes every other borrow. A conflicting
// Borrow or BorrowMut panics with a *BorrowError, since it indicates a
// scheduling bug rather than a runtime condition. TryBorrow and TryBorrowMut
// return the error instead.
//
// # Key Features
//
//   - Addressable (slot-indexed) and packed (densely stored) stores
//   - Three-level packed trie addressing 128^3 IDs
//   - Presence, tombstone and roll-up absence masks
//   - Zero-copy run views and store intersection with filter refinement
//   - Shared arena allocation for every block of a trie
//   - Roaring bitmap export and filtering
package slotstore
