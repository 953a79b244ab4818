// Package testutil provides testing utilities for slotstore.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random masks and slot sets, and a tracker that counts
// how often values are released.
//
// # Random Masks
//
//	rng := testutil.NewRNG(seed)
//	m := rng.Mask()           // uniform bits
//	m = rng.SparseMask()      // few bits
//	m = rng.RunMask()         // a single run
//
// # Release Tracking
//
//	tr := testutil.NewTracker()
//	store.Insert(3, tr.Value(3))
//	store.Release()
//	tr.Released() // 1
package testutil
