package slotstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/core"
)

var (
	// ErrSlotOutOfRange is the panic cause for a slot index outside [0, 128)
	// or an ID beyond the trie capacity.
	ErrSlotOutOfRange = core.ErrSlotOutOfRange

	// ErrBorrowConflict indicates a borrow that violates the shared/exclusive
	// discipline of a Cell.
	ErrBorrowConflict = errors.New("borrow conflict")

	// ErrClosed is returned by operations on a closed Registry.
	ErrClosed = errors.New("registry closed")

	// ErrArenaClosed is the panic cause for allocating from a freed arena.
	ErrArenaClosed = arena.ErrClosed
)

// Access is the kind of borrow requested from a Cell.
type Access int

const (
	// Shared access allows concurrent readers.
	Shared Access = iota
	// Exclusive access excludes every other borrow.
	Exclusive
)

func (a Access) String() string {
	switch a {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// BorrowError describes a rejected borrow.
//
// It wraps ErrBorrowConflict, so errors.Is(err, ErrBorrowConflict) holds.
type BorrowError struct {
	Store string
	Want  Access
	// State is the cell's borrow state at the time of the conflict:
	// the number of shared borrows, or -1 for an exclusive borrow.
	State int32
}

func (e *BorrowError) Error() string {
	held := "exclusive"
	if e.State > 0 {
		held = fmt.Sprintf("%d shared", e.State)
	}
	return fmt.Sprintf("%s borrow of %s conflicts with %s borrow", e.Want, e.Store, held)
}

func (e *BorrowError) Unwrap() error { return ErrBorrowConflict }
