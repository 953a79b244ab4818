package pipeline

import (
	"github.com/hupe1980/slotstore"
	"github.com/hupe1980/slotstore/core"
	"github.com/hupe1980/slotstore/mask"
)

// Filter supplies a presence mask used to refine an intersection.
type Filter interface {
	// Store names the store the filter reads.
	Store() string
	// Mask returns the presence of the 128-slot leaf starting at base.
	Mask(base core.ID) mask.Mask
}

type presentFilter struct {
	name string
	mask func(base core.ID) mask.Mask
}

func (f presentFilter) Store() string               { return f.name }
func (f presentFilter) Mask(base core.ID) mask.Mask { return f.mask(base) }

// Present returns a filter over the presence of the addressable store for T.
// The store is borrowed shared while the mask is read.
func Present[T any](reg *slotstore.Registry) Filter {
	cell := slotstore.Addressable[T](reg)
	return presentFilter{
		name: cell.Name(),
		mask: func(base core.ID) mask.Mask {
			if base != 0 {
				return mask.Empty
			}
			s, release := cell.Borrow()
			defer release()
			return s.Presence()
		},
	}
}

// PresentPacked returns a filter over the presence of the packed store for T.
func PresentPacked[T any](reg *slotstore.Registry) Filter {
	cell := slotstore.Packed[T](reg)
	return presentFilter{
		name: cell.Name(),
		mask: func(base core.ID) mask.Mask {
			s, release := cell.Borrow()
			defer release()
			return s.LeafPresence(base)
		},
	}
}

// anyOf returns the union of the filter masks at base, and false when there
// are no filters.
func anyOf(filters []Filter, base core.ID) (mask.Mask, bool) {
	if len(filters) == 0 {
		return mask.Full, false
	}
	var m mask.Mask
	for _, f := range filters {
		m = m.Or(f.Mask(base))
	}
	return m, true
}

func filterStores(filters []Filter) []string {
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.Store()
	}
	return names
}
