package field

import (
	"fmt"
	"sync/atomic"

	"github.com/sarchlab/korfield/core"
)

const maskWords = core.MaxModules / 64

// A Region is the shared table through which modules coordinate. It has one
// slot per module id. Each slot is written only by its owning module and read
// by everyone.
//
// Slots hold immutable snapshots behind atomic pointers, so a reader always
// sees a complete field. The update bitmask is set after the snapshot is
// stored; a reader that observes a bit also observes the snapshot published
// before it.
type Region struct {
	slots   [core.MaxModules]atomic.Pointer[Field]
	updated [maskWords]atomic.Uint64
	lastGC  atomic.Uint64
}

// NewRegion creates an empty region.
func NewRegion() *Region {
	return &Region{}
}

func checkID(id core.ModuleID) error {
	if int(id) >= core.MaxModules {
		return fmt.Errorf("module id %d out of range: %w", id, core.ErrInvalidArg)
	}

	return nil
}

// Get returns a copy of the slot owned by id. A never-published or reclaimed
// slot returns the empty field.
func (r *Region) Get(id core.ModuleID) (Field, error) {
	if err := checkID(id); err != nil {
		return Field{}, err
	}

	p := r.slots[id].Load()
	if p == nil {
		return Field{}, nil
	}

	return *p, nil
}

// IsUpdated reports whether id has published since the last ConsumeUpdates.
func (r *Region) IsUpdated(id core.ModuleID) bool {
	if int(id) >= core.MaxModules {
		return false
	}

	return r.updated[id/64].Load()&(1<<(id%64)) != 0
}

// ConsumeUpdates atomically clears the update bitmask and returns the ids
// that were marked, in ascending order.
func (r *Region) ConsumeUpdates() []core.ModuleID {
	var ids []core.ModuleID

	for w := range r.updated {
		bits := r.updated[w].Swap(0)
		for b := 0; bits != 0; b++ {
			if bits&1 != 0 {
				ids = append(ids, core.ModuleID(w*64+b))
			}
			bits >>= 1
		}
	}

	return ids
}

// LastGC returns the time of the last garbage collection sweep.
func (r *Region) LastGC() core.TimeUs {
	return r.lastGC.Load()
}

// LiveSlots returns the ids of every published slot.
func (r *Region) LiveSlots() []core.ModuleID {
	var ids []core.ModuleID

	for i := 1; i < core.MaxModules; i++ {
		if r.slots[i].Load() != nil {
			ids = append(ids, core.ModuleID(i))
		}
	}

	return ids
}

func (r *Region) store(id core.ModuleID, f *Field) {
	r.slots[id].Store(f)
	r.updated[id/64].Or(1 << (id % 64))
}

func (r *Region) load(id core.ModuleID) *Field {
	return r.slots[id].Load()
}

func (r *Region) reclaim(id core.ModuleID, old *Field) bool {
	return r.slots[id].CompareAndSwap(old, nil)
}
