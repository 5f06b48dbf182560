package blockview

import "sync"

// AirID is the reserved registry id pre-bound to Air. It is intentionally
// negative so it can never collide with a monotonically assigned id.
const AirID int32 = -1

// maxRegistryIDs bounds a single registry instance to 16-bit id space,
// reserving the top of the range; the source material caps at 32767
// distinct entries per registry.
const maxRegistryIDs = 32767

// BlockDataRegistry interns ViewBlockData values to compact 16-bit
// identifiers keyed by their canonical serialisation. Ids are assigned
// monotonically from 0 and the registry is append-only between Clear
// calls. All operations are atomic with respect to each other.
type BlockDataRegistry struct {
	mu sync.RWMutex
	byString map[string]int32
	byID []ViewBlockData
	stringByID []string
}

// NewBlockDataRegistry creates an empty registry with AIR pre-bound to
// AirID.
func NewBlockDataRegistry() *BlockDataRegistry {
	r := &BlockDataRegistry{}
	r.reset()
	return r
}

func (r *BlockDataRegistry) reset() {
	r.byString = make(map[string]int32)
	r.byID = nil
	r.stringByID = nil
	r.byString[Air.Serialize()] = AirID
}

// Intern returns the existing id for value's serialisation, or assigns and
// returns the next monotonic id. Returns ErrCapacityExhausted once
// maxRegistryIDs distinct serialisations (excluding AIR) have been
// assigned.
func (r *BlockDataRegistry) Intern(value ViewBlockData) (int32, error) {
	key := value.Serialize()

	r.mu.RLock()
	if id, ok := r.byString[key]; ok {
		r.mu.RUnlock()
		return id, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another goroutine may have interned
	// the same value between the unlock above and here.
	if id, ok := r.byString[key]; ok {
		return id, nil
	}

	if len(r.byID) >= maxRegistryIDs {
		return 0, ErrCapacityExhausted
	}

	id := int32(len(r.byID))
	r.byID = append(r.byID, value)
	r.stringByID = append(r.stringByID, key)
	r.byString[key] = id
	return id, nil
}

// Lookup performs a constant-time reverse lookup. The boolean result is
// false if id is unknown to this registry (including a stale id from a
// registry cleared since).
func (r *BlockDataRegistry) Lookup(id int32) (ViewBlockData, bool) {
	if id == AirID {
		return Air, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 0 || int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// Clear empties both directions of the registry, resets the id counter,
// and re-binds AIR.
func (r *BlockDataRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Len returns the number of distinct non-AIR entries currently interned.
func (r *BlockDataRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
