package memory

import "gitlab.com/akita/simtgpu/profiler"

// GlobalMemory is the fixed-capacity address space visible to every lane.
// It does not serialize lanes: concurrent transfers to overlapping ranges may
// interleave unless strict mode is enabled, in which case the later one fails
// with ErrConflictingAccess.
type GlobalMemory struct {
	tier
	store *cellStore
}

func newGlobalMemory(capacity int) *GlobalMemory {
	m := new(GlobalMemory)
	m.space = profiler.SpaceGlobal
	m.store = newCellStore(capacity)
	return m
}

// Capacity returns the number of cells.
func (m *GlobalMemory) Capacity() int {
	return m.store.n
}

// CopyTo writes data starting at the given cell offset.
func (m *GlobalMemory) CopyTo(data []float32, offset int) error {
	return m.write(m.store, data, offset)
}

// CopyFrom reads length cells starting at the given offset.
func (m *GlobalMemory) CopyFrom(offset, length int) ([]float32, error) {
	return m.read(m.store, offset, length)
}

// Load reads a single cell.
func (m *GlobalMemory) Load(addr int) (float32, error) {
	data, err := m.read(m.store, addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Store writes a single cell.
func (m *GlobalMemory) Store(addr int, v float32) error {
	return m.write(m.store, []float32{v}, addr)
}

// Conflicts returns the number of accesses rejected by strict mode.
func (m *GlobalMemory) Conflicts() int {
	return m.numConflicts()
}
