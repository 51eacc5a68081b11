package memory

import (
	"sync"
	"time"

	"gitlab.com/akita/simtgpu/profiler"
)

// SharedMemory is a small address space that exists only between an Allocate
// and the next Release. The lock only guards the region itself; transfers
// into the region are not serialized.
type SharedMemory struct {
	tier

	mu       sync.RWMutex
	capacity int
	region   *cellStore
}

func newSharedMemory(capacity int) *SharedMemory {
	m := new(SharedMemory)
	m.space = profiler.SpaceShared
	m.capacity = capacity
	return m
}

// Capacity returns the largest region that can be allocated, in cells.
func (m *SharedMemory) Capacity() int {
	return m.capacity
}

// Size returns the size of the current region, or 0 if nothing is allocated.
func (m *SharedMemory) Size() int {
	r := m.current()
	if r == nil {
		return 0
	}
	return r.n
}

// IsAllocated tells whether a region currently exists.
func (m *SharedMemory) IsAllocated() bool {
	return m.current() != nil
}

// Allocate creates a zeroed region of size cells, replacing any previous
// region.
func (m *SharedMemory) Allocate(size int) error {
	if size < 0 {
		return &AccessError{
			Op: "allocate", Space: m.space, Length: size, Limit: m.capacity,
			Err: ErrInvalidSize,
		}
	}

	if size > m.capacity {
		return &AccessError{
			Op: "allocate", Space: m.space, Length: size, Limit: m.capacity,
			Err: ErrCapacityExceeded,
		}
	}

	m.mu.Lock()
	m.region = newCellStore(size)
	m.mu.Unlock()

	m.reportLifecycle(profiler.MemAllocate, size)
	return nil
}

// Release drops the current region. Releasing when nothing is allocated does
// nothing.
func (m *SharedMemory) Release() {
	m.mu.Lock()
	r := m.region
	m.region = nil
	m.mu.Unlock()

	if r != nil {
		m.reportLifecycle(profiler.MemRelease, r.n)
	}
}

// CopyTo writes data into the region starting at the given offset.
func (m *SharedMemory) CopyTo(data []float32, offset int) error {
	r := m.current()
	if r == nil {
		return m.notAllocated("write", offset, len(data))
	}
	return m.write(r, data, offset)
}

// CopyFrom reads length cells of the region starting at the given offset.
func (m *SharedMemory) CopyFrom(offset, length int) ([]float32, error) {
	r := m.current()
	if r == nil {
		return nil, m.notAllocated("read", offset, length)
	}
	return m.read(r, offset, length)
}

// Load reads a single cell of the region.
func (m *SharedMemory) Load(addr int) (float32, error) {
	data, err := m.CopyFrom(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Store writes a single cell of the region.
func (m *SharedMemory) Store(addr int, v float32) error {
	return m.CopyTo([]float32{v}, addr)
}

// Conflicts returns the number of accesses rejected by strict mode.
func (m *SharedMemory) Conflicts() int {
	return m.numConflicts()
}

func (m *SharedMemory) current() *cellStore {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.region
}

func (m *SharedMemory) notAllocated(op string, offset, length int) error {
	return &AccessError{
		Op:     op,
		Space:  m.space,
		Offset: offset,
		Length: length,
		Err:    ErrNotAllocated,
	}
}

func (m *SharedMemory) reportLifecycle(op profiler.MemOpType, cells int) {
	if m.profiler == nil {
		return
	}

	m.profiler.OnMemoryOp(profiler.MemOp{
		Type:      op,
		Space:     m.space,
		SizeBytes: cells * CellSize,
		Timestamp: time.Now(),
	})
}
