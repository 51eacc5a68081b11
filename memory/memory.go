// Package memory implements the two-tier memory of the simulated GPU: a
// bounds-checked global memory and a caller-managed shared memory, both
// charging a simulated latency per transferred cell.
package memory

import (
	"log"

	"gitlab.com/akita/simtgpu/profiler"
)

// Subsystem owns the global memory and the shared memory of one GPU.
type Subsystem struct {
	global *GlobalMemory
	shared *SharedMemory
}

// Global returns the global memory.
func (s *Subsystem) Global() *GlobalMemory {
	return s.global
}

// Shared returns the shared memory.
func (s *Subsystem) Shared() *SharedMemory {
	return s.shared
}

// AllocateShared allocates a shared region of size cells.
func (s *Subsystem) AllocateShared(size int) error {
	return s.shared.Allocate(size)
}

// ReleaseShared releases the shared region.
func (s *Subsystem) ReleaseShared() {
	s.shared.Release()
}

// CopyToGlobal writes data into global memory at offset.
func (s *Subsystem) CopyToGlobal(data []float32, offset int) error {
	return s.global.CopyTo(data, offset)
}

// CopyFromGlobal reads length cells of global memory at offset.
func (s *Subsystem) CopyFromGlobal(offset, length int) ([]float32, error) {
	return s.global.CopyFrom(offset, length)
}

// CopyToShared writes data into the shared region at offset.
func (s *Subsystem) CopyToShared(data []float32, offset int) error {
	return s.shared.CopyTo(data, offset)
}

// CopyFromShared reads length cells of the shared region at offset.
func (s *Subsystem) CopyFromShared(offset, length int) ([]float32, error) {
	return s.shared.CopyFrom(offset, length)
}

// Conflicts returns the number of accesses rejected by strict mode in both
// address spaces.
func (s *Subsystem) Conflicts() int {
	return s.global.Conflicts() + s.shared.Conflicts()
}

// Builder builds memory subsystems.
type Builder struct {
	globalSize int
	sharedSize int
	latency    Latency
	profiler   profiler.Profiler
	strict     bool
}

// MakeBuilder returns a builder with 1024 global cells, 256 shared cells and
// the default latency.
func MakeBuilder() Builder {
	return Builder{
		globalSize: 1024,
		sharedSize: 256,
		latency:    DefaultLatency(),
	}
}

// WithGlobalSize sets the number of global memory cells.
func (b Builder) WithGlobalSize(cells int) Builder {
	b.globalSize = cells
	return b
}

// WithSharedSize sets the shared memory capacity in cells.
func (b Builder) WithSharedSize(cells int) Builder {
	b.sharedSize = cells
	return b
}

// WithLatency sets the simulated access latency.
func (b Builder) WithLatency(l Latency) Builder {
	b.latency = l
	return b
}

// WithProfiler sets the profiler that memory operations are reported to.
func (b Builder) WithProfiler(p profiler.Profiler) Builder {
	b.profiler = p
	return b
}

// WithStrictMode makes overlapping concurrent accesses fail instead of
// racing.
func (b Builder) WithStrictMode() Builder {
	b.strict = true
	return b
}

// Build creates the subsystem.
func (b Builder) Build() *Subsystem {
	if b.globalSize < 0 {
		log.Panicf("global memory size %d is negative", b.globalSize)
	}

	if b.sharedSize < 0 {
		log.Panicf("shared memory size %d is negative", b.sharedSize)
	}

	s := new(Subsystem)

	s.global = newGlobalMemory(b.globalSize)
	s.global.latency = b.latency
	s.global.profiler = b.profiler

	s.shared = newSharedMemory(b.sharedSize)
	s.shared.latency = b.latency
	s.shared.profiler = b.profiler

	if b.strict {
		s.global.inflight = newInflightTable()
		s.shared.inflight = newInflightTable()
	}

	return s
}
