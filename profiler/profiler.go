// Package profiler defines the collaborator that the GPU and the memory
// subsystem report to, together with a collector that keeps the reported
// traces and summarizes them.
package profiler

import (
	"time"

	"gitlab.com/akita/simtgpu/kernels"
)

// MemOpType is the kind of a memory operation.
type MemOpType int

// A list of all memory operation types.
const (
	MemRead MemOpType = iota
	MemWrite
	MemAllocate
	MemRelease
)

func (t MemOpType) String() string {
	switch t {
	case MemRead:
		return "read"
	case MemWrite:
		return "write"
	case MemAllocate:
		return "allocate"
	case MemRelease:
		return "release"
	default:
		return "unknown"
	}
}

// MarshalText makes the type appear by name in JSON reports.
func (t MemOpType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Space identifies one of the address spaces of the GPU.
type Space int

// The address spaces.
const (
	SpaceGlobal Space = iota
	SpaceShared
)

func (s Space) String() string {
	if s == SpaceShared {
		return "shared"
	}
	return "global"
}

// MarshalText makes the space appear by name in JSON reports.
func (s Space) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// A MemOp is one memory operation as reported by the memory subsystem. The
// address is a cell offset; the size is in bytes.
type MemOp struct {
	Type      MemOpType `json:"op_type"`
	Space     Space     `json:"space"`
	Address   int       `json:"address"`
	SizeBytes int       `json:"size"`
	Timestamp time.Time `json:"time_stamp"`
}

// A KernelExecution is reported once per completed launch.
type KernelExecution struct {
	LaunchID   string        `json:"launch_id"`
	KernelName string        `json:"kernel_name"`
	GridDim    kernels.Dim   `json:"grid_dim"`
	BlockDim   kernels.Dim   `json:"block_dim"`
	Duration   time.Duration `json:"duration"`
}

// Profiler receives events from the GPU. Implementations must be safe for
// concurrent use because memory operations are reported from lanes.
type Profiler interface {
	OnLaunchStart()
	OnMemoryOp(op MemOp)
	OnKernelExecution(exec KernelExecution)
}
