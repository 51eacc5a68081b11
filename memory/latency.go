package memory

import (
	"time"

	"gitlab.com/akita/simtgpu/profiler"
)

// Latency is the simulated access cost per transferred cell. The cost is paid
// by the caller before the transfer happens.
type Latency struct {
	GlobalPerCell time.Duration `json:"global_per_cell"`
	SharedPerCell time.Duration `json:"shared_per_cell"`
}

// DefaultLatency makes global memory ten times slower than shared memory.
func DefaultLatency() Latency {
	return Latency{
		GlobalPerCell: 10 * time.Microsecond,
		SharedPerCell: 1 * time.Microsecond,
	}
}

// NoLatency disables the simulated delay.
func NoLatency() Latency {
	return Latency{}
}

func (l Latency) perCell(space profiler.Space) time.Duration {
	if space == profiler.SpaceShared {
		return l.SharedPerCell
	}
	return l.GlobalPerCell
}

func (l Latency) charge(space profiler.Space, cells int) {
	d := l.perCell(space) * time.Duration(cells)
	if d > 0 {
		time.Sleep(d)
	}
}
