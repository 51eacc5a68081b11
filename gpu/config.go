package gpu

import (
	"encoding/json"
	"fmt"
	"os"

	"gitlab.com/akita/simtgpu/memory"
)

// Config is the fixed configuration of a GPU.
type Config struct {
	NumSM            int            `json:"num_sms"`
	WarpSize         int            `json:"threads_per_warp"`
	WarpsPerSM       int            `json:"warps_per_sm"`
	GlobalMemorySize int            `json:"global_memory_size"`
	SharedMemorySize int            `json:"shared_memory_size"`
	Latency          memory.Latency `json:"latency"`

	// MaxParallelLanes bounds the number of lanes running at the same time
	// on each SM. 0 starts every active lane of a warp at once.
	MaxParallelLanes int `json:"max_parallel_lanes"`

	// ConcurrentSMs runs each SM on its own goroutine. Warps of the same SM
	// still run one after another.
	ConcurrentSMs bool `json:"concurrent_sms"`

	// StrictMemory rejects overlapping concurrent memory accesses.
	StrictMemory bool `json:"strict_memory"`
}

// DefaultConfig returns a small GPU with 2 SMs of 2 warps of 32 lanes.
func DefaultConfig() Config {
	return Config{
		NumSM:            2,
		WarpSize:         32,
		WarpsPerSM:       2,
		GlobalMemorySize: 1024,
		SharedMemorySize: 256,
		Latency:          memory.DefaultLatency(),
	}
}

// LoadConfig reads a JSON configuration. Fields missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing %s: %w", path, err)
	}

	return c, c.Validate()
}

// Validate checks that the configuration describes a usable GPU.
func (c Config) Validate() error {
	switch {
	case c.NumSM <= 0:
		return fmt.Errorf("number of SMs must be positive, got %d", c.NumSM)
	case c.WarpSize <= 0:
		return fmt.Errorf("warp size must be positive, got %d", c.WarpSize)
	case c.WarpsPerSM <= 0:
		return fmt.Errorf("warps per SM must be positive, got %d", c.WarpsPerSM)
	case c.GlobalMemorySize < 0:
		return fmt.Errorf("global memory size must not be negative, got %d",
			c.GlobalMemorySize)
	case c.SharedMemorySize < 0:
		return fmt.Errorf("shared memory size must not be negative, got %d",
			c.SharedMemorySize)
	case c.MaxParallelLanes < 0:
		return fmt.Errorf("max parallel lanes must not be negative, got %d",
			c.MaxParallelLanes)
	}

	return nil
}

// Capacity returns the largest number of warps a single launch can run.
func (c Config) Capacity() int {
	return c.NumSM * c.WarpsPerSM
}
