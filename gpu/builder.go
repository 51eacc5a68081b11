package gpu

import (
	"log"
	"time"

	"gitlab.com/akita/simtgpu/memory"
	"gitlab.com/akita/simtgpu/profiler"
	"gitlab.com/akita/simtgpu/timing/dispatching"
	"gitlab.com/akita/simtgpu/timing/sm"
	"gitlab.com/akita/simtgpu/timing/warp"
)

// Builder builds GPUs.
type Builder struct {
	config   Config
	profiler profiler.Profiler
}

// MakeBuilder returns a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithNumSM sets the number of SMs.
func (b Builder) WithNumSM(n int) Builder {
	b.config.NumSM = n
	return b
}

// WithWarpSize sets the number of lanes per warp.
func (b Builder) WithWarpSize(n int) Builder {
	b.config.WarpSize = n
	return b
}

// WithWarpsPerSM sets how many warps an SM can hold per launch.
func (b Builder) WithWarpsPerSM(n int) Builder {
	b.config.WarpsPerSM = n
	return b
}

// WithGlobalMemorySize sets the number of global memory cells.
func (b Builder) WithGlobalMemorySize(cells int) Builder {
	b.config.GlobalMemorySize = cells
	return b
}

// WithSharedMemorySize sets the shared memory capacity in cells.
func (b Builder) WithSharedMemorySize(cells int) Builder {
	b.config.SharedMemorySize = cells
	return b
}

// WithMemoryLatency sets the simulated latency per cell of both tiers.
func (b Builder) WithMemoryLatency(global, shared time.Duration) Builder {
	b.config.Latency = memory.Latency{
		GlobalPerCell: global,
		SharedPerCell: shared,
	}
	return b
}

// WithMaxParallelLanes bounds the number of lanes running at once.
func (b Builder) WithMaxParallelLanes(n int) Builder {
	b.config.MaxParallelLanes = n
	return b
}

// WithConcurrentSMs runs the SMs of a launch concurrently.
func (b Builder) WithConcurrentSMs() Builder {
	b.config.ConcurrentSMs = true
	return b
}

// WithStrictMemory rejects overlapping concurrent memory accesses.
func (b Builder) WithStrictMemory() Builder {
	b.config.StrictMemory = true
	return b
}

// WithProfiler sets the profiler that receives launch and memory events.
func (b Builder) WithProfiler(p profiler.Profiler) Builder {
	b.profiler = p
	return b
}

// Build creates a GPU. It panics if the configuration is invalid.
func (b Builder) Build(name string) *GPU {
	if err := b.config.Validate(); err != nil {
		log.Panicf("cannot build %s: %v", name, err)
	}

	g := new(GPU)
	g.name = name
	g.config = b.config
	g.profiler = b.profiler

	b.buildMemory(g)
	b.buildSMs(g)

	return g
}

func (b Builder) buildMemory(g *GPU) {
	mb := memory.MakeBuilder().
		WithGlobalSize(b.config.GlobalMemorySize).
		WithSharedSize(b.config.SharedMemorySize).
		WithLatency(b.config.Latency).
		WithProfiler(b.profiler)

	if b.config.StrictMemory {
		mb = mb.WithStrictMode()
	}

	g.memory = mb.Build()
}

func (b Builder) buildSMs(g *GPU) {
	g.dispatcher = dispatching.NewDispatcher(b.config.WarpsPerSM)

	for i := 0; i < b.config.NumSM; i++ {
		s := sm.NewStreamingMultiprocessor(i)
		s.Domain = g
		s.Limiter = warp.NewLaneLimiter(b.config.MaxParallelLanes)
		g.sms = append(g.sms, s)
		g.dispatcher.RegisterSM(s)
	}
}
