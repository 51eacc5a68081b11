// Package gpu provides the SIMT GPU, the facade that owns the memory, the
// streaming multiprocessors and the dispatcher, and runs kernel launches.
package gpu

import (
	"sync"
	"time"

	"gitlab.com/akita/akita/v3/sim"
	"gitlab.com/akita/akita/v3/tracing"
	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/memory"
	"gitlab.com/akita/simtgpu/profiler"
	"gitlab.com/akita/simtgpu/timing/dispatching"
	"gitlab.com/akita/simtgpu/timing/sm"
)

// A LaunchResult is the outcome of one kernel launch.
type LaunchResult struct {
	LaunchID   string
	KernelName string

	// Results holds one value per executed lane, ordered by SM id, then by
	// dispatch order within the SM, then by lane id.
	Results []interface{}

	// Faults holds the *warp.LaneFault of every lane that panicked, in the
	// same order as Results.
	Faults []error

	NumWarps           int
	NumDispatchedWarps int
	NumDroppedWarps    int
	Duration           time.Duration
}

// A GPU runs kernel launches. Launches are serialized.
type GPU struct {
	sim.HookableBase

	name     string
	config   Config
	profiler profiler.Profiler

	memory     *memory.Subsystem
	sms        []*sm.StreamingMultiprocessor
	dispatcher *dispatching.Dispatcher

	launchMutex sync.Mutex
}

// Name returns the name of the GPU.
func (g *GPU) Name() string {
	return g.name
}

// Config returns the configuration the GPU was built with.
func (g *GPU) Config() Config {
	return g.config
}

// Memory returns the memory subsystem. Kernels usually receive its tiers as
// launch arguments.
func (g *GPU) Memory() *memory.Subsystem {
	return g.memory
}

// SMs returns the streaming multiprocessors in id order.
func (g *GPU) SMs() []*sm.StreamingMultiprocessor {
	out := make([]*sm.StreamingMultiprocessor, len(g.sms))
	copy(out, g.sms)
	return out
}

// AllocateSharedMemory replaces the shared memory region with a zeroed region
// of size cells.
func (g *GPU) AllocateSharedMemory(size int) error {
	if size > g.config.SharedMemorySize {
		return &memory.AccessError{
			Op:     "allocate",
			Space:  profiler.SpaceShared,
			Length: size,
			Limit:  g.config.SharedMemorySize,
			Err:    memory.ErrCapacityExceeded,
		}
	}

	return g.memory.AllocateShared(size)
}

// ReleaseSharedMemory drops the shared memory region, if any.
func (g *GPU) ReleaseSharedMemory() {
	g.memory.ReleaseShared()
}

// LaunchKernel runs the kernel over the given grid and block and returns the
// lane results.
func (g *GPU) LaunchKernel(
	k kernels.Kernel,
	gridDim, blockDim kernels.Dim,
	args ...interface{},
) ([]interface{}, error) {
	r, err := g.Launch(kernels.NewGrid(k, gridDim, blockDim, args...))
	if err != nil {
		return nil, err
	}

	return r.Results, nil
}

// Launch splits the grid into warps, dispatches them onto the SMs and runs
// them. Warps that exceed the SM capacity are not executed.
func (g *GPU) Launch(grid *kernels.Grid) (*LaunchResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	g.launchMutex.Lock()
	defer g.launchMutex.Unlock()

	start := time.Now()
	tracing.StartTask(grid.ID, "", g, "kernel", grid.Name, grid)

	scheduler := dispatching.NewWarpScheduler(grid, g.config.WarpSize)

	if g.profiler != nil {
		g.profiler.OnLaunchStart()
	}

	dispatched := g.dispatcher.Dispatch(scheduler)

	results := g.executeSMs(grid.ID)

	r := &LaunchResult{
		LaunchID:           grid.ID,
		KernelName:         grid.Name,
		Results:            results,
		Faults:             collectFaults(dispatched),
		NumWarps:           scheduler.NumWarps(),
		NumDispatchedWarps: len(dispatched.Assignments),
		NumDroppedWarps:    dispatched.NumDropped,
		Duration:           time.Since(start),
	}

	tracing.EndTask(grid.ID, g)

	if g.profiler != nil {
		g.profiler.OnKernelExecution(profiler.KernelExecution{
			LaunchID:   grid.ID,
			KernelName: grid.Name,
			GridDim:    grid.GridDim,
			BlockDim:   grid.BlockDim,
			Duration:   r.Duration,
		})
	}

	return r, nil
}

func (g *GPU) executeSMs(launchID string) []interface{} {
	perSM := make([][]interface{}, len(g.sms))

	for _, s := range g.sms {
		s.ParentTaskID = launchID
	}

	if g.config.ConcurrentSMs {
		var wg sync.WaitGroup
		for i, s := range g.sms {
			wg.Add(1)
			go func(i int, s *sm.StreamingMultiprocessor) {
				defer wg.Done()
				perSM[i] = s.ExecuteWarps()
			}(i, s)
		}
		wg.Wait()
	} else {
		for i, s := range g.sms {
			perSM[i] = s.ExecuteWarps()
		}
	}

	results := make([]interface{}, 0)
	for _, r := range perSM {
		results = append(results, r...)
	}

	return results
}

// collectFaults relies on assignments being in SM order, which is also the
// order in which results are concatenated.
func collectFaults(d dispatching.DispatchResult) []error {
	var faults []error

	for _, a := range d.Assignments {
		for _, f := range a.Warp.Faults {
			if f != nil {
				faults = append(faults, f)
			}
		}
	}

	return faults
}
