package main

import (
	"fmt"

	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/memory"
	"gitlab.com/akita/simtgpu/timing/warp"
)

type reduceArgs struct {
	Global    *memory.GlobalMemory
	Shared    *memory.SharedMemory
	Barriers  []*warp.Barrier
	OutOffset int
	WarpSize  int
}

// warpSum sums the elements of each warp in shared memory with a tree
// reduction, and lane 0 writes the sum of warp w to out[w].
//
// A lane whose access failed keeps meeting its siblings at the barrier until
// the reduction is over, then panics so that the failure becomes a lane
// fault.
func warpSum(warpID, laneID int, args ...interface{}) interface{} {
	a := args[0].(*reduceArgs)
	b := a.Barriers[warpID]
	base := warpID * a.WarpSize
	i := kernels.GlobalThreadID(warpID, laneID, a.WarpSize)

	v, err := a.Global.Load(i)
	if err == nil {
		err = a.Shared.Store(base+laneID, v)
	}

	for stride := a.WarpSize / 2; stride > 0; stride /= 2 {
		warp.SyncThreads(b, laneID)

		if err != nil || laneID >= stride {
			continue
		}

		err = a.addPair(base+laneID, base+laneID+stride)
	}

	if err != nil {
		panic(err)
	}

	if laneID != 0 {
		return nil
	}

	sum, err := a.Shared.Load(base)
	if err == nil {
		err = a.Global.Store(a.OutOffset+warpID, sum)
	}
	if err != nil {
		panic(err)
	}

	return sum
}

// addPair stores shared[dst] + shared[src] into shared[dst].
func (a *reduceArgs) addPair(dst, src int) error {
	x, err := a.Shared.Load(dst)
	if err != nil {
		return err
	}

	y, err := a.Shared.Load(src)
	if err != nil {
		return err
	}

	return a.Shared.Store(dst, x+y)
}

// Benchmark sums the elements of every warp-sized chunk of a vector.
type Benchmark struct {
	N int

	input   []float32
	numSums int
}

// NewBenchmark creates a benchmark over n elements.
func NewBenchmark(n int) *Benchmark {
	return &Benchmark{N: n}
}

// Name returns the name of the benchmark.
func (b *Benchmark) Name() string {
	return "sharedreduce"
}

// Run stages each warp's chunk in shared memory and reduces it there.
func (b *Benchmark) Run(g *gpu.GPU) error {
	c := g.Config()

	if c.WarpSize&(c.WarpSize-1) != 0 {
		return fmt.Errorf("warp size %d is not a power of two", c.WarpSize)
	}

	if c.MaxParallelLanes != 0 && c.MaxParallelLanes < c.WarpSize {
		return fmt.Errorf("barriers of %d lanes cannot pass with %d parallel lanes",
			c.WarpSize, c.MaxParallelLanes)
	}

	if b.N%c.WarpSize != 0 {
		return fmt.Errorf("%d elements are not a multiple of the warp size %d",
			b.N, c.WarpSize)
	}

	b.input = make([]float32, b.N)
	for i := range b.input {
		b.input[i] = float32(i % 7)
	}

	if err := g.Memory().CopyToGlobal(b.input, 0); err != nil {
		return err
	}

	if err := g.AllocateSharedMemory(b.N); err != nil {
		return err
	}
	defer g.ReleaseSharedMemory()

	numWarps := b.N / c.WarpSize
	a := &reduceArgs{
		Global:    g.Memory().Global(),
		Shared:    g.Memory().Shared(),
		OutOffset: b.N,
		WarpSize:  c.WarpSize,
	}
	for i := 0; i < numWarps; i++ {
		a.Barriers = append(a.Barriers, warp.NewBarrier(c.WarpSize))
	}

	r, err := g.Launch(kernels.NewGrid(warpSum,
		kernels.Dim{numWarps}, kernels.Dim{c.WarpSize}, a))
	if err != nil {
		return err
	}

	if len(r.Faults) > 0 {
		return r.Faults[0]
	}

	b.numSums = r.NumDispatchedWarps
	return nil
}

// Verify compares the sums with a host side computation.
func (b *Benchmark) Verify(g *gpu.GPU) error {
	warpSize := g.Config().WarpSize

	sums, err := b.Sums(g)
	if err != nil {
		return err
	}

	for w, sum := range sums {
		var expected float32
		for _, v := range b.input[w*warpSize : (w+1)*warpSize] {
			expected += v
		}

		if sum != expected {
			return fmt.Errorf("mismatch at warp %d, expected %f, but got %f",
				w, expected, sum)
		}
	}

	return nil
}

// Sums returns the per-warp sums computed by the last run.
func (b *Benchmark) Sums(g *gpu.GPU) ([]float32, error) {
	return g.Memory().CopyFromGlobal(b.N, b.numSums)
}
