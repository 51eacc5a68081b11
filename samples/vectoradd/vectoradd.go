package main

import (
	"fmt"
	"log"

	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/memory"
)

// vectorAdd writes out[i] = in[i] + warpID for the launch-wide thread i.
//
// Args: the global memory, the input offset, the output offset and the warp
// size.
func vectorAdd(warpID, laneID int, args ...interface{}) interface{} {
	m := args[0].(*memory.GlobalMemory)
	inOffset := args[1].(int)
	outOffset := args[2].(int)
	warpSize := args[3].(int)

	i := kernels.GlobalThreadID(warpID, laneID, warpSize)

	v, err := m.Load(inOffset + i)
	if err != nil {
		return err
	}

	v += float32(warpID)
	if err := m.Store(outOffset+i, v); err != nil {
		return err
	}

	return v
}

// Benchmark adds the warp id to every element of a vector.
type Benchmark struct {
	N         int
	BlockSize int

	input   []float32
	results []interface{}
}

// NewBenchmark creates a benchmark over n elements.
func NewBenchmark(n int) *Benchmark {
	return &Benchmark{
		N:         n,
		BlockSize: 32,
	}
}

// Name returns the name of the benchmark.
func (b *Benchmark) Name() string {
	return "vectoradd"
}

// Run copies the input to global memory and launches the kernel. The input
// lives at offset 0, the output right after it.
func (b *Benchmark) Run(g *gpu.GPU) error {
	if b.N%b.BlockSize != 0 {
		return fmt.Errorf("%d elements are not a multiple of the block size %d",
			b.N, b.BlockSize)
	}

	b.input = make([]float32, b.N)
	for i := range b.input {
		b.input[i] = float32(i)
	}

	if err := g.Memory().CopyToGlobal(b.input, 0); err != nil {
		return err
	}

	r, err := g.Launch(kernels.NewGrid(vectorAdd,
		kernels.Dim{b.N / b.BlockSize}, kernels.Dim{b.BlockSize},
		g.Memory().Global(), 0, b.N, g.Config().WarpSize))
	if err != nil {
		return err
	}

	if r.NumDroppedWarps > 0 {
		log.Printf("%d warps did not fit on the GPU", r.NumDroppedWarps)
	}

	b.results = r.Results
	return nil
}

// Verify checks the output against a host side computation.
func (b *Benchmark) Verify(g *gpu.GPU) error {
	out, err := g.Memory().CopyFromGlobal(b.N, b.N)
	if err != nil {
		return err
	}

	warpSize := g.Config().WarpSize
	for i := 0; i < len(b.results); i++ {
		expected := b.input[i] + float32(i/warpSize)
		if out[i] != expected {
			return fmt.Errorf("mismatch at %d, expected %f, but got %f",
				i, expected, out[i])
		}
	}

	return nil
}

// Output returns the first n output elements.
func (b *Benchmark) Output(g *gpu.GPU, n int) ([]float32, error) {
	return g.Memory().CopyFromGlobal(b.N, n)
}
