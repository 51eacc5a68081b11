package main

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/memory"
	"gitlab.com/akita/simtgpu/timing/warp"
)

var _ = Describe("SharedReduce", func() {
	It("should sum every warp", func() {
		g := gpu.MakeBuilder().WithMemoryLatency(0, 0).Build("GPU")
		b := NewBenchmark(128)

		Expect(b.Run(g)).To(Succeed())
		Expect(b.Verify(g)).To(Succeed())

		sums, err := b.Sums(g)
		Expect(err).NotTo(HaveOccurred())
		Expect(sums).To(HaveLen(4))
		Expect(g.Memory().Shared().IsAllocated()).To(BeFalse())
	})

	It("should work with concurrent SMs and strict memory", func() {
		g := gpu.MakeBuilder().
			WithMemoryLatency(0, 0).
			WithConcurrentSMs().
			WithStrictMemory().
			Build("GPU")
		b := NewBenchmark(128)

		Expect(b.Run(g)).To(Succeed())
		Expect(b.Verify(g)).To(Succeed())
	})

	It("should finish with concurrent SMs limited to one warp of lanes", func() {
		g := gpu.MakeBuilder().
			WithMemoryLatency(0, 0).
			WithConcurrentSMs().
			WithMaxParallelLanes(32).
			Build("GPU")

		for i := 0; i < 10; i++ {
			b := NewBenchmark(128)

			Expect(b.Run(g)).To(Succeed())
			Expect(b.Verify(g)).To(Succeed())
		}
	})

	It("should refuse lane limits that would block the barrier", func() {
		g := gpu.MakeBuilder().
			WithMemoryLatency(0, 0).
			WithMaxParallelLanes(8).
			Build("GPU")

		Expect(NewBenchmark(64).Run(g)).NotTo(Succeed())
	})

	It("should fail when the vector exceeds the shared memory", func() {
		g := gpu.MakeBuilder().
			WithMemoryLatency(0, 0).
			WithSharedMemorySize(32).
			Build("GPU")

		Expect(NewBenchmark(64).Run(g)).NotTo(Succeed())
	})

	It("should turn failed accesses into faults without blocking the warp", func() {
		g := gpu.MakeBuilder().WithMemoryLatency(0, 0).Build("GPU")
		Expect(g.AllocateSharedMemory(24)).To(Succeed())
		a := &reduceArgs{
			Global:    g.Memory().Global(),
			Shared:    g.Memory().Shared(),
			Barriers:  []*warp.Barrier{warp.NewBarrier(32)},
			OutOffset: 32,
			WarpSize:  32,
		}

		r, err := g.Launch(kernels.NewGrid(warpSum,
			kernels.Dim{1}, kernels.Dim{32}, a))

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Results).To(HaveLen(32))
		Expect(r.Faults).NotTo(BeEmpty())

		var fault *warp.LaneFault
		Expect(errors.As(r.Faults[0], &fault)).To(BeTrue())
		Expect(errors.Is(fault, memory.ErrOutOfBounds)).To(BeTrue())
	})
})
