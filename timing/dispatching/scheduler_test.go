package dispatching

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gitlab.com/akita/simtgpu/kernels"
)

func nopKernel(warpID, laneID int, args ...interface{}) interface{} {
	return nil
}

var _ = Describe("WarpScheduler", func() {
	It("should create one warp per warp size threads", func() {
		g := kernels.NewGrid(nopKernel, kernels.Dim{2, 2}, kernels.Dim{32})

		s := NewWarpScheduler(g, 32)

		Expect(s.NumWarps()).To(Equal(4))
		Expect(s.Remaining()).To(Equal(4))
	})

	It("should drop the remainder threads", func() {
		g := kernels.NewGrid(nopKernel, kernels.Dim{1}, kernels.Dim{70})

		s := NewWarpScheduler(g, 32)

		Expect(s.NumWarps()).To(Equal(2))
	})

	It("should create no warps when the launch is smaller than a warp", func() {
		g := kernels.NewGrid(nopKernel, kernels.Dim{1}, kernels.Dim{8})

		s := NewWarpScheduler(g, 32)

		Expect(s.NumWarps()).To(Equal(0))
		Expect(s.HasNext()).To(BeFalse())
		Expect(s.Next()).To(BeNil())
	})

	It("should hand out warps in id order", func() {
		g := kernels.NewGrid(nopKernel, kernels.Dim{3}, kernels.Dim{4}, "arg")

		s := NewWarpScheduler(g, 4)

		for id := 0; id < 3; id++ {
			Expect(s.HasNext()).To(BeTrue())
			w := s.Next()
			Expect(w.ID).To(Equal(id))
			Expect(w.Size()).To(Equal(4))
			Expect(w.NumActive()).To(Equal(4))
			Expect(w.Args).To(Equal([]interface{}{"arg"}))
			Expect(w.Limiter).To(BeNil())
		}
		Expect(s.HasNext()).To(BeFalse())
	})
})
