package dispatching

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/timing/sm"
)

var _ = Describe("Dispatcher", func() {
	var (
		sms []*sm.StreamingMultiprocessor
		d   *Dispatcher
	)

	setup := func(numSM, warpsPerSM int) {
		sms = nil
		d = NewDispatcher(warpsPerSM)
		for i := 0; i < numSM; i++ {
			s := sm.NewStreamingMultiprocessor(i)
			sms = append(sms, s)
			d.RegisterSM(s)
		}
	}

	It("should panic on a non-positive capacity", func() {
		Expect(func() { NewDispatcher(0) }).To(Panic())
	})

	It("should fill the first SM before the next one", func() {
		setup(2, 2)
		g := kernels.NewGrid(nopKernel, kernels.Dim{2}, kernels.Dim{32})

		r := d.Dispatch(NewWarpScheduler(g, 32))

		Expect(r.NumDropped).To(Equal(0))
		Expect(sms[0].NumWarps()).To(Equal(2))
		Expect(sms[1].NumWarps()).To(Equal(0))
		Expect(r.Assignments).To(HaveLen(2))
		Expect(r.Assignments[0].SMID).To(Equal(0))
		Expect(r.Assignments[1].SMID).To(Equal(0))
	})

	It("should move to the next SM when one is full", func() {
		setup(3, 2)
		g := kernels.NewGrid(nopKernel, kernels.Dim{5}, kernels.Dim{4})

		r := d.Dispatch(NewWarpScheduler(g, 4))

		Expect(sms[0].NumWarps()).To(Equal(2))
		Expect(sms[1].NumWarps()).To(Equal(2))
		Expect(sms[2].NumWarps()).To(Equal(1))
		Expect(sms[1].Warps()[0].ID).To(Equal(2))
		Expect(sms[2].Warps()[0].ID).To(Equal(4))
		Expect(r.NumDropped).To(Equal(0))
	})

	It("should drop warps beyond the total capacity", func() {
		setup(2, 2)
		g := kernels.NewGrid(nopKernel, kernels.Dim{6}, kernels.Dim{32})

		s := NewWarpScheduler(g, 32)
		r := d.Dispatch(s)

		Expect(r.Assignments).To(HaveLen(4))
		Expect(r.NumDropped).To(Equal(2))
		Expect(s.HasNext()).To(BeFalse())
		Expect(sms[0].NumWarps() + sms[1].NumWarps()).To(Equal(4))
	})
})
