package runner

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/memory"
)

type fakeSample struct {
	runs      int
	verifies  int
	verifyErr error
}

func (s *fakeSample) Name() string {
	return "fake"
}

func (s *fakeSample) Run(g *gpu.GPU) error {
	s.runs++
	_, err := g.LaunchKernel(
		func(warpID, laneID int, args ...interface{}) interface{} {
			return laneID
		},
		kernels.Dim{1}, kernels.Dim{32})
	return err
}

func (s *fakeSample) Verify(g *gpu.GPU) error {
	s.verifies++
	return s.verifyErr
}

var _ = Describe("Runner", func() {
	var r *Runner

	BeforeEach(func() {
		c := gpu.DefaultConfig()
		c.Latency = memory.NoLatency()
		r = &Runner{Config: c}
	})

	It("should build a GPU with a collector", func() {
		r.Init()

		Expect(r.GPU()).NotTo(BeNil())
		Expect(r.GPU().Config().NumSM).To(Equal(2))
		Expect(r.Collector()).NotTo(BeNil())
	})

	It("should run samples without verifying by default", func() {
		s := &fakeSample{}
		r.Init()
		r.AddSample(s)

		Expect(r.runSamples()).To(Succeed())
		Expect(s.runs).To(Equal(1))
		Expect(s.verifies).To(Equal(0))
		Expect(r.Collector().KernelExecutions()).To(HaveLen(1))
	})

	It("should stop at the first failed verification", func() {
		failing := &fakeSample{verifyErr: errors.New("mismatch")}
		next := &fakeSample{}
		r.Verify = true
		r.Init()
		r.AddSample(failing)
		r.AddSample(next)

		err := r.runSamples()

		Expect(err).To(MatchError(ContainSubstring("verifying fake")))
		Expect(next.runs).To(Equal(0))
	})

	It("should write the profiler report", func() {
		dir, err := os.MkdirTemp("", "runner")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		r.ReportPath = filepath.Join(dir, "report.json")
		r.Init()
		r.AddSample(&fakeSample{})
		Expect(r.runSamples()).To(Succeed())

		Expect(r.writeReport()).To(Succeed())
		Expect(r.ReportPath).To(BeAnExistingFile())
	})

	It("should trace tasks when asked", func() {
		r.TraceTasks = true
		r.Init()
		r.AddSample(&fakeSample{})

		Expect(r.runSamples()).To(Succeed())
		Expect(r.tracer.Records("kernel")).To(HaveLen(1))
	})
})
