// Package runner defines how the sample programs are configured and run.
package runner

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"
	"gitlab.com/akita/akita/v3/tracing"
	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/memory"
	"gitlab.com/akita/simtgpu/monitoring"
	"gitlab.com/akita/simtgpu/profiler"
)

var configFlag = flag.String("config", "",
	"A JSON file with the GPU configuration.")
var numSMFlag = flag.Int("num-sms", 0,
	"Overrides the number of SMs.")
var warpsPerSMFlag = flag.Int("warps-per-sm", 0,
	"Overrides the number of warps each SM can hold.")
var parallelLanesFlag = flag.Int("max-parallel-lanes", -1,
	"Bounds the number of lanes running at once, 0 for no bound.")
var concurrentSMsFlag = flag.Bool("concurrent-sms", false,
	"Runs the SMs of a launch concurrently.")
var strictMemoryFlag = flag.Bool("strict-memory", false,
	"Rejects overlapping concurrent memory accesses.")
var noLatencyFlag = flag.Bool("no-latency", false,
	"Disables the simulated memory latency.")
var verifyFlag = flag.Bool("verify", false,
	"Verify the results of the samples.")
var reportFlag = flag.String("report", "",
	"Writes the profiler report to the given JSON file at exit.")
var reportMemOpsFlag = flag.Bool("report-mem-ops", false,
	"Includes every memory operation in the report.")
var traceTasksFlag = flag.Bool("trace-tasks", false,
	"Times kernel, SM and warp tasks and prints their average duration.")
var monitorFlag = flag.Bool("monitor", false,
	"Serves the profiling data over HTTP until interrupted.")
var monitorPortFlag = flag.Int("monitor-port", 0,
	"The port of the monitoring server, random when not set.")

// A Sample is a program that runs kernels on a GPU.
type Sample interface {
	Name() string
	Run(g *gpu.GPU) error
	Verify(g *gpu.GPU) error
}

// Runner builds a GPU and runs samples on it.
type Runner struct {
	Config       gpu.Config
	Verify       bool
	ReportPath   string
	ReportMemOps bool
	TraceTasks   bool
	Monitor      bool
	MonitorPort  int

	gpu       *gpu.GPU
	collector *profiler.Collector
	tracer    *profiler.TaskTracer
	monitor   *monitoring.Monitor
	samples   []Sample
}

// ParseFlag applies the command line flags to the runner.
func (r *Runner) ParseFlag() *Runner {
	r.Config = gpu.DefaultConfig()

	if *configFlag != "" {
		c, err := gpu.LoadConfig(*configFlag)
		if err != nil {
			log.Panic(err)
		}
		r.Config = c
	}

	if *numSMFlag > 0 {
		r.Config.NumSM = *numSMFlag
	}

	if *warpsPerSMFlag > 0 {
		r.Config.WarpsPerSM = *warpsPerSMFlag
	}

	if *parallelLanesFlag >= 0 {
		r.Config.MaxParallelLanes = *parallelLanesFlag
	}

	if *concurrentSMsFlag {
		r.Config.ConcurrentSMs = true
	}

	if *strictMemoryFlag {
		r.Config.StrictMemory = true
	}

	if *noLatencyFlag {
		r.Config.Latency = memory.NoLatency()
	}

	r.Verify = *verifyFlag
	r.ReportPath = *reportFlag
	r.ReportMemOps = *reportMemOpsFlag
	r.TraceTasks = *traceTasksFlag
	r.Monitor = *monitorFlag
	r.MonitorPort = *monitorPortFlag

	return r
}

// Init builds the GPU and the profiling tools.
func (r *Runner) Init() *Runner {
	if r.Config.NumSM == 0 {
		r.Config = gpu.DefaultConfig()
	}

	r.collector = profiler.NewCollector()
	r.gpu = gpu.MakeBuilder().
		WithConfig(r.Config).
		WithProfiler(r.collector).
		Build("GPU")

	if r.TraceTasks || r.Monitor {
		r.tracer = profiler.NewTaskTracer()
		tracing.CollectTrace(r.gpu, r.tracer)
	}

	if r.Monitor {
		r.monitor = monitoring.NewMonitor().WithPortNumber(r.MonitorPort)
		r.monitor.RegisterGPU(r.gpu)
		r.monitor.RegisterCollector(r.collector)
		r.monitor.RegisterTracer(r.tracer)
		r.monitor.StartServer()
	}

	if r.ReportPath != "" {
		atexit.Register(func() {
			if err := r.writeReport(); err != nil {
				log.Print(err)
			}
		})
	}

	return r
}

// GPU returns the GPU the samples run on.
func (r *Runner) GPU() *gpu.GPU {
	return r.gpu
}

// Collector returns the profiler attached to the GPU.
func (r *Runner) Collector() *profiler.Collector {
	return r.collector
}

// AddSample adds a sample to run.
func (r *Runner) AddSample(s Sample) {
	r.samples = append(r.samples, s)
}

// Run runs all the samples, prints the summary and exits.
func (r *Runner) Run() {
	if err := r.runSamples(); err != nil {
		log.Panic(err)
	}

	r.printSummary()

	if r.Monitor {
		r.waitForInterrupt()
	}

	atexit.Exit(0)
}

func (r *Runner) runSamples() error {
	for _, s := range r.samples {
		if err := s.Run(r.gpu); err != nil {
			return fmt.Errorf("running %s: %w", s.Name(), err)
		}

		if !r.Verify {
			continue
		}

		if err := s.Verify(r.gpu); err != nil {
			return fmt.Errorf("verifying %s: %w", s.Name(), err)
		}
		log.Printf("%s passed\n", s.Name())
	}

	return nil
}

func (r *Runner) printSummary() {
	r.collector.PrintSummary(os.Stdout)

	if r.tracer == nil {
		return
	}

	for _, kind := range []string{"kernel", "sm", "warp"} {
		fmt.Printf("Average %s time: %.6f seconds\n",
			kind, r.tracer.AverageDuration(kind).Seconds())
	}
}

func (r *Runner) writeReport() error {
	return r.collector.WriteReport(r.ReportPath, r.ReportMemOps)
}

func (r *Runner) waitForInterrupt() {
	fmt.Println("Press Ctrl+C to exit.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}
