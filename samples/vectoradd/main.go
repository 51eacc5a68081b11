package main

import (
	"flag"
	"fmt"

	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/samples/runner"
)

var n = flag.Int("N", 64, "The number of elements of the vector.")
var printFlag = flag.Bool("print", true, "Print the output vector.")

func main() {
	flag.Parse()

	runner := new(runner.Runner).ParseFlag().Init()

	benchmark := NewBenchmark(*n)
	runner.AddSample(benchmark)

	if *printFlag {
		runner.AddSample(printer{benchmark})
	}

	runner.Run()
}

type printer struct {
	b *Benchmark
}

func (p printer) Name() string {
	return "print"
}

func (p printer) Run(g *gpu.GPU) error {
	out, err := p.b.Output(g, p.b.N)
	if err != nil {
		return err
	}

	fmt.Println("Output:", out)
	return nil
}

func (p printer) Verify(g *gpu.GPU) error {
	return nil
}
