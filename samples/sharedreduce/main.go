package main

import (
	"flag"

	"gitlab.com/akita/simtgpu/samples/runner"
)

var n = flag.Int("N", 128, "The number of elements to reduce.")

func main() {
	flag.Parse()

	runner := new(runner.Runner).ParseFlag().Init()

	runner.AddSample(NewBenchmark(*n))

	runner.Run()
}
