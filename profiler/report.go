package profiler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// A UsagePoint places one memory transfer on the time axis.
type UsagePoint struct {
	Time      float64 `json:"time"`
	SizeBytes int     `json:"size"`
}

// MemoryUsage splits transfers into reads and writes over time, measured in
// seconds since the collector was created.
type MemoryUsage struct {
	Reads  []UsagePoint `json:"reads"`
	Writes []UsagePoint `json:"writes"`
}

// ProfileReport is the JSON document written by WriteReport.
type ProfileReport struct {
	TotalDuration float64           `json:"total_duration"`
	Kernels       []KernelExecution `json:"kernels"`
	NumMemOps     int               `json:"num_mem_ops"`
	MemoryUsage   MemoryUsage       `json:"memory_usage"`
	MemOps        []MemOp           `json:"mem_ops,omitempty"`
}

// MemoryUsage returns the read and write transfers over time.
func (c *Collector) MemoryUsage() MemoryUsage {
	usage := MemoryUsage{
		Reads:  make([]UsagePoint, 0),
		Writes: make([]UsagePoint, 0),
	}

	for _, op := range c.MemOps() {
		p := UsagePoint{
			Time:      op.Timestamp.Sub(c.created).Seconds(),
			SizeBytes: op.SizeBytes,
		}

		switch op.Type {
		case MemRead:
			usage.Reads = append(usage.Reads, p)
		case MemWrite:
			usage.Writes = append(usage.Writes, p)
		}
	}

	return usage
}

// BuildReport snapshots the collector. The raw memory operations are only
// included when withMemOps is set.
func (c *Collector) BuildReport(withMemOps bool) ProfileReport {
	r := ProfileReport{
		TotalDuration: c.TotalDuration().Seconds(),
		Kernels:       c.KernelExecutions(),
		NumMemOps:     c.NumMemOps(),
		MemoryUsage:   c.MemoryUsage(),
	}

	if withMemOps {
		r.MemOps = c.MemOps()
	}

	return r
}

// WriteReport dumps the report as indented JSON.
func (c *Collector) WriteReport(path string, withMemOps bool) error {
	jsonStr, err := json.MarshalIndent(c.BuildReport(withMemOps), "", " ")
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(jsonStr)
	return err
}

// TotalDuration returns the time since the most recent launch started, or
// since the collector was created when nothing was launched yet.
func (c *Collector) TotalDuration() time.Duration {
	start := c.LastLaunchStart()
	if start.IsZero() {
		start = c.created
	}

	return time.Since(start)
}

// PrintSummary writes a human readable overview of the collected traces.
func (c *Collector) PrintSummary(w io.Writer) {
	title := color.New(color.FgCyan, color.Bold)
	name := color.New(color.FgGreen)

	title.Fprintf(w, "Total profiling duration: %.4f seconds\n",
		c.TotalDuration().Seconds())

	title.Fprintln(w, "Kernel Execution Summary:")
	for _, k := range c.KernelExecutions() {
		fmt.Fprintf(w, "- Kernel: %s, Grid: %s, Block: %s, Duration: %.4f seconds\n",
			name.Sprint(k.KernelName), k.GridDim, k.BlockDim,
			k.Duration.Seconds())
	}

	title.Fprintf(w, "Total memory operations: %d\n", c.NumMemOps())
}
