package profiler

import (
	"sync"
	"time"

	"github.com/google/btree"
)

type memOpItem struct {
	op  MemOp
	seq uint64
}

func (i memOpItem) Less(than btree.Item) bool {
	o := than.(memOpItem)
	if i.op.Timestamp.Equal(o.op.Timestamp) {
		return i.seq < o.seq
	}
	return i.op.Timestamp.Before(o.op.Timestamp)
}

// A Collector is a Profiler that keeps every reported event in memory.
type Collector struct {
	sync.Mutex

	created     time.Time
	launchStart time.Time
	numLaunches int
	kernels     []KernelExecution
	memOps      *btree.BTree
	seq         uint64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	c := new(Collector)
	c.created = time.Now()
	c.memOps = btree.New(16)
	return c
}

// OnLaunchStart marks the start of a launch.
func (c *Collector) OnLaunchStart() {
	c.Lock()
	defer c.Unlock()

	c.launchStart = time.Now()
	c.numLaunches++
}

// OnMemoryOp records a memory operation. A zero timestamp is replaced by the
// time the operation is received.
func (c *Collector) OnMemoryOp(op MemOp) {
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}

	c.Lock()
	defer c.Unlock()

	c.memOps.ReplaceOrInsert(memOpItem{op: op, seq: c.seq})
	c.seq++
}

// OnKernelExecution records a completed launch.
func (c *Collector) OnKernelExecution(exec KernelExecution) {
	c.Lock()
	defer c.Unlock()

	c.kernels = append(c.kernels, exec)
}

// StartTime returns the creation time of the collector.
func (c *Collector) StartTime() time.Time {
	return c.created
}

// LastLaunchStart returns when the most recent launch started, or the zero
// time if there was none.
func (c *Collector) LastLaunchStart() time.Time {
	c.Lock()
	defer c.Unlock()

	return c.launchStart
}

// NumLaunches returns how many launches have started.
func (c *Collector) NumLaunches() int {
	c.Lock()
	defer c.Unlock()

	return c.numLaunches
}

// KernelExecutions returns the recorded launches in completion order.
func (c *Collector) KernelExecutions() []KernelExecution {
	c.Lock()
	defer c.Unlock()

	out := make([]KernelExecution, len(c.kernels))
	copy(out, c.kernels)
	return out
}

// NumMemOps returns how many memory operations were recorded.
func (c *Collector) NumMemOps() int {
	c.Lock()
	defer c.Unlock()

	return c.memOps.Len()
}

// MemOps returns all the recorded memory operations ordered by timestamp.
func (c *Collector) MemOps() []MemOp {
	c.Lock()
	defer c.Unlock()

	out := make([]MemOp, 0, c.memOps.Len())
	c.memOps.Ascend(func(i btree.Item) bool {
		out = append(out, i.(memOpItem).op)
		return true
	})
	return out
}

// MemOpsBetween returns the memory operations with a timestamp in
// [from, to), ordered by timestamp.
func (c *Collector) MemOpsBetween(from, to time.Time) []MemOp {
	c.Lock()
	defer c.Unlock()

	lo := memOpItem{op: MemOp{Timestamp: from}}
	hi := memOpItem{op: MemOp{Timestamp: to}}

	out := make([]MemOp, 0)
	c.memOps.AscendRange(lo, hi, func(i btree.Item) bool {
		out = append(out, i.(memOpItem).op)
		return true
	})
	return out
}
