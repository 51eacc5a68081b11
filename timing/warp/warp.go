// Package warp provides the warp, the group of lanes that run the same kernel
// together and complete as a unit.
package warp

import (
	"fmt"
	"log"
	"sync"

	"gitlab.com/akita/akita/v3/sim"
	"gitlab.com/akita/simtgpu/kernels"
)

// State marks what state a warp is in.
type State int

// A list of all possible warp states.
const (
	StateReady     State = iota // Created, lanes not started
	StateRunning                // Lanes in flight
	StateCompleted              // All started lanes joined
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// A LaneFault records a lane whose kernel panicked.
type LaneFault struct {
	WarpID int
	LaneID int
	Value  interface{}
}

func (f *LaneFault) Error() string {
	return fmt.Sprintf("warp %d lane %d: kernel panicked: %v",
		f.WarpID, f.LaneID, f.Value)
}

// Unwrap returns the panic value when it is an error.
func (f *LaneFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// A Warp is a fixed number of lanes that run the same kernel. Result i always
// belongs to lane i. Inactive lanes are not run and keep a nil result.
type Warp struct {
	sync.RWMutex

	UID        string
	ID         int
	Kernel     kernels.Kernel
	Args       []interface{}
	ActiveMask []bool
	Results    []interface{}
	Faults     []error

	// Limiter bounds the number of lanes running at the same time. A nil
	// limiter runs every active lane at once.
	Limiter *LaneLimiter

	state State
}

// NewWarp creates a warp of size lanes with every lane active.
func NewWarp(
	id, size int,
	k kernels.Kernel,
	args ...interface{},
) *Warp {
	if size <= 0 {
		log.Panicf("warp size must be positive, got %d", size)
	}

	w := new(Warp)
	w.UID = sim.GetIDGenerator().Generate()
	w.ID = id
	w.Kernel = k
	w.Args = args
	w.ActiveMask = make([]bool, size)
	w.Results = make([]interface{}, size)
	w.Faults = make([]error, size)

	for i := range w.ActiveMask {
		w.ActiveMask[i] = true
	}

	return w
}

// Size returns the number of lanes.
func (w *Warp) Size() int {
	return len(w.ActiveMask)
}

// SetActive enables or disables a lane. It must be called before Execute.
func (w *Warp) SetActive(lane int, active bool) {
	w.mustBeReady()
	w.ActiveMask[lane] = active
}

// NumActive returns the number of active lanes.
func (w *Warp) NumActive() int {
	n := 0
	for _, a := range w.ActiveMask {
		if a {
			n++
		}
	}
	return n
}

// State returns the state of the warp.
func (w *Warp) State() State {
	w.RLock()
	defer w.RUnlock()

	return w.state
}

func (w *Warp) setState(s State) {
	w.Lock()
	w.state = s
	w.Unlock()
}

func (w *Warp) mustBeReady() {
	if s := w.State(); s != StateReady {
		log.Panicf("warp %d is %s, cannot be changed or run again", w.ID, s)
	}
}

// Execute runs every active lane concurrently and returns once all of them
// finished. A warp can only be executed once.
func (w *Warp) Execute() {
	w.mustBeReady()
	w.setState(StateRunning)

	var wg sync.WaitGroup
	for lane, active := range w.ActiveMask {
		if !active {
			continue
		}

		w.Limiter.Acquire()
		wg.Add(1)

		go func(lane int) {
			defer wg.Done()
			defer w.Limiter.Release()

			w.runLane(lane)
		}(lane)
	}
	wg.Wait()

	w.setState(StateCompleted)
}

func (w *Warp) runLane(lane int) {
	defer func() {
		if v := recover(); v != nil {
			fault := &LaneFault{WarpID: w.ID, LaneID: lane, Value: v}
			w.Faults[lane] = fault
			log.Printf("%v", fault)
		}
	}()

	w.Results[lane] = w.Kernel(w.ID, lane, w.Args...)
}
