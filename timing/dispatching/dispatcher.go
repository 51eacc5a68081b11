package dispatching

import (
	"log"

	"github.com/pkg/math"
	"gitlab.com/akita/simtgpu/timing/sm"
	"gitlab.com/akita/simtgpu/timing/warp"
)

// An Assignment records which SM a warp was given to.
type Assignment struct {
	SMID int
	Warp *warp.Warp
}

// A DispatchResult describes how the warps of a launch were placed.
type DispatchResult struct {
	Assignments []Assignment
	NumDropped  int
}

type algorithm interface {
	RegisterSM(sm *sm.StreamingMultiprocessor)
	Assign(s *WarpScheduler) []Assignment
}

// sequentialFillAlgorithm fills each SM up to its capacity, in SM id order,
// before moving to the next SM.
type sequentialFillAlgorithm struct {
	warpsPerSM int
	sms        []*sm.StreamingMultiprocessor
}

func (a *sequentialFillAlgorithm) RegisterSM(s *sm.StreamingMultiprocessor) {
	a.sms = append(a.sms, s)
}

func (a *sequentialFillAlgorithm) Assign(s *WarpScheduler) []Assignment {
	assignments := make([]Assignment, 0)

	for _, target := range a.sms {
		n := math.MinInt(a.warpsPerSM, s.Remaining())
		for i := 0; i < n; i++ {
			w := s.Next()
			target.AddWarp(w)
			assignments = append(assignments, Assignment{
				SMID: target.ID,
				Warp: w,
			})
		}
	}

	return assignments
}

// A Dispatcher places the warps of a launch onto the registered SMs. Each SM
// receives at most warpsPerSM warps; warps that do not fit are never run.
type Dispatcher struct {
	warpsPerSM int
	alg        algorithm
}

// NewDispatcher creates a dispatcher with the sequential fill policy.
func NewDispatcher(warpsPerSM int) *Dispatcher {
	if warpsPerSM <= 0 {
		log.Panicf("warps per SM must be positive, got %d", warpsPerSM)
	}

	d := new(Dispatcher)
	d.warpsPerSM = warpsPerSM
	d.alg = &sequentialFillAlgorithm{warpsPerSM: warpsPerSM}
	return d
}

// RegisterSM allows the dispatcher to dispatch warps to the SM. SMs are
// filled in registration order.
func (d *Dispatcher) RegisterSM(s *sm.StreamingMultiprocessor) {
	d.alg.RegisterSM(s)
}

// Dispatch drains the scheduler onto the SMs.
func (d *Dispatcher) Dispatch(s *WarpScheduler) DispatchResult {
	r := DispatchResult{
		Assignments: d.alg.Assign(s),
	}

	for s.HasNext() {
		s.Next()
		r.NumDropped++
	}

	if r.NumDropped > 0 {
		log.Printf("%d of %d warps exceed the SM capacity and are not executed",
			r.NumDropped, s.NumWarps())
	}

	return r
}
