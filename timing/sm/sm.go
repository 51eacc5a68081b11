// Package sm provides the streaming multiprocessor, the executor that runs
// the warps assigned to it one after another.
package sm

import (
	"fmt"

	"gitlab.com/akita/akita/v3/sim"
	"gitlab.com/akita/akita/v3/tracing"
	"gitlab.com/akita/simtgpu/timing/warp"
)

// A StreamingMultiprocessor holds a FIFO queue of warps. Warps of the same SM
// never run at the same time.
type StreamingMultiprocessor struct {
	ID int

	// Domain receives the "sm" and "warp" tasks of the SM. Tasks are nested
	// under ParentTaskID.
	Domain       tracing.NamedHookable
	ParentTaskID string

	// Limiter bounds the lanes of the SM's warps. Warps of one SM never
	// overlap, so the slots are never held by two warps at once.
	Limiter *warp.LaneLimiter

	queue []*warp.Warp
}

// NewStreamingMultiprocessor creates an SM with an empty queue.
func NewStreamingMultiprocessor(id int) *StreamingMultiprocessor {
	sm := new(StreamingMultiprocessor)
	sm.ID = id
	sm.queue = make([]*warp.Warp, 0)
	return sm
}

// Name returns the name of the SM.
func (sm *StreamingMultiprocessor) Name() string {
	return fmt.Sprintf("SM[%d]", sm.ID)
}

// AddWarp appends a warp to the queue and makes it run under the SM's
// limiter. The SM does not check any capacity; the caller decides how many
// warps an SM gets.
func (sm *StreamingMultiprocessor) AddWarp(w *warp.Warp) {
	w.Limiter = sm.Limiter
	sm.queue = append(sm.queue, w)
}

// NumWarps returns the number of queued warps.
func (sm *StreamingMultiprocessor) NumWarps() int {
	return len(sm.queue)
}

// Warps returns the queued warps in queue order.
func (sm *StreamingMultiprocessor) Warps() []*warp.Warp {
	out := make([]*warp.Warp, len(sm.queue))
	copy(out, sm.queue)
	return out
}

// ExecuteWarps runs the queued warps in FIFO order and concatenates their
// lane ordered results. The queue is empty afterwards.
func (sm *StreamingMultiprocessor) ExecuteWarps() []interface{} {
	queue := sm.queue
	sm.queue = make([]*warp.Warp, 0)

	size := 0
	for _, w := range queue {
		size += w.Size()
	}
	results := make([]interface{}, 0, size)

	taskID := sim.GetIDGenerator().Generate()
	sm.startTask(taskID, sm.ParentTaskID, "sm", sm.Name())

	for _, w := range queue {
		sm.startTask(w.UID, taskID, "warp", fmt.Sprintf("warp[%d]", w.ID))
		w.Execute()
		sm.endTask(w.UID)

		results = append(results, w.Results...)
	}

	sm.endTask(taskID)

	return results
}

func (sm *StreamingMultiprocessor) startTask(id, parentID, kind, what string) {
	if sm.Domain == nil {
		return
	}
	tracing.StartTask(id, parentID, sm.Domain, kind, what, nil)
}

func (sm *StreamingMultiprocessor) endTask(id string) {
	if sm.Domain == nil {
		return
	}
	tracing.EndTask(id, sm.Domain)
}
