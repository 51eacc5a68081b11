package profiler

import (
	"sync"
	"time"

	"gitlab.com/akita/akita/v3/tracing"
)

// A TaskRecord is a finished task observed by a TaskTracer.
type TaskRecord struct {
	ID       string        `json:"id"`
	ParentID string        `json:"parent_id"`
	Kind     string        `json:"kind"`
	What     string        `json:"what"`
	Where    string        `json:"where"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
	Steps    int           `json:"steps"`
}

type inflightTask struct {
	task  tracing.Task
	start time.Time
	steps int
}

// A TaskTracer is an akita tracer that times kernel, SM and warp tasks with
// the wall clock. Only tasks of the given kinds are kept; no kinds means all.
type TaskTracer struct {
	sync.Mutex

	kinds    map[string]bool
	inflight map[string]*inflightTask
	records  []TaskRecord
}

// NewTaskTracer creates a tracer that keeps tasks of the given kinds.
func NewTaskTracer(kinds ...string) *TaskTracer {
	t := &TaskTracer{
		kinds:    map[string]bool{},
		inflight: map[string]*inflightTask{},
	}

	for _, k := range kinds {
		t.kinds[k] = true
	}

	return t
}

func (t *TaskTracer) accepts(kind string) bool {
	return len(t.kinds) == 0 || t.kinds[kind]
}

// StartTask marks the start of a task.
func (t *TaskTracer) StartTask(task tracing.Task) {
	if !t.accepts(task.Kind) {
		return
	}

	t.Lock()
	defer t.Unlock()

	t.inflight[task.ID] = &inflightTask{
		task:  task,
		start: time.Now(),
	}
}

// StepTask counts the steps of a task.
func (t *TaskTracer) StepTask(task tracing.Task) {
	t.Lock()
	defer t.Unlock()

	data, found := t.inflight[task.ID]
	if !found {
		return
	}
	data.steps++
}

// EndTask marks the end of a task.
func (t *TaskTracer) EndTask(task tracing.Task) {
	now := time.Now()

	t.Lock()
	defer t.Unlock()

	data, found := t.inflight[task.ID]
	if !found {
		return
	}
	delete(t.inflight, task.ID)

	t.records = append(t.records, TaskRecord{
		ID:       data.task.ID,
		ParentID: data.task.ParentID,
		Kind:     data.task.Kind,
		What:     data.task.What,
		Where:    data.task.Where,
		Start:    data.start,
		End:      now,
		Duration: now.Sub(data.start),
		Steps:    data.steps,
	})
}

// Records returns the finished tasks of a kind, in completion order. An empty
// kind returns all of them.
func (t *TaskTracer) Records(kind string) []TaskRecord {
	t.Lock()
	defer t.Unlock()

	out := make([]TaskRecord, 0)
	for _, r := range t.records {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// NumInflight returns the number of tasks started but not ended.
func (t *TaskTracer) NumInflight() int {
	t.Lock()
	defer t.Unlock()

	return len(t.inflight)
}

// AverageDuration returns the mean duration of the finished tasks of a kind.
func (t *TaskTracer) AverageDuration(kind string) time.Duration {
	records := t.Records(kind)
	if len(records) == 0 {
		return 0
	}

	var sum time.Duration
	for _, r := range records {
		sum += r.Duration
	}
	return sum / time.Duration(len(records))
}
