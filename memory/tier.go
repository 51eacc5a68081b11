package memory

import (
	"time"

	"gitlab.com/akita/simtgpu/profiler"
)

// tier holds what the global and the shared memory have in common: the
// latency to charge, the profiler to report to and the strict mode table.
type tier struct {
	space    profiler.Space
	latency  Latency
	profiler profiler.Profiler
	inflight *inflightTable
}

func (t *tier) checkRange(op string, offset, length, limit int) error {
	if offset < 0 || length < 0 || length > limit || offset > limit-length {
		return &AccessError{
			Op:     op,
			Space:  t.space,
			Offset: offset,
			Length: length,
			Limit:  limit,
			Err:    ErrOutOfBounds,
		}
	}
	return nil
}

func (t *tier) enter(op string, offset, length, limit int, write bool) (
	*inflightAccess, error,
) {
	if t.inflight == nil || length == 0 {
		return nil, nil
	}

	e := t.inflight.add(offset, length, write)
	if e == nil {
		return nil, &AccessError{
			Op:     op,
			Space:  t.space,
			Offset: offset,
			Length: length,
			Limit:  limit,
			Err:    ErrConflictingAccess,
		}
	}

	return e, nil
}

func (t *tier) leave(e *inflightAccess) {
	if e != nil {
		t.inflight.remove(e)
	}
}

func (t *tier) write(store *cellStore, data []float32, offset int) error {
	if err := t.checkRange("write", offset, len(data), store.n); err != nil {
		return err
	}

	e, err := t.enter("write", offset, len(data), store.n, true)
	if err != nil {
		return err
	}
	defer t.leave(e)

	t.latency.charge(t.space, len(data))

	if err := store.write(offset, data); err != nil {
		return err
	}

	t.report(profiler.MemWrite, offset, len(data)*CellSize)
	return nil
}

func (t *tier) read(store *cellStore, offset, length int) ([]float32, error) {
	if err := t.checkRange("read", offset, length, store.n); err != nil {
		return nil, err
	}

	e, err := t.enter("read", offset, length, store.n, false)
	if err != nil {
		return nil, err
	}
	defer t.leave(e)

	t.latency.charge(t.space, length)

	data, err := store.read(offset, length)
	if err != nil {
		return nil, err
	}

	t.report(profiler.MemRead, offset, length*CellSize)
	return data, nil
}

func (t *tier) report(op profiler.MemOpType, address, sizeBytes int) {
	if t.profiler == nil {
		return
	}

	t.profiler.OnMemoryOp(profiler.MemOp{
		Type:      op,
		Space:     t.space,
		Address:   address,
		SizeBytes: sizeBytes,
		Timestamp: time.Now(),
	})
}

func (t *tier) numConflicts() int {
	if t.inflight == nil {
		return 0
	}
	return t.inflight.numConflicts()
}
