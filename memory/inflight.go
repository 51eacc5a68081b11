package memory

import (
	"sync"

	"github.com/google/btree"
)

// An inflightAccess is a transfer that has passed its bounds check and has
// not yet completed.
type inflightAccess struct {
	start, end int
	write      bool
	id         uint64
}

func (a *inflightAccess) Less(than btree.Item) bool {
	o := than.(*inflightAccess)
	if a.start == o.start {
		return a.id < o.id
	}
	return a.start < o.start
}

func (a *inflightAccess) overlaps(start, end int) bool {
	return a.start < end && start < a.end
}

// inflightTable tracks the in-flight accesses of one address space in strict
// mode. Two accesses conflict when their ranges overlap and at least one of
// them writes.
type inflightTable struct {
	sync.Mutex

	entries   *btree.BTree
	nextID    uint64
	conflicts int
}

func newInflightTable() *inflightTable {
	return &inflightTable{entries: btree.New(8)}
}

// add registers an access, or returns nil when it conflicts with one that is
// still in flight.
func (t *inflightTable) add(start, length int, write bool) *inflightAccess {
	end := start + length

	t.Lock()
	defer t.Unlock()

	conflict := false
	t.entries.AscendLessThan(&inflightAccess{start: end}, func(i btree.Item) bool {
		e := i.(*inflightAccess)
		if e.overlaps(start, end) && (write || e.write) {
			conflict = true
			return false
		}
		return true
	})

	if conflict {
		t.conflicts++
		return nil
	}

	e := &inflightAccess{start: start, end: end, write: write, id: t.nextID}
	t.nextID++
	t.entries.ReplaceOrInsert(e)

	return e
}

func (t *inflightTable) remove(e *inflightAccess) {
	t.Lock()
	defer t.Unlock()

	if t.entries.Delete(e) == nil {
		panic("trying to remove an access that is not in flight")
	}
}

func (t *inflightTable) numConflicts() int {
	t.Lock()
	defer t.Unlock()

	return t.conflicts
}

func (t *inflightTable) numInflight() int {
	t.Lock()
	defer t.Unlock()

	return t.entries.Len()
}
