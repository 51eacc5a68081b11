package warp

import (
	"log"
	"sync"
)

// A Barrier blocks the lanes that call Wait until parties lanes arrived.
// Then all of them pass and the barrier is ready for the next round. There is
// no timeout.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	arrived    int
	generation uint64
}

// NewBarrier creates a barrier for the given number of lanes.
func NewBarrier(parties int) *Barrier {
	if parties <= 0 {
		log.Panicf("barrier needs at least one party, got %d", parties)
	}

	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Parties returns the number of lanes the barrier waits for.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until all the parties called Wait.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.arrived++

	if b.arrived == b.parties {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return
	}

	for gen == b.generation {
		b.cond.Wait()
	}
}

// SyncThreads is the __syncthreads of a kernel: it logs the lane, waits at
// the barrier and logs again once released.
func SyncThreads(b *Barrier, laneID int) {
	log.Printf("Thread %d waiting at barrier.", laneID)
	b.Wait()
	log.Printf("Thread %d passed the barrier.", laneID)
}
