package warp

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func laneIdentity(warpID, laneID int, args ...interface{}) interface{} {
	return [2]int{warpID, laneID}
}

var _ = Describe("Warp", func() {
	It("should start ready with all lanes active", func() {
		w := NewWarp(3, 8, laneIdentity)

		Expect(w.ID).To(Equal(3))
		Expect(w.UID).NotTo(BeEmpty())
		Expect(w.Size()).To(Equal(8))
		Expect(w.NumActive()).To(Equal(8))
		Expect(w.Results).To(HaveLen(8))
		Expect(w.State()).To(Equal(StateReady))
	})

	It("should panic on a non-positive size", func() {
		Expect(func() { NewWarp(0, 0, laneIdentity) }).To(Panic())
	})

	It("should store each result at its lane", func() {
		w := NewWarp(2, 32, func(warpID, laneID int, args ...interface{}) interface{} {
			time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
			return laneID * 10
		})

		w.Execute()

		Expect(w.State()).To(Equal(StateCompleted))
		for i := 0; i < 32; i++ {
			Expect(w.Results[i]).To(Equal(i * 10))
		}
	})

	It("should pass the warp id and the arguments to the kernel", func() {
		w := NewWarp(5, 4, func(warpID, laneID int, args ...interface{}) interface{} {
			return warpID*100 + laneID + args[0].(int) + args[1].(int)
		}, 1000, 20000)

		w.Execute()

		Expect(w.Results).To(Equal([]interface{}{21500, 21501, 21502, 21503}))
	})

	It("should skip inactive lanes", func() {
		var calls int32
		w := NewWarp(0, 4, func(warpID, laneID int, args ...interface{}) interface{} {
			atomic.AddInt32(&calls, 1)
			return laneID
		})
		w.SetActive(1, false)
		w.SetActive(3, false)

		w.Execute()

		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
		Expect(w.Results).To(Equal([]interface{}{0, nil, 2, nil}))
	})

	It("should not return before every lane finished", func() {
		var done int32
		w := NewWarp(0, 16, func(warpID, laneID int, args ...interface{}) interface{} {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&done, 1)
			return nil
		})

		w.Execute()

		Expect(atomic.LoadInt32(&done)).To(Equal(int32(16)))
	})

	It("should isolate a panicking lane", func() {
		boom := errors.New("boom")
		w := NewWarp(7, 4, func(warpID, laneID int, args ...interface{}) interface{} {
			if laneID == 2 {
				panic(boom)
			}
			return laneID
		})

		w.Execute()

		Expect(w.Results).To(Equal([]interface{}{0, 1, nil, 3}))
		Expect(w.Faults[0]).To(BeNil())
		Expect(w.Faults[2]).To(MatchError(boom))

		var fault *LaneFault
		Expect(errors.As(w.Faults[2], &fault)).To(BeTrue())
		Expect(fault.WarpID).To(Equal(7))
		Expect(fault.LaneID).To(Equal(2))
		Expect(fault.Error()).To(ContainSubstring("warp 7 lane 2"))
	})

	It("should not be executed twice", func() {
		w := NewWarp(0, 2, laneIdentity)
		w.Execute()

		Expect(func() { w.Execute() }).To(Panic())
		Expect(func() { w.SetActive(0, false) }).To(Panic())
	})

	It("should respect the lane limiter", func() {
		var running, peak int32
		limiter := NewLaneLimiter(3)
		w := NewWarp(0, 12, func(warpID, laneID int, args ...interface{}) interface{} {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return laneID
		})
		w.Limiter = limiter

		w.Execute()

		Expect(atomic.LoadInt32(&peak)).To(BeNumerically("<=", 3))
		Expect(limiter.InUse()).To(Equal(0))
		Expect(w.Results[11]).To(Equal(11))
	})
})

var _ = Describe("LaneLimiter", func() {
	It("should be nil when unlimited", func() {
		l := NewLaneLimiter(0)

		Expect(l).To(BeNil())
		Expect(l.Limit()).To(Equal(0))
		l.Acquire()
		l.Release()
		Expect(l.InUse()).To(Equal(0))
	})

	It("should count slots", func() {
		l := NewLaneLimiter(2)
		l.Acquire()

		Expect(l.Limit()).To(Equal(2))
		Expect(l.InUse()).To(Equal(1))

		l.Release()
		Expect(l.InUse()).To(Equal(0))
	})
})
