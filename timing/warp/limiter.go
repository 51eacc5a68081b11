package warp

// A LaneLimiter is a counting semaphore that bounds how many lanes run at the
// same time. A nil LaneLimiter does not limit anything.
//
// Lanes that meet at a Barrier need the limit to be at least the number of
// parties of the barrier, otherwise the lanes that could release it never
// start. The limiter must only be shared by warps that run one after
// another: two warps running at once can each hold part of the slots while
// their lanes wait at their barriers, and neither completes.
type LaneLimiter struct {
	slots chan struct{}
}

// NewLaneLimiter returns a limiter that allows n lanes at a time, or nil when
// n is not positive.
func NewLaneLimiter(n int) *LaneLimiter {
	if n <= 0 {
		return nil
	}
	return &LaneLimiter{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free.
func (l *LaneLimiter) Acquire() {
	if l == nil {
		return
	}
	l.slots <- struct{}{}
}

// Release frees a slot.
func (l *LaneLimiter) Release() {
	if l == nil {
		return
	}
	<-l.slots
}

// Limit returns the number of slots, 0 meaning unlimited.
func (l *LaneLimiter) Limit() int {
	if l == nil {
		return 0
	}
	return cap(l.slots)
}

// InUse returns the number of occupied slots.
func (l *LaneLimiter) InUse() int {
	if l == nil {
		return 0
	}
	return len(l.slots)
}
