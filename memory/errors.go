package memory

import (
	"errors"
	"fmt"

	"gitlab.com/akita/simtgpu/profiler"
)

// The kinds of memory errors. Every error returned by this package wraps one
// of them.
var (
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrOutOfBounds       = errors.New("out of bounds")
	ErrNotAllocated      = errors.New("shared memory is not allocated")
	ErrConflictingAccess = errors.New("conflicting concurrent access")
	ErrInvalidSize       = errors.New("invalid size")
)

// An AccessError describes a failed memory operation. Memory is never
// modified by an operation that returns an AccessError.
type AccessError struct {
	Op     string
	Space  profiler.Space
	Offset int
	Length int
	Limit  int
	Err    error
}

func (e *AccessError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotAllocated):
		return fmt.Sprintf("%s %s memory: %v", e.Op, e.Space, e.Err)
	case errors.Is(e.Err, ErrCapacityExceeded), errors.Is(e.Err, ErrInvalidSize):
		return fmt.Sprintf("%s %s memory of %d cells (limit %d): %v",
			e.Op, e.Space, e.Length, e.Limit, e.Err)
	default:
		return fmt.Sprintf("%s %s memory [%d, %d) with %d cells: %v",
			e.Op, e.Space, e.Offset, e.Offset+e.Length, e.Limit, e.Err)
	}
}

// Unwrap returns the error kind.
func (e *AccessError) Unwrap() error {
	return e.Err
}
