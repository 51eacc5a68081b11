// Package dispatching turns a launch into warps and assigns the warps to
// streaming multiprocessors.
package dispatching

import (
	"gitlab.com/akita/simtgpu/kernels"
	"gitlab.com/akita/simtgpu/timing/warp"
)

// A WarpScheduler splits a launch into warps and hands them out in id order.
type WarpScheduler struct {
	grid     *kernels.Grid
	warpSize int
	numWarps int
	warps    []*warp.Warp
}

// NewWarpScheduler creates product(grid)*product(block)/warpSize warps, with
// ids 0..n-1, all lanes active. Threads that do not fill a full warp are
// dropped.
func NewWarpScheduler(grid *kernels.Grid, warpSize int) *WarpScheduler {
	s := new(WarpScheduler)
	s.grid = grid
	s.warpSize = warpSize
	s.numWarps = grid.NumWarps(warpSize)
	s.warps = make([]*warp.Warp, 0, s.numWarps)

	for id := 0; id < s.numWarps; id++ {
		w := warp.NewWarp(id, warpSize, grid.Kernel, grid.Args...)
		s.warps = append(s.warps, w)
	}

	return s
}

// NumWarps returns the number of warps the launch was split into.
func (s *WarpScheduler) NumWarps() int {
	return s.numWarps
}

// Remaining returns the number of warps not handed out yet.
func (s *WarpScheduler) Remaining() int {
	return len(s.warps)
}

// HasNext checks if there are warps left.
func (s *WarpScheduler) HasNext() bool {
	return len(s.warps) > 0
}

// Next removes and returns the warp with the lowest id, or nil if there is
// none left.
func (s *WarpScheduler) Next() *warp.Warp {
	if len(s.warps) == 0 {
		return nil
	}

	w := s.warps[0]
	s.warps = s.warps[1:]
	return w
}
