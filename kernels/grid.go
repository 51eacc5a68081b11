package kernels

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"runtime"
	"strings"

	"github.com/rs/xid"
)

// ErrInvalidDim is returned when a grid or block dimension is empty or has a
// non-positive component.
var ErrInvalidDim = errors.New("invalid dimension")

// A Kernel is the function that every lane of a launch runs. It receives the
// id of the warp, the id of the lane within the warp and the arguments given
// at launch time. The returned value becomes the lane's result.
type Kernel func(warpID, laneID int, args ...interface{}) interface{}

// Name returns the symbol name of the kernel function, without the package
// path.
func Name(k Kernel) string {
	if k == nil {
		return "<nil>"
	}

	fn := runtime.FuncForPC(reflect.ValueOf(k).Pointer())
	if fn == nil {
		return "<unknown>"
	}

	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

const maxInt = int(^uint(0) >> 1)

// Dim is the shape of a grid (blocks per dimension) or of a block (threads
// per dimension).
type Dim []int

// Product returns the number of elements covered by the dimension.
func (d Dim) Product() int {
	p := 1
	for _, n := range d {
		p *= n
	}
	return p
}

// Validate checks that the dimension has at least one component, all the
// components are positive and their product fits in an int.
func (d Dim) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidDim)
	}

	p := 1
	for i, n := range d {
		if n <= 0 {
			return fmt.Errorf("%w: component %d is %d", ErrInvalidDim, i, n)
		}

		if p > maxInt/n {
			return fmt.Errorf("%w: %v has too many elements", ErrInvalidDim, d)
		}
		p *= n
	}

	return nil
}

func (d Dim) String() string {
	parts := make([]string, len(d))
	for i, n := range d {
		parts[i] = fmt.Sprint(n)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// A Grid is one launch of a kernel.
type Grid struct {
	ID       string
	Name     string
	Kernel   Kernel
	GridDim  Dim
	BlockDim Dim
	Args     []interface{}
}

// NewGrid creates a launch description. The name defaults to the kernel's
// symbol name.
func NewGrid(
	k Kernel,
	gridDim, blockDim Dim,
	args ...interface{},
) *Grid {
	g := new(Grid)
	g.ID = xid.New().String()
	g.Name = Name(k)
	g.Kernel = k
	g.GridDim = gridDim
	g.BlockDim = blockDim
	g.Args = args
	return g
}

// WithName overrides the display name of the launch.
func (g *Grid) WithName(name string) *Grid {
	g.Name = name
	return g
}

// Validate checks both dimensions and the kernel.
func (g *Grid) Validate() error {
	if g.Kernel == nil {
		return errors.New("kernel is nil")
	}

	if err := g.GridDim.Validate(); err != nil {
		return fmt.Errorf("grid dim: %w", err)
	}

	if err := g.BlockDim.Validate(); err != nil {
		return fmt.Errorf("block dim: %w", err)
	}

	if g.GridDim.Product() > maxInt/g.BlockDim.Product() {
		return fmt.Errorf("%w: grid %v of blocks %v has too many threads",
			ErrInvalidDim, g.GridDim, g.BlockDim)
	}

	return nil
}

// TotalThreads returns the number of conceptual threads of the launch.
func (g *Grid) TotalThreads() int {
	return g.GridDim.Product() * g.BlockDim.Product()
}

// NumWarps returns how many full warps the launch is split into. Threads that
// do not fill a whole warp are dropped.
func (g *Grid) NumWarps(warpSize int) int {
	total := g.TotalThreads()
	n := total / warpSize

	if rem := total % warpSize; rem != 0 {
		log.Printf("kernel %s: %d threads do not fill a warp of %d and are dropped",
			g.Name, rem, warpSize)
	}

	return n
}

// GlobalThreadID returns the launch-wide id of a lane.
func GlobalThreadID(warpID, laneID, warpSize int) int {
	return warpID*warpSize + laneID
}
