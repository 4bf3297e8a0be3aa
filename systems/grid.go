package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/contagion/components"
)

// MaxCells caps the number of cells a grid may hold.
const MaxCells = 1 << 26

// ErrAllocation is returned when a grid of the requested size cannot be created.
var ErrAllocation = errors.New("grid allocation failed")

// BoundsWarning reports an initial seed outside the grid. It is not fatal:
// the seed is dropped and the simulation proceeds.
type BoundsWarning struct {
	X, Y int
	Size int
}

func (w *BoundsWarning) Error() string {
	return fmt.Sprintf("infected cell at (%d, %d) is outside bounds of %dx%d grid and cannot be added",
		w.X, w.Y, w.Size, w.Size)
}

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

// Grid is a square, toroidal array of cells stored row-major.
type Grid struct {
	size  int
	cells []components.Cell
}

// NewGrid allocates a size x size grid with every cell normal.
func NewGrid(size int) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrAllocation, size)
	}
	if size > MaxCells/size {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrAllocation, size, size, MaxCells)
	}
	return &Grid{
		size:  size,
		cells: make([]components.Cell, size*size),
	}, nil
}

// Size returns the grid edge length.
func (g *Grid) Size() int { return g.size }

// Cells exposes the row-major cell slice. Callers must not modify it
// outside the rule engine.
func (g *Grid) Cells() []components.Cell { return g.cells }

// wrap folds v into [0, n) with a true modulo.
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Index returns the row-major index of the wrapped coordinate.
func (g *Grid) Index(x, y int) int {
	return wrap(y, g.size)*g.size + wrap(x, g.size)
}

// At returns the cell at (x, y), wrapping both coordinates around the torus.
func (g *Grid) At(x, y int) *components.Cell {
	return &g.cells[g.Index(x, y)]
}

// InBounds reports whether (x, y) lies inside the unwrapped grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.size && y < g.size
}

// Seed force-infects the cell at (x, y) with a precomputed cure day.
// Unlike At, the coordinates are not wrapped: a seed outside the grid
// returns a *BoundsWarning and leaves the grid untouched.
func (g *Grid) Seed(x, y, cureDay int) error {
	if !g.InBounds(x, y) {
		return &BoundsWarning{X: x, Y: y, Size: g.size}
	}
	g.cells[y*g.size+x] = components.Cell{
		Kind:       components.KindInfected,
		InfectedOn: 0,
		CureDay:    cureDay,
	}
	return nil
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]components.Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{size: g.size, cells: cells}
}

// KindCounts tallies cells by kind.
type KindCounts struct {
	Normal   int
	Infected int
	Immune   int
	Dead     int
}

// EverInfected returns the number of cells that have left the normal state.
func (k KindCounts) EverInfected() int {
	return k.Infected + k.Immune + k.Dead
}

// Counts tallies the current cell kinds.
func (g *Grid) Counts() KindCounts {
	var k KindCounts
	for i := range g.cells {
		switch g.cells[i].Kind {
		case components.KindNormal:
			k.Normal++
		case components.KindInfected:
			k.Infected++
		case components.KindImmune:
			k.Immune++
		case components.KindDead:
			k.Dead++
		}
	}
	return k
}
