// Package camera provides pan and zoom over a toroidal cell grid.
package camera

import "math"

// Camera controls the viewport into the grid.
// Panning wraps around the torus so any cell can be brought to the centre.
type Camera struct {
	// X, Y is the cell (fractional) drawn at the viewport's top-left corner.
	X, Y float32

	// CellSize is the on-screen size of one cell in pixels.
	CellSize float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// GridSize is the side length of the grid in cells.
	GridSize float32

	// Zoom constraints, in pixels per cell
	MinCell, MaxCell float32

	defaultCell float32
}

// New creates a camera with the grid's origin at the top-left.
func New(viewportW, viewportH float32, gridSize int, cellSize float32) *Camera {
	if cellSize < 1 {
		cellSize = 1
	}
	return &Camera{
		CellSize:    cellSize,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		GridSize:    float32(gridSize),
		MinCell:     1,
		MaxCell:     64,
		defaultCell: cellSize,
	}
}

// CellToScreen returns the top-left screen position of cell (x, y).
// Positions are always non-negative; cells left of the origin wrap to the
// right edge.
func (c *Camera) CellToScreen(x, y int) (sx, sy float32) {
	sx = mod(float32(x)-c.X, c.GridSize) * c.CellSize
	sy = mod(float32(y)-c.Y, c.GridSize) * c.CellSize
	return sx, sy
}

// ScreenToCell returns the grid cell under a screen position.
func (c *Camera) ScreenToCell(sx, sy float32) (x, y int) {
	wx := mod(c.X+sx/c.CellSize, c.GridSize)
	wy := mod(c.Y+sy/c.CellSize, c.GridSize)
	return int(wx), int(wy)
}

// IsVisible returns true if any part of cell (x, y) lies inside the viewport.
func (c *Camera) IsVisible(x, y int) bool {
	sx, sy := c.CellToScreen(x, y)
	return sx < c.ViewportW && sy < c.ViewportH
}

// InViewport returns true if a screen position is over the grid.
func (c *Camera) InViewport(sx, sy float32) bool {
	w, h := c.Extent()
	return sx >= 0 && sy >= 0 && sx < w && sy < h
}

// Extent returns the drawn grid size in pixels, capped at the viewport.
func (c *Camera) Extent() (w, h float32) {
	full := c.GridSize * c.CellSize
	return min(full, c.ViewportW), min(full, c.ViewportH)
}

// Pan moves the view by the given delta in screen pixels, dragging the
// grid with the pointer. Wraps around grid boundaries.
func (c *Camera) Pan(dx, dy float32) {
	c.X = mod(c.X-dx/c.CellSize, c.GridSize)
	c.Y = mod(c.Y-dy/c.CellSize, c.GridSize)
}

// SetCellSize sets the zoom level, clamped to min/max.
func (c *Camera) SetCellSize(size float32) {
	c.CellSize = clamp(size, c.MinCell, c.MaxCell)
}

// ZoomBy multiplies the current cell size by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetCellSize(c.CellSize * factor)
}

// Reset returns the camera to the grid origin and initial zoom.
func (c *Camera) Reset() {
	c.X = 0
	c.Y = 0
	c.CellSize = c.defaultCell
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
