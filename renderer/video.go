package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

var videoColors = [...]color.RGBA{
	components.KindNormal:   {R: 40, G: 44, B: 52, A: 255},
	components.KindInfected: {R: 220, G: 60, B: 50, A: 255},
	components.KindImmune:   {R: 70, G: 150, B: 220, A: 255},
	components.KindDead:     {R: 110, G: 110, B: 110, A: 255},
}

// Video records one MJPEG frame per day into an AVI file.
type Video struct {
	aw      mjpeg.AviWriter
	size    int
	cell    int
	img     *image.RGBA
	buf     bytes.Buffer
	opts    jpeg.Options
	frames  int
	lastDay int
	err     error
}

// NewVideo creates path and prepares frames of gridSize*cellSize pixels.
func NewVideo(path string, gridSize, cellSize, fps int) (*Video, error) {
	if gridSize <= 0 || cellSize <= 0 || fps <= 0 {
		return nil, fmt.Errorf("video: invalid dimensions size=%d cell=%d fps=%d", gridSize, cellSize, fps)
	}
	px := gridSize * cellSize
	aw, err := mjpeg.New(path, int32(px), int32(px), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("creating video: %w", err)
	}
	return &Video{
		aw:   aw,
		size: gridSize,
		cell: cellSize,
		img:  image.NewRGBA(image.Rect(0, 0, px, px)),
		opts: jpeg.Options{Quality: 90},
	}, nil
}

// Observe adds a frame for each new day. Repeated calls for the same day
// are ignored.
func (v *Video) Observe(stats telemetry.Statistics, g *systems.Grid) {
	if v.err != nil || stats.DaysLapsed <= v.lastDay {
		return
	}
	v.lastDay = stats.DaysLapsed
	v.err = v.AddFrame(g)
}

// AddFrame encodes the grid as one frame.
func (v *Video) AddFrame(g *systems.Grid) error {
	if g.Size() != v.size {
		return fmt.Errorf("video: grid size %d, want %d", g.Size(), v.size)
	}

	cells := g.Cells()
	for y := 0; y < v.size; y++ {
		for x := 0; x < v.size; x++ {
			c := videoColors[cells[y*v.size+x].Kind]
			for py := y * v.cell; py < (y+1)*v.cell; py++ {
				for px := x * v.cell; px < (x+1)*v.cell; px++ {
					v.img.SetRGBA(px, py, c)
				}
			}
		}
	}

	v.buf.Reset()
	if err := jpeg.Encode(&v.buf, v.img, &v.opts); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := v.aw.AddFrame(v.buf.Bytes()); err != nil {
		return fmt.Errorf("adding frame: %w", err)
	}
	v.frames++
	return nil
}

// Frames returns the number of frames written.
func (v *Video) Frames() int { return v.frames }

// Err returns the first error hit while observing.
func (v *Video) Err() error { return v.err }

// Close finalizes the AVI file.
func (v *Video) Close() error {
	return v.aw.Close()
}
