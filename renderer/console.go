// Package renderer draws the simulation grid as terminal text or video frames.
package renderer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

// Console prints the grid and day statistics as text:
// '.' normal, '-' immune, 'x' dead, '*' infected.
type Console struct {
	w   *bufio.Writer
	err error
}

// NewConsole creates a console renderer writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: bufio.NewWriter(w)}
}

// Observe renders one day. It has the shape of a simulation observer.
func (c *Console) Observe(stats telemetry.Statistics, g *systems.Grid) {
	if c.err != nil {
		return
	}

	fmt.Fprintf(c.w, "\nDay %d\n", stats.DaysLapsed)

	size := g.Size()
	cells := g.Cells()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c.w.WriteByte(cells[y*size+x].Kind.Glyph())
			c.w.WriteByte(' ')
		}
		c.w.WriteByte('\n')
	}

	fmt.Fprintf(c.w, "\nToday:\tInfected: %d  Dead: %d  Cured: %d\n",
		stats.LastStep.Infected, stats.LastStep.Dead, stats.LastStep.Cured)
	fmt.Fprintf(c.w, "Total:\tInfected: %d  Dead: %d\tImmune: %d\n",
		stats.Total.Infected, stats.Total.Dead, stats.Total.Immune)

	c.err = c.w.Flush()
}

// Err returns the first write error, if any.
func (c *Console) Err() error {
	return c.err
}

// WriteReport prints the end-of-run summary.
func WriteReport(w io.Writer, r telemetry.Report) error {
	_, err := fmt.Fprintf(w,
		"Simulation with random seed %d\n"+
			"%d days\n"+
			"Total infections: %d (%d%%)\n"+
			"Total deaths: %d (%d%%)\n",
		r.RandomSeed,
		r.Days,
		r.Infections, r.InfectionsPct,
		r.Deaths, r.DeathsPct,
	)
	return err
}
