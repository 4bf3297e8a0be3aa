package systems

import (
	"math/rand"

	"github.com/pthm-cable/contagion/components"
)

// InfectionParams holds the per-run infection parameters.
// Probabilities are percentages in [0, 100]; DaysMax is exclusive and must
// exceed DaysMin.
type InfectionParams struct {
	InfectionProbability int
	DeathProbability     int
	DaysMin              int
	DaysMax              int
}

// StepDeltas counts the transitions made during one day.
type StepDeltas struct {
	Infected int `csv:"infected" json:"infected"`
	Dead     int `csv:"dead" json:"dead"`
	Cured    int `csv:"cured" json:"cured"`
}

// EventSink receives individual transitions as the infection system makes them.
type EventSink interface {
	RecordInfection(day int, at Point)
	RecordDeath(day int, at Point)
	RecordCure(day int, at Point)
}

// mooreOffsets lists the 8 neighbour offsets in scan order.
var mooreOffsets = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// InfectionSystem applies the daily infection, death and cure rule.
// All draws come from its rng so a run is reproducible from the seed.
type InfectionSystem struct {
	params InfectionParams
	rng    *rand.Rand
	sink   EventSink
}

// NewInfectionSystem creates an infection system. params must already be
// validated: a non-positive cure span panics in CureDay.
func NewInfectionSystem(params InfectionParams, rng *rand.Rand) *InfectionSystem {
	return &InfectionSystem{params: params, rng: rng}
}

// SetSink installs an event sink. A nil sink disables events.
func (s *InfectionSystem) SetSink(sink EventSink) {
	s.sink = sink
}

// Params returns the infection parameters.
func (s *InfectionSystem) Params() InfectionParams {
	return s.params
}

// CureDay returns the day a cell infected on the given day becomes immune:
// day + DaysMin + uniform[0, DaysMax-DaysMin).
func (s *InfectionSystem) CureDay(day int) int {
	return day + s.params.DaysMin + s.rng.Intn(s.params.DaysMax-s.params.DaysMin)
}

// roll draws a percentage in [0, 100) and reports whether it falls below p.
func (s *InfectionSystem) roll(p int) bool {
	return s.rng.Intn(100) < p
}

// AttemptInfect tries to infect the cell at the wrapped coordinate (x, y).
// The draw is always made; only a normal cell can become infected.
func (s *InfectionSystem) AttemptInfect(g *Grid, x, y, day, probability int) bool {
	if !s.roll(probability) {
		return false
	}

	idx := g.Index(x, y)
	cell := &g.cells[idx]
	if cell.Kind != components.KindNormal {
		return false
	}

	cell.Kind = components.KindInfected
	cell.InfectedOn = day
	cell.CureDay = s.CureDay(day)

	if s.sink != nil {
		s.sink.RecordInfection(day, Point{X: idx % g.size, Y: idx / g.size})
	}
	return true
}

// Step runs one day over the whole grid in row-major order and returns the
// day's transitions. Only cells infected before today are processed.
//
// A surviving cell is cured once day >= CureDay rather than only on the
// exact day. The two agree whenever DaysMin >= 1; with DaysMin == 0 a cell's
// cure day can equal its infection day, which has passed by the time the
// cell is first processed.
func (s *InfectionSystem) Step(g *Grid, day int) StepDeltas {
	var d StepDeltas
	size := g.Size()
	cells := g.Cells()

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cell := &cells[y*size+x]
			if !cell.InfectiousOn(day) {
				continue
			}

			for _, off := range mooreOffsets {
				if s.AttemptInfect(g, x+off.X, y+off.Y, day, s.params.InfectionProbability) {
					d.Infected++
				}
			}

			if s.roll(s.params.DeathProbability) {
				cell.Kind = components.KindDead
				d.Dead++
				if s.sink != nil {
					s.sink.RecordDeath(day, Point{X: x, Y: y})
				}
				continue
			}

			if day >= cell.CureDay {
				cell.Kind = components.KindImmune
				d.Cured++
				if s.sink != nil {
					s.sink.RecordCure(day, Point{X: x, Y: y})
				}
			}
		}
	}

	return d
}
