package telemetry

import "github.com/pthm-cable/contagion/systems"

// Collector accumulates transition events raised by the infection system
// during one day and produces that day's deltas.
type Collector struct {
	infected int
	dead     int
	cured    int

	// Optional event log for the current day
	keepEvents bool
	events     []Event
}

// NewCollector creates a collector. When keepEvents is true every event is
// retained until the next Flush.
func NewCollector(keepEvents bool) *Collector {
	return &Collector{keepEvents: keepEvents}
}

// RecordInfection records a newly infected cell.
func (c *Collector) RecordInfection(day int, at systems.Point) {
	c.infected++
	if c.keepEvents {
		c.events = append(c.events, NewInfectionEvent(day, at))
	}
}

// RecordDeath records a cell death.
func (c *Collector) RecordDeath(day int, at systems.Point) {
	c.dead++
	if c.keepEvents {
		c.events = append(c.events, NewDeathEvent(day, at))
	}
}

// RecordCure records a cell becoming immune.
func (c *Collector) RecordCure(day int, at systems.Point) {
	c.cured++
	if c.keepEvents {
		c.events = append(c.events, NewCureEvent(day, at))
	}
}

// Flush returns the accumulated deltas and events, then resets for the next day.
// The returned slice is owned by the caller.
func (c *Collector) Flush() (systems.StepDeltas, []Event) {
	d := systems.StepDeltas{
		Infected: c.infected,
		Dead:     c.dead,
		Cured:    c.cured,
	}
	events := c.events

	c.infected = 0
	c.dead = 0
	c.cured = 0
	c.events = nil

	return d, events
}

var _ systems.EventSink = (*Collector)(nil)
