// Package telemetry provides epidemic statistics, event collection and run output.
package telemetry

import "github.com/pthm-cable/contagion/systems"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventInfection EventType = iota
	EventDeath
	EventCure
)

// String returns the event name used in CSV output.
func (t EventType) String() string {
	switch t {
	case EventInfection:
		return "infection"
	case EventDeath:
		return "death"
	case EventCure:
		return "cure"
	default:
		return "unknown"
	}
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (t EventType) MarshalCSV() (string, error) {
	return t.String(), nil
}

// Event represents a single cell transition.
type Event struct {
	Type EventType `csv:"type"`
	Day  int       `csv:"day"`
	X    int       `csv:"x"`
	Y    int       `csv:"y"`
}

// NewInfectionEvent creates an infection event.
func NewInfectionEvent(day int, at systems.Point) Event {
	return Event{Type: EventInfection, Day: day, X: at.X, Y: at.Y}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(day int, at systems.Point) Event {
	return Event{Type: EventDeath, Day: day, X: at.X, Y: at.Y}
}

// NewCureEvent creates a cure event.
func NewCureEvent(day int, at systems.Point) Event {
	return Event{Type: EventCure, Day: day, X: at.X, Y: at.Y}
}
