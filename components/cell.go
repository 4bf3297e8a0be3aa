// Package components defines the per-cell state of the simulation grid.
package components

// CellKind is the health state of a grid cell.
type CellKind uint8

const (
	KindNormal CellKind = iota
	KindInfected
	KindImmune
	KindDead
)

// String returns a lowercase name for the kind.
func (k CellKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindInfected:
		return "infected"
	case KindImmune:
		return "immune"
	case KindDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Glyph returns the console character used to draw the kind.
func (k CellKind) Glyph() byte {
	switch k {
	case KindImmune:
		return '-'
	case KindDead:
		return 'x'
	case KindInfected:
		return '*'
	default:
		return '.'
	}
}

// Cell is one grid position.
// InfectedOn and CureDay are only meaningful while Kind is KindInfected.
type Cell struct {
	Kind       CellKind `json:"kind"`
	InfectedOn int      `json:"infected_on"` // day of infection; 0 for initial seeds
	CureDay    int      `json:"cure_day"`    // absolute day the cell becomes immune
}

// InfectiousOn reports whether the cell spreads infection on the given day.
// Cells infected today do not spread until the next day.
func (c Cell) InfectiousOn(day int) bool {
	return c.Kind == KindInfected && c.InfectedOn < day
}

// EverInfected reports whether the cell has left the normal state.
func (c Cell) EverInfected() bool {
	return c.Kind != KindNormal
}
