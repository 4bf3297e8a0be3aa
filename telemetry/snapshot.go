package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the grid and statistics at one point in a run.
type Snapshot struct {
	Version    int    `json:"version"`
	RandomSeed uint32 `json:"random_seed"`
	Size       int    `json:"size"`

	Stats Statistics `json:"stats"`

	// Rows renders the grid with console glyphs, one string per row.
	Rows  []string          `json:"rows"`
	Cells []components.Cell `json:"cells"`
}

// NewSnapshot captures the grid and statistics.
func NewSnapshot(g *systems.Grid, stats Statistics, seed uint32) *Snapshot {
	size := g.Size()
	cells := make([]components.Cell, len(g.Cells()))
	copy(cells, g.Cells())

	rows := make([]string, size)
	buf := make([]byte, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			buf[x] = cells[y*size+x].Kind.Glyph()
		}
		rows[y] = string(buf)
	}

	return &Snapshot{
		Version:    SnapshotVersion,
		RandomSeed: seed,
		Size:       size,
		Stats:      stats,
		Rows:       rows,
		Cells:      cells,
	}
}

// SaveSnapshot writes a snapshot to dir as snapshot_day_<N>.json.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_day_%d.json", snapshot.Stats.DaysLapsed))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	if len(snapshot.Cells) != snapshot.Size*snapshot.Size {
		return nil, fmt.Errorf("snapshot has %d cells, want %d", len(snapshot.Cells), snapshot.Size*snapshot.Size)
	}

	return &snapshot, nil
}
