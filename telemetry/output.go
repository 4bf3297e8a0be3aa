package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/contagion/config"
)

// OutputManager handles run output: per-day CSV, event CSV, config and report.
type OutputManager struct {
	dir        string
	daysFile   *os.File
	eventsFile *os.File

	// Track if headers have been written
	daysHeaderWritten   bool
	eventsHeaderWritten bool

	// Rows written so far, kept for the curve
	days []DayRecord
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). events.csv is only created
// when withEvents is true.
func NewOutputManager(dir string, withEvents bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "days.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating days.csv: %w", err)
	}
	om.daysFile = f

	if withEvents {
		f, err = os.Create(filepath.Join(dir, "events.csv"))
		if err != nil {
			om.daysFile.Close()
			return nil, fmt.Errorf("creating events.csv: %w", err)
		}
		om.eventsFile = f
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteDay appends one row to days.csv.
func (om *OutputManager) WriteDay(rec DayRecord) error {
	if om == nil {
		return nil
	}

	records := []DayRecord{rec}
	om.days = append(om.days, rec)

	if !om.daysHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.daysFile); err != nil {
			return fmt.Errorf("writing days: %w", err)
		}
		om.daysHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.daysFile); err != nil {
			return fmt.Errorf("writing days: %w", err)
		}
	}

	return nil
}

// WriteEvents appends events to events.csv. It is a no-op when events are disabled.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil || om.eventsFile == nil || len(events) == 0 {
		return nil
	}

	if !om.eventsHeaderWritten {
		if err := gocsv.Marshal(events, om.eventsFile); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		om.eventsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(events, om.eventsFile); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
	}

	return nil
}

// WriteReport saves the end-of-run report as JSON.
func (om *OutputManager) WriteReport(r Report) error {
	if om == nil {
		return nil
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(om.dir, "report.json"), data, 0644); err != nil {
		return fmt.Errorf("writing report.json: %w", err)
	}

	return nil
}

// WriteSnapshot saves a grid snapshot into the output directory.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveSnapshot(s, om.dir)
}

// WriteCurve renders the days written so far to curve.png and returns its
// path. Nothing is written for runs shorter than two days.
func (om *OutputManager) WriteCurve(title string) (string, error) {
	if om == nil || len(om.days) < 2 {
		return "", nil
	}
	path := filepath.Join(om.dir, "curve.png")
	if err := RenderCurve(path, om.days, title); err != nil {
		return "", err
	}
	return path, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.daysFile != nil {
		if err := om.daysFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.eventsFile != nil {
		if err := om.eventsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
