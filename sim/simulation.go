// Package sim drives an epidemic run day by day over a toroidal grid.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

// State is the lifecycle stage of a simulation.
type State uint8

const (
	StateNotStarted State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ErrQuit is returned by a Pacer when the user asks to stop.
var ErrQuit = errors.New("quit requested")

// Observer is called with the current statistics and grid. The grid must
// not be modified.
type Observer func(stats telemetry.Statistics, g *systems.Grid)

// Options configures a simulation beyond the config file.
type Options struct {
	// Quiet skips the observer call before the first day.
	Quiet bool
	// Pacer, if set, is called before every day.
	Pacer Pacer
	// KeepEvents retains each day's cell transitions, see Events.
	KeepEvents bool
}

// Simulation owns the grid, infection system and statistics for one run.
type Simulation struct {
	grid      *systems.Grid
	infection *systems.InfectionSystem
	collector *telemetry.Collector
	stats     telemetry.Statistics

	seed      uint32
	state     State
	opts      Options
	observers []Observer

	warnings []error
	events   []telemetry.Event
}

// New validates cfg, allocates the grid and applies the initial seeds.
// The random seed is cfg.Run.RandomSeed; every draw of the run, including
// the seeds' cure days, comes from it.
//
// Seeds are applied in list order and the first entry for a coordinate
// wins; later duplicates are skipped. Seeds outside the grid are logged,
// recorded in Warnings and skipped.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	grid, err := systems.NewGrid(cfg.Grid.Size)
	if err != nil {
		return nil, fmt.Errorf("creating grid: %w", err)
	}

	seed := cfg.Run.RandomSeed
	rng := rand.New(rand.NewSource(int64(seed)))

	s := &Simulation{
		grid: grid,
		infection: systems.NewInfectionSystem(systems.InfectionParams{
			InfectionProbability: cfg.Infection.InfectionProbability,
			DeathProbability:     cfg.Infection.DeathProbability,
			DaysMin:              cfg.Infection.DaysMin,
			DaysMax:              cfg.Infection.DaysMax,
		}, rng),
		collector: telemetry.NewCollector(opts.KeepEvents),
		stats:     telemetry.NewStatistics(),
		seed:      seed,
		opts:      opts,
	}
	s.infection.SetSink(s.collector)

	for _, p := range cfg.Seeds {
		s.applySeed(p.X, p.Y)
	}

	return s, nil
}

func (s *Simulation) applySeed(x, y int) {
	if !s.grid.InBounds(x, y) {
		// No cure day is drawn for a rejected seed
		slog.Warn("seed outside grid", "x", x, "y", y, "size", s.grid.Size())
		s.warnings = append(s.warnings, &systems.BoundsWarning{X: x, Y: y, Size: s.grid.Size()})
		return
	}
	if s.grid.At(x, y).Kind == components.KindInfected {
		slog.Debug("duplicate seed skipped", "x", x, "y", y)
		return
	}

	if err := s.grid.Seed(x, y, s.infection.CureDay(s.stats.DaysLapsed)); err != nil {
		s.warnings = append(s.warnings, err)
		return
	}
	s.stats.AddSeeded()
}

// AddObserver registers an observer. Observers run in registration order.
func (s *Simulation) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Simulation) notify() {
	for _, o := range s.observers {
		o(s.stats, s.grid)
	}
}

// Run steps the simulation until no infected cells remain. Unless Quiet is
// set, observers see the initial state first (only on the first call, so a
// resumed run does not repeat it); they then see every day, including the
// one that ends the epidemic.
//
// Cancellation and the pacer are checked between days only. Run returns
// ctx.Err() or the pacer's error (e.g. ErrQuit) if the run stopped early.
func (s *Simulation) Run(ctx context.Context) error {
	if s.state == StateFinished {
		return nil
	}

	if s.state == StateNotStarted {
		if !s.opts.Quiet {
			s.notify()
		}
		s.state = StateRunning
	}

	for s.stats.Total.Infected > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.Pacer != nil {
			if err := s.opts.Pacer(ctx); err != nil {
				return err
			}
		}
		s.Step()
	}

	s.state = StateFinished
	return nil
}

// Step advances exactly one day and notifies observers. The day that
// leaves no infected cells moves the simulation to StateFinished. It
// returns false, without stepping, once no infected cells remain.
func (s *Simulation) Step() bool {
	if s.state == StateFinished {
		return false
	}
	if s.stats.Total.Infected == 0 {
		s.state = StateFinished
		return false
	}
	s.state = StateRunning

	s.stats.ResetStep()
	s.infection.Step(s.grid, s.stats.DaysLapsed)
	d, events := s.collector.Flush()
	s.events = events
	s.stats.ApplyStep(d)
	s.stats.DaysLapsed++
	if s.stats.Total.Infected == 0 {
		s.state = StateFinished
	}

	s.notify()
	return true
}

// Stats returns the current statistics.
func (s *Simulation) Stats() telemetry.Statistics { return s.stats }

// Grid returns the grid. Callers must not modify it.
func (s *Simulation) Grid() *systems.Grid { return s.grid }

// State returns the lifecycle state.
func (s *Simulation) State() State { return s.state }

// Seed returns the random seed driving the run.
func (s *Simulation) Seed() uint32 { return s.seed }

// Warnings returns the non-fatal problems found while seeding.
func (s *Simulation) Warnings() []error { return s.warnings }

// Events returns the transitions of the most recent day. Empty unless
// Options.KeepEvents is set.
func (s *Simulation) Events() []telemetry.Event { return s.events }

// Report returns the end-of-run summary for the current state. The run
// counts as completed once no infected cells remain.
func (s *Simulation) Report() telemetry.Report {
	cells := s.grid.Size() * s.grid.Size()
	completed := s.state == StateFinished || s.stats.Total.Infected == 0
	return telemetry.NewReport(s.stats, cells, s.seed, completed)
}

// Snapshot captures the current grid and statistics.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	return telemetry.NewSnapshot(s.grid, s.stats, s.seed)
}
