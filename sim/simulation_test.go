package sim

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
)

func testConfig(size, infect, death, daysMin, daysMax int, seed uint32, seeds ...config.SeedConfig) *config.Config {
	cfg := config.Defaults()
	cfg.Grid.Size = size
	cfg.Infection = config.InfectionConfig{
		InfectionProbability: infect,
		DeathProbability:     death,
		DaysMin:              daysMin,
		DaysMax:              daysMax,
	}
	cfg.Run.RandomSeed = seed
	cfg.Seeds = seeds
	cfg.ComputeDerived()
	return cfg
}

func mustNew(t *testing.T, cfg *config.Config, opts Options) *Simulation {
	t.Helper()
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestRunWithoutSeedsFinishesImmediately(t *testing.T) {
	for _, size := range []int{1, 2, 7, 50} {
		for _, quiet := range []bool{false, true} {
			s := mustNew(t, testConfig(size, 50, 5, 2, 4, 1), Options{Quiet: quiet})

			calls := 0
			s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) { calls++ })

			if err := s.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}

			stats := s.Stats()
			if stats.Total.Infected != 0 || stats.DaysLapsed != 1 {
				t.Errorf("size %d: stats = %+v, want day 1 with nothing infected", size, stats)
			}
			if s.State() != StateFinished {
				t.Errorf("state = %s, want finished", s.State())
			}
			wantCalls := 1
			if quiet {
				wantCalls = 0
			}
			if calls != wantCalls {
				t.Errorf("size %d quiet=%v: observer called %d times, want %d", size, quiet, calls, wantCalls)
			}
		}
	}
}

func TestThreeByThreeScenario(t *testing.T) {
	s := mustNew(t, testConfig(3, 100, 0, 1, 2, 99, config.SeedConfig{X: 1, Y: 1}), Options{})

	if s.Stats().Total.Infected != 1 {
		t.Fatalf("seeded infected = %d, want 1", s.Stats().Total.Infected)
	}

	if !s.Step() {
		t.Fatal("first step should run")
	}
	stats := s.Stats()
	if stats.LastStep.Infected != 8 {
		t.Errorf("last_step.infected = %d, want 8", stats.LastStep.Infected)
	}
	if stats.Total.Infected != 9 {
		t.Errorf("total.infected = %d, want 9", stats.Total.Infected)
	}
	if stats.DaysLapsed != 2 {
		t.Errorf("days lapsed = %d, want 2", stats.DaysLapsed)
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	final := s.Stats()
	if final.Total != (telemetry.Totals{Infected: 0, Dead: 0, Immune: 9}) {
		t.Errorf("final totals = %+v", final.Total)
	}
	if final.DaysLapsed != 3 {
		t.Errorf("final day = %d, want 3", final.DaysLapsed)
	}
}

func TestNoSpreadTerminatesByCureOrDeath(t *testing.T) {
	seeds := []config.SeedConfig{{X: 0, Y: 0}, {X: 4, Y: 4}, {X: 7, Y: 2}, {X: 3, Y: 8}}
	s := mustNew(t, testConfig(10, 0, 20, 3, 9, 5, seeds...), Options{Quiet: true})

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	counts := s.Grid().Counts()
	if counts.Infected != 0 {
		t.Errorf("%d cells still infected", counts.Infected)
	}
	if counts.EverInfected() != len(seeds) {
		t.Errorf("ever infected = %d, want only the %d seeds", counts.EverInfected(), len(seeds))
	}
	for _, p := range seeds {
		k := s.Grid().At(p.X, p.Y).Kind
		if k != components.KindDead && k != components.KindImmune {
			t.Errorf("seed (%d,%d) ended %s", p.X, p.Y, k)
		}
	}
	// Every seed cures no later than day 1 + days_max - 1
	if d := s.Stats().DaysLapsed; d > 1+9 {
		t.Errorf("run lasted until day %d", d)
	}
}

func TestStatisticsInvariantAndAbsorbingStates(t *testing.T) {
	cfg := testConfig(20, 35, 8, 2, 6, 2024,
		config.SeedConfig{X: 10, Y: 10}, config.SeedConfig{X: 0, Y: 19})
	s := mustNew(t, cfg, Options{})

	var prev []components.Cell
	var lastSeen telemetry.Statistics
	s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
		counts := g.Counts()
		if stats.EverInfected() != counts.EverInfected() {
			t.Fatalf("day %d: statistics count %d ever infected, grid has %d",
				stats.DaysLapsed, stats.EverInfected(), counts.EverInfected())
		}
		if stats.Total.Infected != counts.Infected || stats.Total.Dead != counts.Dead || stats.Total.Immune != counts.Immune {
			t.Fatalf("day %d: totals %+v disagree with grid %+v", stats.DaysLapsed, stats.Total, counts)
		}

		cells := g.Cells()
		for i := range prev {
			before, after := prev[i].Kind, cells[i].Kind
			switch before {
			case components.KindDead, components.KindImmune:
				if after != before {
					t.Fatalf("cell %d left absorbing state %s for %s", i, before, after)
				}
			case components.KindInfected:
				if after == components.KindNormal {
					t.Fatalf("cell %d returned to normal", i)
				}
				if after == components.KindInfected && cells[i] != prev[i] {
					t.Fatalf("infected cell %d changed: %+v -> %+v", i, prev[i], cells[i])
				}
			}
		}
		prev = append(prev[:0], cells...)
		lastSeen = stats
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if lastSeen.Total.Infected != 0 {
		t.Errorf("observer did not see the final day: %+v", lastSeen.Total)
	}
	if lastSeen.DaysLapsed != s.Stats().DaysLapsed {
		t.Errorf("last observed day %d != final day %d", lastSeen.DaysLapsed, s.Stats().DaysLapsed)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() ([]telemetry.DayRecord, []components.Cell) {
		cfg := testConfig(25, 30, 4, 2, 5, 123456,
			config.SeedConfig{X: 3, Y: 3}, config.SeedConfig{X: 20, Y: 11})
		s := mustNew(t, cfg, Options{Quiet: true})

		var days []telemetry.DayRecord
		s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
			days = append(days, stats.Record())
		})
		if err := s.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		cells := make([]components.Cell, len(s.Grid().Cells()))
		copy(cells, s.Grid().Cells())
		return days, cells
	}

	days1, grid1 := run()
	days2, grid2 := run()

	if len(days1) == 0 {
		t.Fatal("expected at least one day")
	}
	if !reflect.DeepEqual(days1, days2) {
		t.Error("day-by-day statistics differ between identical runs")
	}
	if !reflect.DeepEqual(grid1, grid2) {
		t.Error("terminal grids differ between identical runs")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	final := func(seed uint32) []components.Cell {
		cfg := testConfig(30, 30, 3, 2, 6, seed, config.SeedConfig{X: 15, Y: 15})
		s := mustNew(t, cfg, Options{Quiet: true})
		_ = s.Run(context.Background())
		return s.Grid().Cells()
	}

	first := final(1)
	for seed := uint32(2); seed <= 5; seed++ {
		if !reflect.DeepEqual(first, final(seed)) {
			return
		}
	}
	t.Error("five random seeds produced identical grids")
}

func TestSeedsOutOfBoundsAreWarnings(t *testing.T) {
	cfg := testConfig(5, 10, 3, 2, 4, 1,
		config.SeedConfig{X: 2, Y: 2},
		config.SeedConfig{X: 5, Y: 0},
		config.SeedConfig{X: -1, Y: 3},
	)
	s := mustNew(t, cfg, Options{})

	if n := len(s.Warnings()); n != 2 {
		t.Fatalf("got %d warnings, want 2", n)
	}
	var bw *systems.BoundsWarning
	if !errors.As(s.Warnings()[1], &bw) || bw.X != -1 || bw.Y != 3 {
		t.Errorf("second warning = %v", s.Warnings()[1])
	}
	if s.Stats().Total.Infected != 1 {
		t.Errorf("total infected = %d, want 1", s.Stats().Total.Infected)
	}
}

func TestDuplicateSeedsFirstWins(t *testing.T) {
	cfg := testConfig(5, 10, 3, 2, 4, 1,
		config.SeedConfig{X: 1, Y: 1},
		config.SeedConfig{X: 1, Y: 1},
		config.SeedConfig{X: 2, Y: 1},
	)
	s := mustNew(t, cfg, Options{})

	if s.Stats().Total.Infected != 2 {
		t.Errorf("total infected = %d, want 2", s.Stats().Total.Infected)
	}
	if len(s.Warnings()) != 0 {
		t.Errorf("duplicates should not warn: %v", s.Warnings())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(testConfig(5, 10, 3, 4, 4, 1), Options{})
	var cerr *config.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("New error = %v, want ConfigError", err)
	}
	if cerr.Field != "infection.days_max" {
		t.Errorf("field = %s", cerr.Field)
	}
}

func TestNewAllocationError(t *testing.T) {
	_, err := New(testConfig(systems.MaxCells, 10, 3, 2, 4, 1), Options{})
	if !errors.Is(err, systems.ErrAllocation) {
		t.Errorf("New error = %v, want ErrAllocation", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	s := mustNew(t, testConfig(10, 0, 0, 50, 60, 1, config.SeedConfig{X: 1, Y: 1}), Options{Quiet: true})

	ctx, cancel := context.WithCancel(context.Background())
	days := 0
	s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
		days++
		if days == 3 {
			cancel()
		}
	})

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if days != 3 {
		t.Errorf("ran %d days after cancel, want 3", days)
	}
	if s.State() != StateRunning {
		t.Errorf("state = %s, want running", s.State())
	}
}

func TestRunStopsOnQuitKey(t *testing.T) {
	cfg := testConfig(10, 0, 0, 50, 60, 1, config.SeedConfig{X: 1, Y: 1})
	s := mustNew(t, cfg, Options{Quiet: true, Pacer: KeyPacer(strings.NewReader("\n\nq"))})

	err := s.Run(context.Background())
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("Run error = %v, want ErrQuit", err)
	}
	if d := s.Stats().DaysLapsed; d != 3 {
		t.Errorf("stopped on day %d, want 3 after two keypresses", d)
	}
	if s.Report().Completed {
		t.Error("report should mark an interrupted run as incomplete")
	}
}

func TestStepAfterFinish(t *testing.T) {
	s := mustNew(t, testConfig(3, 100, 0, 1, 2, 7, config.SeedConfig{X: 0, Y: 0}), Options{})
	for s.Step() {
	}
	if s.State() != StateFinished {
		t.Fatalf("state = %s, want finished", s.State())
	}
	day := s.Stats().DaysLapsed
	if s.Step() {
		t.Error("Step after finish should return false")
	}
	if err := s.Run(context.Background()); err != nil {
		t.Error(err)
	}
	if s.Stats().DaysLapsed != day {
		t.Error("finished simulation advanced")
	}
	if !s.Report().Completed {
		t.Error("report should be complete")
	}
}

func TestEventsKept(t *testing.T) {
	s := mustNew(t, testConfig(3, 100, 0, 1, 2, 7, config.SeedConfig{X: 1, Y: 1}), Options{KeepEvents: true})
	s.Step()

	events := s.Events()
	if len(events) != 8 {
		t.Fatalf("got %d events, want 8 infections", len(events))
	}
	for _, e := range events {
		if e.Type != telemetry.EventInfection || e.Day != 1 {
			t.Errorf("unexpected event %+v", e)
		}
	}
}

func TestStepReachesFinished(t *testing.T) {
	s := mustNew(t, testConfig(3, 100, 0, 1, 2, 7, config.SeedConfig{X: 1, Y: 1}), Options{})

	for s.Stats().Total.Infected > 0 {
		s.Step()
	}

	if s.State() != StateFinished {
		t.Errorf("state = %s, want finished after the last infected cell is gone", s.State())
	}
	if !s.Report().Completed {
		t.Error("report should be complete once no infected cells remain")
	}
	if d := s.Stats().DaysLapsed; d != 4 {
		t.Errorf("finished on day %d, want 4", d)
	}
}

func TestReportWithoutSeedsIsComplete(t *testing.T) {
	s := mustNew(t, testConfig(4, 50, 5, 2, 4, 1), Options{})

	if s.State() != StateNotStarted {
		t.Errorf("state = %s, want not_started", s.State())
	}
	if !s.Report().Completed {
		t.Error("a grid with nothing infected has nothing left to run")
	}
}

func TestRunResumeDoesNotRepeatInitialView(t *testing.T) {
	cfg := testConfig(5, 0, 0, 1, 2, 1, config.SeedConfig{X: 1, Y: 1})
	s := mustNew(t, cfg, Options{Pacer: KeyPacer(strings.NewReader("\nq"))})

	var days []int
	s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
		days = append(days, stats.DaysLapsed)
	})

	if err := s.Run(context.Background()); !errors.Is(err, ErrQuit) {
		t.Fatalf("first Run error = %v, want ErrQuit", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	want := []int{1, 2, 3}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("observed days %v, want %v", days, want)
	}
	if s.State() != StateFinished {
		t.Errorf("state = %s, want finished", s.State())
	}
}

func TestStatisticsFollowEvents(t *testing.T) {
	cfg := testConfig(12, 40, 10, 1, 4, 3, config.SeedConfig{X: 6, Y: 6})
	s := mustNew(t, cfg, Options{Quiet: true, KeepEvents: true})

	s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
		var got systems.StepDeltas
		for _, e := range s.Events() {
			switch e.Type {
			case telemetry.EventInfection:
				got.Infected++
			case telemetry.EventDeath:
				got.Dead++
			case telemetry.EventCure:
				got.Cured++
			}
		}
		if got != stats.LastStep {
			t.Errorf("day %d: events %+v, statistics %+v", stats.DaysLapsed, got, stats.LastStep)
		}
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestDroppedSeedDoesNotShiftDraws(t *testing.T) {
	run := func(seeds ...config.SeedConfig) *Simulation {
		s := mustNew(t, testConfig(5, 50, 5, 2, 5, 11, seeds...), Options{Quiet: true})
		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s
	}

	plain := run(config.SeedConfig{X: 2, Y: 2})
	withDropped := run(config.SeedConfig{X: 9, Y: 9}, config.SeedConfig{X: 2, Y: 2})

	if len(withDropped.Warnings()) != 1 {
		t.Fatalf("got %d warnings, want 1", len(withDropped.Warnings()))
	}
	if plain.Stats() != withDropped.Stats() {
		t.Errorf("statistics differ: %+v vs %+v", plain.Stats(), withDropped.Stats())
	}
	if !reflect.DeepEqual(plain.Grid().Cells(), withDropped.Grid().Cells()) {
		t.Error("a rejected seed changed the outcome of the run")
	}
}
