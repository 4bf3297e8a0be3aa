package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/renderer"
	"github.com/pthm-cable/contagion/sim"
	"github.com/pthm-cable/contagion/systems"
	"github.com/pthm-cable/contagion/telemetry"
	"github.com/pthm-cable/contagion/ui"
)

// seedList collects -a X Y pairs, stored as "X,Y" after argument expansion.
type seedList []config.SeedConfig

func (s *seedList) String() string {
	parts := make([]string, len(*s))
	for i, p := range *s {
		parts[i] = fmt.Sprintf("%d,%d", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func (s *seedList) Set(v string) error {
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return fmt.Errorf("want X Y, got %q", v)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return fmt.Errorf("bad X: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return fmt.Errorf("bad Y: %w", err)
	}
	*s = append(*s, config.SeedConfig{X: x, Y: y})
	return nil
}

// expandPairs rewrites "-a X Y" into "-a=X,Y" so the flag package can parse it.
func expandPairs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if (args[i] == "-a" || args[i] == "--a") && i+2 < len(args) {
			out = append(out, "-a="+args[i+1]+","+args[i+2])
			i += 2
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	size := flag.Int("s", 0, "matrix size (NxN)")
	infectProb := flag.Int("p", 0, "infection spread probability (0-100)")
	deathProb := flag.Int("m", 0, "mortality rate (0-100)")
	daysMax := flag.Int("u", 0, "number of days infected (upper limit)")
	daysMin := flag.Int("l", 0, "number of days infected (lower limit)")
	var seeds seedList
	flag.Var(&seeds, "a", "add infected cell at `X Y` (repeatable)")
	interactive := flag.Bool("i", false, "interactive simulation mode")
	quiet := flag.Bool("q", false, "quiet simulation mode")
	delay := flag.Int("d", 0, "simulation step delay (µs)")
	randomSeed := flag.Uint("r", 0, "random seed (default time-based)")
	window := flag.Bool("window", false, "Show the grid in a window instead of the terminal")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, report and config snapshot")
	events := flag.Bool("events", false, "Also write every cell transition to events.csv")
	video := flag.Bool("video", false, "Also record the grid to grid.avi (one frame per day)")
	logStats := flag.Bool("log-stats", false, "Output daily stats via slog")
	logText := flag.Bool("log-text", false, "Use text instead of JSON log output")

	flag.CommandLine.Parse(expandPairs(os.Args[1:]))
	if flag.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Error: invalid argument, use -h for help")
		return 1
	}

	// Logs go to stderr; stdout carries the grid and report
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, nil)
	if *logText {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	slog.SetDefault(slog.New(handler))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	// Explicit flags override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.Grid.Size = *size
		case "p":
			cfg.Infection.InfectionProbability = *infectProb
		case "m":
			cfg.Infection.DeathProbability = *deathProb
		case "u":
			cfg.Infection.DaysMax = *daysMax
		case "l":
			cfg.Infection.DaysMin = *daysMin
		case "a":
			cfg.Seeds = append(cfg.Seeds, seeds...)
		case "i":
			cfg.Run.Interactive = *interactive
		case "q":
			cfg.Run.Quiet = *quiet
		case "d":
			cfg.Run.DelayUS = *delay
		case "r":
			cfg.Run.RandomSeed = uint32(*randomSeed)
		case "output-dir":
			cfg.Telemetry.OutputDir = *outputDir
		case "log-stats":
			cfg.Telemetry.LogStats = *logStats
		case "video":
			cfg.Telemetry.Video = *video
		}
	})
	if !isFlagSet("r") && cfg.Run.RandomSeed == 0 {
		cfg.Run.RandomSeed = uint32(time.Now().Unix())
	}
	cfg.ComputeDerived()

	opts := sim.Options{
		Quiet:      cfg.Run.Quiet,
		KeepEvents: *events && cfg.Telemetry.OutputDir != "",
	}
	if !*window {
		if cfg.Run.Interactive {
			opts.Pacer = sim.KeyPacer(os.Stdin)
		} else if cfg.Run.DelayUS > 0 {
			opts.Pacer = sim.DelayPacer(time.Duration(cfg.Run.DelayUS) * time.Microsecond)
		}
	}

	s, err := sim.New(cfg, opts)
	if err != nil {
		var cerr *config.ConfigError
		switch {
		case errors.As(err, &cerr):
			slog.Error("invalid configuration", "field", cerr.Field, "reason", cerr.Reason)
			fmt.Fprintln(os.Stderr, "Error: invalid argument, use -h for help")
		case errors.Is(err, systems.ErrAllocation):
			slog.Error("grid allocation failed", "error", err)
			fmt.Fprintln(os.Stderr, "Error: out of memory")
		default:
			slog.Error("failed to create simulation", "error", err)
		}
		return 1
	}

	om, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir, opts.KeepEvents)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		return 1
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	attachObservers(s, cfg, om, *window)

	if om != nil && cfg.Telemetry.Video {
		rec, err := renderer.NewVideo(filepath.Join(om.Dir(), "grid.avi"), cfg.Grid.Size, cfg.Telemetry.VideoCell, cfg.Telemetry.VideoFPS)
		if err != nil {
			slog.Error("failed to create video", "error", err)
			return 1
		}
		defer func() {
			if err := rec.Err(); err != nil {
				slog.Error("video recording failed", "error", err)
			}
			if err := rec.Close(); err != nil {
				slog.Error("failed to close video", "error", err)
			}
			slog.Info("video saved", "frames", rec.Frames())
		}()
		rec.Observe(s.Stats(), s.Grid())
		s.AddObserver(rec.Observe)
	}

	slog.Info("starting simulation",
		"seed", cfg.Run.RandomSeed,
		"size", cfg.Grid.Size,
		"infection_probability", cfg.Infection.InfectionProbability,
		"death_probability", cfg.Infection.DeathProbability,
		"days_min", cfg.Infection.DaysMin,
		"days_max", cfg.Infection.DaysMax,
		"seeded", s.Stats().Total.Infected,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *window {
		err = ui.NewWindow(s, cfg.Window, cfg.Run.Interactive).Run()
	} else {
		err = s.Run(ctx)
	}
	switch {
	case err == nil:
	case errors.Is(err, sim.ErrQuit), errors.Is(err, context.Canceled):
		slog.Info("simulation stopped early", "day", s.Stats().DaysLapsed)
	default:
		slog.Error("simulation failed", "error", err)
		return 1
	}

	report := s.Report()
	if !cfg.Run.Quiet && !*window {
		fmt.Print("\n\n")
	}
	renderer.WriteReport(os.Stdout, report)

	if err := om.WriteReport(report); err != nil {
		slog.Error("failed to write report", "error", err)
	}
	if cfg.Telemetry.Curve {
		title := fmt.Sprintf("seed %d, %dx%d, p=%d m=%d", report.RandomSeed, cfg.Grid.Size, cfg.Grid.Size,
			cfg.Infection.InfectionProbability, cfg.Infection.DeathProbability)
		if _, err := om.WriteCurve(title); err != nil {
			slog.Error("failed to write curve", "error", err)
		}
	}
	if path, err := om.WriteSnapshot(s.Snapshot()); err != nil {
		slog.Error("failed to write snapshot", "error", err)
	} else if path != "" {
		slog.Info("snapshot saved", "path", path)
	}
	slog.Info("simulation finished", "report", report)

	return 0
}

// attachObservers wires the console renderer, CSV output and stats logging.
func attachObservers(s *sim.Simulation, cfg *config.Config, om *telemetry.OutputManager, window bool) {
	if !cfg.Run.Quiet && !window {
		s.AddObserver(renderer.NewConsole(os.Stdout).Observe)
	}

	if om != nil {
		// The initial state is written once whether or not the run is quiet
		lastDay := s.Stats().DaysLapsed
		if err := om.WriteDay(s.Stats().Record()); err != nil {
			slog.Error("failed to write day", "error", err)
		}
		s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
			if stats.DaysLapsed <= lastDay {
				return
			}
			lastDay = stats.DaysLapsed
			if err := om.WriteDay(stats.Record()); err != nil {
				slog.Error("failed to write day", "error", err)
			}
			if err := om.WriteEvents(s.Events()); err != nil {
				slog.Error("failed to write events", "error", err)
			}
		})
	}

	if cfg.Telemetry.LogStats {
		s.AddObserver(func(stats telemetry.Statistics, g *systems.Grid) {
			slog.Info("day", "stats", stats)
		})
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
