// Package main runs many replicates of one configuration with consecutive
// random seeds and summarizes the outcome distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/telemetry"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	runs := flag.Int("runs", 100, "Number of replicates")
	firstSeed := flag.Uint("r", 1, "Random seed of the first replicate; replicate i uses r+i")
	workers := flag.Int("workers", runtime.NumCPU(), "Replicates run in parallel")
	outputDir := flag.String("output", "", "Output directory for runs.csv, summary.csv and config.yaml")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}
	if *runs <= 0 {
		slog.Error("--runs must be positive", "runs", *runs)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	baseCfg := config.Cfg()
	if err := baseCfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := baseCfg.WriteYAML(filepath.Join(*outputDir, "config.yaml")); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewReplicateRunner(baseCfg, *workers)

	fmt.Printf("Running %d replicates of a %dx%d grid with %d workers\n",
		*runs, baseCfg.Grid.Size, baseCfg.Grid.Size, *workers)
	startTime := time.Now()

	results, err := runner.Run(ctx, uint32(*firstSeed), *runs)
	if err != nil {
		slog.Error("sweep stopped", "error", err, "completed", len(results))
	}
	if len(results) == 0 {
		os.Exit(1)
	}

	fmt.Printf("Completed %d replicates in %s\n", len(results), formatDuration(time.Since(startTime)))

	if err := writeCSV(filepath.Join(*outputDir, "runs.csv"), &results); err != nil {
		slog.Error("failed to write runs", "error", err)
	}

	summary := telemetry.SummarizeRuns(results)
	if err := writeCSV(filepath.Join(*outputDir, "summary.csv"), &summary); err != nil {
		slog.Error("failed to write summary", "error", err)
	}

	fmt.Println("\nSummary:")
	fmt.Printf("  %-14s %10s %10s %10s %10s %10s\n", "metric", "mean", "std_dev", "p10", "p50", "p90")
	for _, m := range summary {
		fmt.Printf("  %-14s %10.3f %10.3f %10.3f %10.3f %10.3f\n", m.Metric, m.Mean, m.StdDev, m.P10, m.P50, m.P90)
		slog.Info("summary", "metric", m.Metric, "stats", m)
	}
	fmt.Printf("\nResults saved to: %s\n", *outputDir)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}
