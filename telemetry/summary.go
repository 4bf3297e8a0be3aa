package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RunResult is one replicate's outcome, written as a row of runs.csv.
type RunResult struct {
	RandomSeed   uint32  `csv:"random_seed"`
	Days         int     `csv:"days"`
	Infections   int     `csv:"infections"`
	Deaths       int     `csv:"deaths"`
	PeakInfected int     `csv:"peak_infected"`
	PeakDay      int     `csv:"peak_day"`
	AttackRate   float64 `csv:"attack_rate"`
}

// NewRunResult extracts the replicate fields from a report.
func NewRunResult(r Report) RunResult {
	return RunResult{
		RandomSeed:   r.RandomSeed,
		Days:         r.Days,
		Infections:   r.Infections,
		Deaths:       r.Deaths,
		PeakInfected: r.PeakInfected,
		PeakDay:      r.PeakDay,
		AttackRate:   r.AttackRate,
	}
}

// MetricSummary describes the distribution of one metric across replicates.
type MetricSummary struct {
	Metric string  `csv:"metric"`
	Mean   float64 `csv:"mean"`
	StdDev float64 `csv:"std_dev"`
	Min    float64 `csv:"min"`
	P10    float64 `csv:"p10"`
	P50    float64 `csv:"p50"`
	P90    float64 `csv:"p90"`
	Max    float64 `csv:"max"`
}

// Summarize computes the distribution of a sample. StdDev is the sample
// (n-1) standard deviation and is 0 for fewer than two values.
func Summarize(metric string, values []float64) MetricSummary {
	s := MetricSummary{Metric: metric}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return s
}

// SummarizeRuns summarizes days, infections, deaths, peak and attack rate
// across replicate runs.
func SummarizeRuns(results []RunResult) []MetricSummary {
	n := len(results)
	days := make([]float64, n)
	infections := make([]float64, n)
	deaths := make([]float64, n)
	peaks := make([]float64, n)
	attack := make([]float64, n)

	for i, r := range results {
		days[i] = float64(r.Days)
		infections[i] = float64(r.Infections)
		deaths[i] = float64(r.Deaths)
		peaks[i] = float64(r.PeakInfected)
		attack[i] = r.AttackRate
	}

	return []MetricSummary{
		Summarize("days", days),
		Summarize("infections", infections),
		Summarize("deaths", deaths),
		Summarize("peak_infected", peaks),
		Summarize("attack_rate", attack),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (m MetricSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", m.Mean),
		slog.Float64("std_dev", m.StdDev),
		slog.Float64("min", m.Min),
		slog.Float64("p10", m.P10),
		slog.Float64("p50", m.P50),
		slog.Float64("p90", m.P90),
		slog.Float64("max", m.Max),
	)
}
