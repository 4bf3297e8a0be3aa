package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/contagion/systems"
)

// Totals holds running counts across the whole run.
type Totals struct {
	Infected int `json:"infected"` // currently infected
	Dead     int `json:"dead"`
	Immune   int `json:"immune"`
}

// Statistics is the epidemic state reported to observers.
type Statistics struct {
	DaysLapsed int                `json:"days_lapsed"` // current day, starts at 1
	LastStep   systems.StepDeltas `json:"last_step"`
	Total      Totals             `json:"total"`

	PeakInfected int `json:"peak_infected"`
	PeakDay      int `json:"peak_day"`
}

// NewStatistics returns statistics for a run that has not stepped yet.
func NewStatistics() Statistics {
	return Statistics{DaysLapsed: 1}
}

// AddSeeded counts one initially infected cell.
func (s *Statistics) AddSeeded() {
	s.Total.Infected++
	s.trackPeak()
}

// ResetStep clears the last-step deltas at the start of a day.
func (s *Statistics) ResetStep() {
	s.LastStep = systems.StepDeltas{}
}

// ApplyStep folds one day's deltas into the totals. No clamping is done:
// cured and dead cells were always counted as infected first.
func (s *Statistics) ApplyStep(d systems.StepDeltas) {
	s.LastStep = d
	s.Total.Infected += d.Infected - d.Cured - d.Dead
	s.Total.Dead += d.Dead
	s.Total.Immune += d.Cured
	s.trackPeak()
}

func (s *Statistics) trackPeak() {
	if s.Total.Infected > s.PeakInfected {
		s.PeakInfected = s.Total.Infected
		s.PeakDay = s.DaysLapsed
	}
}

// EverInfected returns the number of cells that have been infected so far.
func (s Statistics) EverInfected() int {
	return s.Total.Infected + s.Total.Dead + s.Total.Immune
}

// Record returns the CSV row for the current day.
func (s Statistics) Record() DayRecord {
	return DayRecord{
		Day:           s.DaysLapsed,
		NewInfected:   s.LastStep.Infected,
		NewDead:       s.LastStep.Dead,
		NewCured:      s.LastStep.Cured,
		TotalInfected: s.Total.Infected,
		TotalDead:     s.Total.Dead,
		TotalImmune:   s.Total.Immune,
	}
}

// DayRecord is one row of days.csv.
type DayRecord struct {
	Day           int `csv:"day"`
	NewInfected   int `csv:"new_infected"`
	NewDead       int `csv:"new_dead"`
	NewCured      int `csv:"new_cured"`
	TotalInfected int `csv:"total_infected"`
	TotalDead     int `csv:"total_dead"`
	TotalImmune   int `csv:"total_immune"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s Statistics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", s.DaysLapsed),
		slog.Int("new_infected", s.LastStep.Infected),
		slog.Int("new_dead", s.LastStep.Dead),
		slog.Int("new_cured", s.LastStep.Cured),
		slog.Int("infected", s.Total.Infected),
		slog.Int("dead", s.Total.Dead),
		slog.Int("immune", s.Total.Immune),
	)
}

// Report is the end-of-run summary.
type Report struct {
	RandomSeed    uint32  `json:"random_seed"`
	Days          int     `json:"days"`
	Infections    int     `json:"infections"` // immune + dead
	InfectionsPct int     `json:"infections_pct"`
	Deaths        int     `json:"deaths"`
	DeathsPct     int     `json:"deaths_pct"`
	PeakInfected  int     `json:"peak_infected"`
	PeakDay       int     `json:"peak_day"`
	AttackRate    float64 `json:"attack_rate"` // infections / cells
	CaseFatality  float64 `json:"case_fatality"`
	Cells         int     `json:"cells"`
	Completed     bool    `json:"completed"` // false if stopped early
}

// NewReport builds the end-of-run summary for a grid with the given number
// of cells. Percentages are truncated integers of cells.
func NewReport(s Statistics, cells int, seed uint32, completed bool) Report {
	infections := s.Total.Immune + s.Total.Dead
	r := Report{
		RandomSeed:   seed,
		Days:         s.DaysLapsed,
		Infections:   infections,
		Deaths:       s.Total.Dead,
		PeakInfected: s.PeakInfected,
		PeakDay:      s.PeakDay,
		Cells:        cells,
		Completed:    completed,
	}
	if cells > 0 {
		r.InfectionsPct = 100 * infections / cells
		r.DeathsPct = 100 * s.Total.Dead / cells
		r.AttackRate = float64(infections) / float64(cells)
	}
	if infections > 0 {
		r.CaseFatality = float64(s.Total.Dead) / float64(infections)
	}
	return r
}

// LogValue implements slog.LogValuer for structured logging.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("random_seed", r.RandomSeed),
		slog.Int("days", r.Days),
		slog.Int("infections", r.Infections),
		slog.Int("infections_pct", r.InfectionsPct),
		slog.Int("deaths", r.Deaths),
		slog.Int("deaths_pct", r.DeathsPct),
		slog.Int("peak_infected", r.PeakInfected),
		slog.Int("peak_day", r.PeakDay),
		slog.Bool("completed", r.Completed),
	)
}
