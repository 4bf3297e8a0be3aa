package telemetry

import (
	"fmt"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	curveInfected = drawing.Color{R: 220, G: 60, B: 50, A: 255}
	curveImmune   = drawing.Color{R: 70, G: 150, B: 220, A: 255}
	curveDead     = drawing.Color{R: 90, G: 90, B: 90, A: 255}
)

// RenderCurve draws the epidemic curve (currently infected, immune and
// dead per day) as a PNG image. At least two days are required.
func RenderCurve(path string, days []DayRecord, title string) error {
	if len(days) < 2 {
		return fmt.Errorf("rendering curve: need at least 2 days, got %d", len(days))
	}

	xs := make([]float64, len(days))
	infected := make([]float64, len(days))
	immune := make([]float64, len(days))
	dead := make([]float64, len(days))
	yMax := 1.0
	for i, d := range days {
		xs[i] = float64(d.Day)
		infected[i] = float64(d.TotalInfected)
		immune[i] = float64(d.TotalImmune)
		dead[i] = float64(d.TotalDead)
		yMax = max(yMax, infected[i], immune[i], dead[i])
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "day",
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "cells",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "infected",
				XValues: xs,
				YValues: infected,
				Style:   chart.Style{StrokeColor: curveInfected, StrokeWidth: 3},
			},
			chart.ContinuousSeries{
				Name:    "immune",
				XValues: xs,
				YValues: immune,
				Style:   chart.Style{StrokeColor: curveImmune, StrokeWidth: 3},
			},
			chart.ContinuousSeries{
				Name:    "dead",
				XValues: xs,
				YValues: dead,
				Style:   chart.Style{StrokeColor: curveDead, StrokeWidth: 3},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating curve file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("rendering curve: %w", err)
	}
	return nil
}
