// Package ui provides the raylib window for watching a simulation.
package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/telemetry"
)

// HUDHeight is the pixel height of the panel below the grid.
const HUDHeight = 110

// HUDData holds all the data needed to render the HUD.
type HUDData struct {
	Stats        telemetry.Statistics
	Seed         uint32
	Hover        *HoverInfo
	Paused       bool
	Finished     bool
	Interactive  bool
	ScreenWidth  int32
	ScreenHeight int32
}

// HoverInfo describes the cell under the mouse.
type HoverInfo struct {
	X, Y int
	Cell components.Cell
}

// HUD renders the statistics panel.
type HUD struct {
	top int32
}

// NewHUD creates a HUD drawn below a grid of the given pixel height.
func NewHUD(gridHeight int32) *HUD {
	return &HUD{top: gridHeight}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	y := h.top + 8
	s := data.Stats

	rl.DrawText(fmt.Sprintf("Day %d  (seed %d)", s.DaysLapsed, data.Seed), 10, y, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Today: infected %d | dead %d | cured %d", s.LastStep.Infected, s.LastStep.Dead, s.LastStep.Cured),
		10, y+26, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Total: infected %d | dead %d | immune %d", s.Total.Infected, s.Total.Dead, s.Total.Immune),
		10, y+46, 16, rl.LightGray,
	)

	status := "Running"
	switch {
	case data.Finished:
		status = "Finished"
	case data.Interactive:
		status = "Step mode"
	case data.Paused:
		status = "PAUSED"
	}
	rl.DrawText(status, 10, y+70, 16, rl.Yellow)

	if h := data.Hover; h != nil {
		text := fmt.Sprintf("(%d, %d) %s", h.X, h.Y, h.Cell.Kind)
		if h.Cell.Kind == components.KindInfected {
			text += fmt.Sprintf(" since day %d, cured day %d", h.Cell.InfectedOn, h.Cell.CureDay)
		}
		rl.DrawText(text, 130, y+70, 16, rl.LightGray)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	w := rl.MeasureText(controls, 14)
	rl.DrawText(controls, screenWidth-w-10, screenHeight-22, 14, rl.Gray)
}
