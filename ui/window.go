package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/contagion/camera"
	"github.com/pthm-cable/contagion/components"
	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/sim"
)

var kindColors = [...]rl.Color{
	components.KindNormal:   rl.NewColor(40, 44, 52, 255),
	components.KindInfected: rl.NewColor(220, 60, 50, 255),
	components.KindImmune:   rl.NewColor(70, 150, 220, 255),
	components.KindDead:     rl.NewColor(110, 110, 110, 255),
}

// maxViewport caps the grid area of the window in pixels.
const maxViewport = 960

// Window shows a simulation in a raylib window. In interactive mode each
// click on Step (or Space) advances one day; otherwise days advance at a
// configurable rate. The grid can be dragged (right mouse button) and
// zoomed (wheel); dragging wraps around the torus.
type Window struct {
	sim         *sim.Simulation
	cfg         config.WindowConfig
	interactive bool

	cam           *camera.Camera
	hud           *HUD
	paused        bool
	daysPerSecond float32
	accum         float32
}

// NewWindow creates a window renderer for s.
func NewWindow(s *sim.Simulation, cfg config.WindowConfig, interactive bool) *Window {
	dps := float32(cfg.DaysPerSecond)
	if dps <= 0 {
		dps = 1
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = 8
	}
	return &Window{
		sim:           s,
		cfg:           cfg,
		interactive:   interactive,
		daysPerSecond: dps,
	}
}

// Run opens the window and blocks until it is closed or Q is pressed.
// Returns sim.ErrQuit when the user quits before the epidemic ends.
func (w *Window) Run() error {
	size := w.sim.Grid().Size()
	gridPx := min(int32(size*w.cfg.CellSize), maxViewport)
	width := max(gridPx, 480)
	height := gridPx + HUDHeight

	rl.InitWindow(width, height, "Contagion")
	defer rl.CloseWindow()
	if w.cfg.TargetFPS > 0 {
		rl.SetTargetFPS(int32(w.cfg.TargetFPS))
	}

	w.cam = camera.New(float32(gridPx), float32(gridPx), size, float32(w.cfg.CellSize))
	w.hud = NewHUD(gridPx)

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			break
		}
		w.handleCamera()
		w.update(rl.GetFrameTime())

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		w.drawGrid()
		w.drawControls(width, gridPx)
		w.hud.Draw(HUDData{
			Stats:        w.sim.Stats(),
			Seed:         w.sim.Seed(),
			Hover:        w.hoveredCell(),
			Paused:       w.paused,
			Finished:     w.sim.State() == sim.StateFinished,
			Interactive:  w.interactive,
			ScreenWidth:  width,
			ScreenHeight: height,
		})
		w.hud.DrawControls(width, height, "SPACE step/pause  RMB drag  WHEEL zoom  R reset  Q quit")
		rl.EndDrawing()
	}

	if w.sim.State() != sim.StateFinished && w.sim.Stats().Total.Infected > 0 {
		return sim.ErrQuit
	}
	return nil
}

func (w *Window) handleCamera() {
	if rl.IsKeyPressed(rl.KeyR) {
		w.cam.Reset()
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.cam.ZoomBy(1 + 0.1*wheel)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		w.cam.Pan(d.X, d.Y)
	}
}

func (w *Window) hoveredCell() *HoverInfo {
	m := rl.GetMousePosition()
	if !w.cam.InViewport(m.X, m.Y) {
		return nil
	}
	x, y := w.cam.ScreenToCell(m.X, m.Y)
	return &HoverInfo{X: x, Y: y, Cell: *w.sim.Grid().At(x, y)}
}

func (w *Window) update(dt float32) {
	if w.sim.State() == sim.StateFinished {
		return
	}

	if w.interactive {
		if rl.IsKeyPressed(rl.KeySpace) {
			w.sim.Step()
		}
		return
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		w.paused = !w.paused
	}
	if w.paused {
		return
	}

	w.accum += dt * w.daysPerSecond
	for w.accum >= 1 {
		w.accum--
		if !w.sim.Step() {
			w.accum = 0
			return
		}
	}
}

func (w *Window) drawGrid() {
	g := w.sim.Grid()
	size := g.Size()
	cells := g.Cells()
	cell := int32(w.cam.CellSize)
	gap := int32(0)
	if cell > 4 {
		gap = 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !w.cam.IsVisible(x, y) {
				continue
			}
			sx, sy := w.cam.CellToScreen(x, y)
			k := cells[y*size+x].Kind
			rl.DrawRectangle(int32(sx), int32(sy), cell-gap, cell-gap, kindColors[k])
		}
	}
}

func (w *Window) drawControls(width, top int32) {
	panelX := float32(width - 170)
	panelY := float32(top + 8)

	if w.interactive {
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 160, Height: 28}, "Step") {
			w.sim.Step()
		}
		return
	}

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 160, Height: 28}, toggleText(w.paused, "Resume", "Pause")) {
		w.paused = !w.paused
	}

	w.daysPerSecond = gui.SliderBar(
		rl.Rectangle{X: panelX + 30, Y: panelY + 40, Width: 100, Height: 20},
		"1", "60",
		w.daysPerSecond, 1, 60,
	)
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
