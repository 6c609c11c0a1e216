package gui

import (
	"context"
	"image/color"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/render"
	"github.com/san-kum/tidalsim/internal/sim"
)

const (
	hudFontSize = 20
	zoomStep    = 1.1
)

var background = rl.NewColor(0, 0, 0, 255)

// Window is a raylib renderer. A frame is open between Open and Close, so
// every Present ends the current frame and begins the next one.
type Window struct {
	view render.Viewport
	rate int
	// HUD, when set, is drawn in the top-left corner of every frame.
	HUD func() string
}

// Open creates the window sized to the viewport. It must be called from the
// goroutine that will drive the loop.
func Open(title string, view render.Viewport) *Window {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(int32(view.Width), int32(view.Height), title)
	rl.SetExitKey(0)

	w := &Window{view: view}
	rl.BeginDrawing()
	rl.ClearBackground(background)
	return w
}

func (w *Window) DrawCircle(center r2.Vec, radius float64, c color.RGBA) {
	x, y := w.view.ToScreen(center)
	rl.DrawCircleV(rl.NewVector2(float32(x), float32(y)), float32(w.view.Radius(radius)), rl.NewColor(c.R, c.G, c.B, c.A))
}

func (w *Window) PollQuit() bool {
	return rl.WindowShouldClose() || rl.IsKeyPressed(rl.KeyEscape) || rl.IsKeyPressed(rl.KeyQ)
}

func (w *Window) Present() {
	if w.HUD != nil {
		rl.DrawText(w.HUD(), 10, 10, hudFontSize, rl.RayWhite)
	}
	rl.DrawFPS(int32(w.view.Width)-90, 10)
	rl.EndDrawing()

	if wheel := rl.GetMouseWheelMove(); wheel > 0 {
		w.view = w.view.Zoom(zoomStep)
	} else if wheel < 0 {
		w.view = w.view.Zoom(1 / zoomStep)
	}
	if rl.IsWindowResized() {
		w.view = w.view.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}

	rl.BeginDrawing()
	rl.ClearBackground(background)
}

// WaitForNextTick sets the frame rate; raylib itself sleeps inside
// EndDrawing to hold it.
func (w *Window) WaitForNextTick(rate int) {
	if rate == w.rate {
		return
	}
	w.rate = rate
	rl.SetTargetFPS(int32(rate))
}

func (w *Window) Close() error {
	rl.EndDrawing()
	rl.CloseWindow()
	return nil
}

// Run opens a window and drives the loop until it stops. raylib requires
// all calls on one OS thread, so the goroutine is locked for the duration.
func Run(ctx context.Context, loop *sim.Loop, title string, view render.Viewport, tickRate int, hud func() string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w := Open(title, view)
	w.HUD = hud
	w.WaitForNextTick(tickRate)

	s := &sim.Session{Renderer: w, TickRate: tickRate}
	defer s.Close()
	return loop.Run(ctx, s)
}
