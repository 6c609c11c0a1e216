package viz

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/tidalsim/internal/render"
)

// Terminal renders frames onto a Braille canvas. It is driven by the
// Bubble Tea program, which owns pacing, so WaitForNextTick does nothing.
type Terminal struct {
	canvas *Canvas
	view   render.Viewport
	base   float64
	frame  string
	quit   bool
	frames int
}

// NewTerminal fits the world viewport onto a canvas of cols×rows cells.
func NewTerminal(cols, rows int, world render.Viewport) *Terminal {
	c := NewCanvas(cols, rows)
	view := fit(world, c)
	return &Terminal{canvas: c, view: view, base: view.Scale}
}

func fit(world render.Viewport, c *Canvas) render.Viewport {
	w, h := c.Dots()
	scale := world.Scale * math.Min(float64(w)/float64(world.Width), float64(h)/float64(world.Height))
	return render.Viewport{Width: w, Height: h, Scale: scale, Center: world.Center}
}

func (t *Terminal) DrawCircle(center r2.Vec, radius float64, c color.RGBA) {
	x, y := t.view.ToScreen(center)
	r := radius * t.view.Scale
	t.canvas.Circle(int(math.Round(x)), int(math.Round(y)), int(math.Round(r)), c)
}

func (t *Terminal) PollQuit() bool { return t.quit }

func (t *Terminal) Present() {
	t.frame = t.canvas.String()
	t.canvas.Clear()
	t.frames++
}

func (t *Terminal) WaitForNextTick(int) {}

// RequestQuit makes the next PollQuit report true.
func (t *Terminal) RequestQuit() { t.quit = true }

// Frame is the last presented frame.
func (t *Terminal) Frame() string { return t.frame }

func (t *Terminal) Frames() int { return t.frames }

func (t *Terminal) View() render.Viewport { return t.view }

func (t *Terminal) Zoom(factor float64) { t.view = t.view.Zoom(factor) }

// SetZoom sets the scale relative to the fitted viewport.
func (t *Terminal) SetZoom(z float64) { t.view.Scale = t.base * z }
