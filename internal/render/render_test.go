package render

import (
	"image/color"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestViewportToScreen(t *testing.T) {
	v := Viewport{Width: 1000, Height: 800, Scale: 2, Center: r2.Vec{X: 10, Y: -5}}

	tests := []struct {
		name         string
		world        r2.Vec
		wantX, wantY float64
	}{
		{"center", r2.Vec{X: 10, Y: -5}, 500, 400},
		{"right", r2.Vec{X: 20, Y: -5}, 520, 400},
		{"down", r2.Vec{X: 10, Y: 5}, 500, 420},
		{"corner", r2.Vec{X: -240, Y: -205}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := v.ToScreen(tt.world)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("expected (%g, %g), got (%g, %g)", tt.wantX, tt.wantY, x, y)
			}
			back := v.ToWorld(x, y)
			if !scalar.EqualWithinAbsOrRel(back.X, tt.world.X, 1e-12, 1e-12) ||
				!scalar.EqualWithinAbsOrRel(back.Y, tt.world.Y, 1e-12, 1e-12) {
				t.Errorf("expected round trip to %v, got %v", tt.world, back)
			}
		})
	}
}

func TestViewportRadius(t *testing.T) {
	v := Viewport{Width: 100, Height: 100, Scale: 4e-7}
	if got := v.Radius(3e7); !scalar.EqualWithinAbsOrRel(got, 12, 1e-9, 1e-9) {
		t.Errorf("expected radius 12, got %g", got)
	}
	if got := v.Radius(1); got != 1 {
		t.Errorf("expected radius clamped to 1, got %g", got)
	}
}

func TestViewportContains(t *testing.T) {
	v := Viewport{Width: 100, Height: 50, Scale: 1}

	tests := []struct {
		x, y, r float64
		want    bool
	}{
		{50, 25, 1, true},
		{-0.5, 10, 1, true},
		{-2, 10, 1, false},
		{100, 10, 0, false},
		{10, 55, 10, true},
	}
	for _, tt := range tests {
		if got := v.Contains(tt.x, tt.y, tt.r); got != tt.want {
			t.Errorf("Contains(%g, %g, %g): expected %v, got %v", tt.x, tt.y, tt.r, tt.want, got)
		}
	}
}

func TestViewportZoomResize(t *testing.T) {
	v := Viewport{Width: 100, Height: 100, Scale: 1}
	z := v.Zoom(2).Resize(200, 50)
	if z.Scale != 2 || z.Width != 200 || z.Height != 50 {
		t.Errorf("unexpected viewport %+v", z)
	}
	if v.Scale != 1 {
		t.Error("zoom mutated the original viewport")
	}
}

func TestHeadlessCountsDraws(t *testing.T) {
	h := NewHeadless(Viewport{Width: 100, Height: 100, Scale: 1}, 0)

	h.DrawCircle(r2.Vec{}, 5, color.RGBA{})
	h.DrawCircle(r2.Vec{X: 1000}, 5, color.RGBA{})
	h.Present()
	h.DrawCircle(r2.Vec{}, 5, color.RGBA{})
	h.Present()

	if h.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", h.Frames)
	}
	if h.Circles != 3 {
		t.Errorf("expected 3 circles, got %d", h.Circles)
	}
	if h.LastFrame != 1 {
		t.Errorf("expected 1 circle in last frame, got %d", h.LastFrame)
	}
	if h.Offscreen != 1 {
		t.Errorf("expected 1 offscreen circle, got %d", h.Offscreen)
	}
	if h.PollQuit() {
		t.Error("uncapped renderer asked to quit")
	}
}

func TestHeadlessFrameCap(t *testing.T) {
	h := NewHeadless(Viewport{Width: 10, Height: 10, Scale: 1}, 3)

	quitAt := 0
	for i := 1; i <= 10; i++ {
		quit := h.PollQuit()
		h.Present()
		if quit {
			quitAt = i
			break
		}
	}
	if quitAt != 3 {
		t.Errorf("expected quit on frame 3, got %d", quitAt)
	}
}

func TestHeadlessPacing(t *testing.T) {
	h := NewHeadless(Viewport{Width: 10, Height: 10, Scale: 1}, 0)
	h.Pace = true
	defer h.Close()

	start := time.Now()
	for i := 0; i < 5; i++ {
		h.WaitForNextTick(100)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected pacing near 50ms, got %v", elapsed)
	}

	h.Pace = false
	start = time.Now()
	h.WaitForNextTick(1)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unpaced wait blocked for %v", elapsed)
	}
}
