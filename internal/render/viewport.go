package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport maps world coordinates onto a Width×Height screen. Center is the
// world point drawn in the middle of the screen and Scale is pixels per
// world unit. Screen y grows downward, as world y does.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
	Center r2.Vec
}

func (v Viewport) ToScreen(p r2.Vec) (x, y float64) {
	x = float64(v.Width)/2 + (p.X-v.Center.X)*v.Scale
	y = float64(v.Height)/2 + (p.Y-v.Center.Y)*v.Scale
	return x, y
}

func (v Viewport) ToWorld(x, y float64) r2.Vec {
	return r2.Vec{
		X: (x-float64(v.Width)/2)/v.Scale + v.Center.X,
		Y: (y-float64(v.Height)/2)/v.Scale + v.Center.Y,
	}
}

// Radius converts a world length to pixels, never below one pixel so that
// small bodies stay visible.
func (v Viewport) Radius(r float64) float64 {
	return math.Max(r*v.Scale, 1)
}

// Contains reports whether a circle of the given pixel radius around the
// screen point overlaps the screen.
func (v Viewport) Contains(x, y, radius float64) bool {
	return x+radius >= 0 && y+radius >= 0 &&
		x-radius < float64(v.Width) && y-radius < float64(v.Height)
}

// Resize keeps the world centre and scale and changes the screen size.
func (v Viewport) Resize(width, height int) Viewport {
	v.Width, v.Height = width, height
	return v
}

// Zoom multiplies the scale by factor.
func (v Viewport) Zoom(factor float64) Viewport {
	v.Scale *= factor
	return v
}
