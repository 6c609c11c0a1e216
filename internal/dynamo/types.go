package dynamo

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a point mass. Radius only shapes the ocean ring and the drawn
// circle; gravity treats every body as a point.
type Body struct {
	Name   string
	Mass   float64
	Radius float64
	Pos    r2.Vec
	Vel    r2.Vec
	Color  color.RGBA
	Fixed  bool // pinned in place; the integrator never moves it
}

// SurfaceGravity is the acceleration g·m/r² at the body's surface.
func (b *Body) SurfaceGravity(g float64) float64 {
	return g * b.Mass / (b.Radius * b.Radius)
}

// SurfacePoint is a massless water tracer anchored to a primary's ring.
type SurfacePoint struct {
	Base  r2.Vec // equilibrium offset from the primary's centre
	Pos   r2.Vec // displayed absolute position
	Force r2.Vec // accumulated tidal force for the current step
}

// Ocean is the ring of surface points on one primary body. The number of
// points is fixed when the ocean is created.
type Ocean struct {
	Primary int
	Points  []SurfacePoint
	Frame   r2.Vec // uniform reference-frame correction for the current step
}

// NewOcean samples a point roughly every stepDeg degrees on a circle of the
// given radius around the primary's centre. The count is rounded so the
// points always close the ring evenly.
func NewOcean(primary int, radius, stepDeg float64) Ocean {
	n := int(math.Round(360 / stepDeg))
	if n < 1 {
		n = 1
	}
	points := make([]SurfacePoint, n)
	for i := range points {
		angle := 2 * math.Pi * float64(i) / float64(n)
		points[i].Base = Decompose(radius, angle)
	}
	return Ocean{Primary: primary, Points: points}
}

// Anchor returns the absolute equilibrium position of point i.
func (o *Ocean) Anchor(center r2.Vec, i int) r2.Vec {
	return r2.Add(center, o.Points[i].Base)
}

// World owns every body and ocean of one run.
type World struct {
	Bodies []Body
	Oceans []Ocean
}

// Validate fails fast on initial conditions the loop cannot handle.
func (w *World) Validate() error {
	for i := range w.Bodies {
		b := &w.Bodies[i]
		field := fmt.Sprintf("bodies[%d]", i)
		if !(b.Mass > 0) {
			return &ConfigurationError{Field: field + ".mass", Reason: fmt.Sprintf("must be positive, got %g", b.Mass)}
		}
		if !(b.Radius > 0) {
			return &ConfigurationError{Field: field + ".radius", Reason: fmt.Sprintf("must be positive, got %g", b.Radius)}
		}
		if !IsFinite(b.Pos) || !IsFinite(b.Vel) {
			return &ConfigurationError{Field: field, Reason: "position and velocity must be finite"}
		}
		for j := 0; j < i; j++ {
			if w.Bodies[j].Pos == b.Pos {
				return &ConfigurationError{
					Field:  field + ".pos",
					Reason: fmt.Sprintf("coincides with %q", w.Bodies[j].Name),
				}
			}
		}
	}
	for i := range w.Oceans {
		o := &w.Oceans[i]
		if o.Primary < 0 || o.Primary >= len(w.Bodies) {
			return &ConfigurationError{
				Field:  fmt.Sprintf("oceans[%d].primary", i),
				Reason: fmt.Sprintf("no body with index %d", o.Primary),
			}
		}
		if len(o.Points) == 0 {
			return &ConfigurationError{Field: fmt.Sprintf("oceans[%d]", i), Reason: "has no surface points"}
		}
	}
	return nil
}

// CheckSeparation reports the first pair of bodies sitting on the same
// point as a *CollisionError.
func (w *World) CheckSeparation() error {
	for i := range w.Bodies {
		for j := i + 1; j < len(w.Bodies); j++ {
			if _, err := Distance(w.Bodies[i].Pos, w.Bodies[j].Pos); err != nil {
				return &CollisionError{A: w.Bodies[i].Name, B: w.Bodies[j].Name}
			}
		}
	}
	return nil
}

// Momentum returns the total linear momentum Σ m·v.
func (w *World) Momentum() r2.Vec {
	var p r2.Vec
	for i := range w.Bodies {
		p = r2.Add(p, r2.Scale(w.Bodies[i].Mass, w.Bodies[i].Vel))
	}
	return p
}

// KineticEnergy returns Σ ½·m·|v|².
func (w *World) KineticEnergy() float64 {
	ke := 0.0
	for i := range w.Bodies {
		ke += 0.5 * w.Bodies[i].Mass * r2.Norm2(w.Bodies[i].Vel)
	}
	return ke
}

// ResetDisplay places every surface point on its equilibrium anchor.
func (w *World) ResetDisplay() {
	for i := range w.Oceans {
		o := &w.Oceans[i]
		center := w.Bodies[o.Primary].Pos
		for j := range o.Points {
			o.Points[j].Pos = o.Anchor(center, j)
		}
	}
}

func (w *World) Clone() *World {
	c := &World{
		Bodies: make([]Body, len(w.Bodies)),
		Oceans: make([]Ocean, len(w.Oceans)),
	}
	copy(c.Bodies, w.Bodies)
	for i, o := range w.Oceans {
		c.Oceans[i] = Ocean{Primary: o.Primary, Frame: o.Frame, Points: make([]SurfacePoint, len(o.Points))}
		copy(c.Oceans[i].Points, o.Points)
	}
	return c
}
